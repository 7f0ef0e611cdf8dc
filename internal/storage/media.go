// Package storage moves uploaded media from local temp files to the
// external media host and hands back stable public URLs.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// MediaStore persists an object and returns its public URL.
type MediaStore interface {
	Save(ctx context.Context, name string, r io.Reader) (string, error)
}

// ErrNoFile indicates there was no local file to upload.
var ErrNoFile = errors.New("storage: no file to upload")

// UploadLocalFile pushes the file at path to the media store and returns its
// public URL. The local file is removed exactly once, after the upload
// attempt completes, whether or not it succeeded.
func UploadLocalFile(ctx context.Context, store MediaStore, path string) (string, error) {
	if path == "" {
		return "", ErrNoFile
	}

	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open upload %s: %w", path, err)
	}

	defer func() {
		f.Close()
		_ = os.Remove(path)
	}()

	return store.Save(ctx, filepath.Base(path), f)
}
