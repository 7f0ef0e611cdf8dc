package storage

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// SaveTemp spools a multipart upload into dir and returns the path of the
// written file. The name is prefixed with a fresh UUID so concurrent
// requests uploading identically named files never collide.
func SaveTemp(dir string, fh *multipart.FileHeader) (string, error) {
	if fh == nil {
		return "", ErrNoFile
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create temp dir %s: %w", dir, err)
	}

	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open multipart file: %w", err)
	}
	defer src.Close()

	name := fmt.Sprintf("%s-%s", uuid.NewString(), sanitizeFilename(fh.Filename))
	path := filepath.Join(dir, name)

	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create temp file %s: %w", path, err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("write temp file %s: %w", path, err)
	}

	return path, nil
}

func sanitizeFilename(name string) string {
	name = filepath.Base(strings.TrimSpace(name))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return "upload"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.' || r == '-' || r == '_':
			return r
		default:
			return '_'
		}
	}, name)
}
