package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalMediaStore implements MediaStore on the local filesystem. The target
// directory is expected to be served as static content, so saved files are
// reachable at baseURL/<name>.
type LocalMediaStore struct {
	dir     string
	baseURL string
}

// NewLocalMediaStore creates the target directory if needed.
func NewLocalMediaStore(dir, baseURL string) (*LocalMediaStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("local media store: create %s: %w", dir, err)
	}
	return &LocalMediaStore{dir: dir, baseURL: strings.TrimSuffix(baseURL, "/")}, nil
}

// Save copies the content into the store directory.
func (s *LocalMediaStore) Save(_ context.Context, name string, r io.Reader) (string, error) {
	name = filepath.Base(strings.TrimSpace(name))
	if name == "" || name == "." {
		return "", fmt.Errorf("local media store: empty name")
	}

	dst, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return "", fmt.Errorf("local media store create %s: %w", name, err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, r); err != nil {
		return "", fmt.Errorf("local media store write %s: %w", name, err)
	}

	if s.baseURL == "" {
		return name, nil
	}

	return fmt.Sprintf("%s/%s", s.baseURL, name), nil
}

var _ MediaStore = (*LocalMediaStore)(nil)
