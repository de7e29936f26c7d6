package secret

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Store fetches secret material by logical name. Implementations must not
// log the returned bytes.
type Store interface {
	Fetch(ctx context.Context, name string) ([]byte, error)
}

// FileStore serves secrets from files under a root directory, one file per
// logical name.
type FileStore struct {
	root string
}

// NewFileStore 创建一个基于文件的秘密存储
func NewFileStore(root string) *FileStore {
	return &FileStore{root: root}
}

// Fetch reads the secret file for name.
func (s *FileStore) Fetch(_ context.Context, name string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(s.root, name))
	if err != nil {
		return nil, fmt.Errorf("failed to read secret %s: %w", name, err)
	}
	return data, nil
}

// Path returns the filesystem path backing a logical name, for rotation
// watching.
func (s *FileStore) Path(name string) string {
	return filepath.Join(s.root, name)
}
