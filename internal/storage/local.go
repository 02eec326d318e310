package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// LocalUploader writes files to a directory on disk and serves them
// under a URL prefix. Reference implementation; object stores slot in
// behind the same interface.
type LocalUploader struct {
	dir    string
	prefix string
}

func NewLocalUploader(dir, prefix string) (*LocalUploader, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalUploader{dir: dir, prefix: prefix}, nil
}

func (u *LocalUploader) Upload(name string, size int64, r io.Reader) (string, int64, error) {
	stored := uuid.New().String() + filepath.Ext(name)
	path := filepath.Join(u.dir, stored)

	f, err := os.Create(path)
	if err != nil {
		return "", 0, fmt.Errorf("create file: %w", err)
	}
	defer f.Close()

	n, err := io.Copy(f, io.LimitReader(r, MaxUploadSize+1))
	if err != nil {
		os.Remove(path)
		return "", 0, fmt.Errorf("write file: %w", err)
	}
	if n > MaxUploadSize {
		os.Remove(path)
		return "", 0, &ValidationError{Reason: fmt.Sprintf("file exceeds %d bytes", MaxUploadSize)}
	}

	return u.prefix + "/" + stored, n, nil
}
