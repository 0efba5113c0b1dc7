package blobstore

import (
	"context"
	"io"
	"os"
	"path/filepath"
)

// Backend stores raw bytes under opaque storage keys.
type Backend interface {
	Save(ctx context.Context, storageKey string, r io.Reader) (int64, error)
	Open(ctx context.Context, storageKey string) (io.ReadCloser, error)
	Remove(ctx context.Context, storageKey string) error
}

// FSBackend keeps content on the local filesystem, fanned out over two
// levels of the storage key to keep directories small.
type FSBackend struct {
	root string
}

func NewFSBackend(root string) (*FSBackend, error) {
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, err
	}
	return &FSBackend{root: root}, nil
}

func (b *FSBackend) path(storageKey string) string {
	if len(storageKey) >= 4 {
		return filepath.Join(b.root, storageKey[0:2], storageKey[2:4], storageKey)
	}
	return filepath.Join(b.root, storageKey)
}

func (b *FSBackend) Save(ctx context.Context, storageKey string, r io.Reader) (int64, error) {
	path := b.path(storageKey)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return 0, err
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return 0, err
	}
	return n, nil
}

func (b *FSBackend) Open(ctx context.Context, storageKey string) (io.ReadCloser, error) {
	return os.Open(b.path(storageKey))
}

func (b *FSBackend) Remove(ctx context.Context, storageKey string) error {
	return os.Remove(b.path(storageKey))
}
