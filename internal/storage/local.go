package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// LocalStore хранит файлы в каталоге на диске: {root}/{folder}/{name}.
type LocalStore struct {
	root string
}

// NewLocalStore создаёт хранилище и корневой каталог, если его нет.
func NewLocalStore(root string) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalStore{root: root}, nil
}

// Save пишет во временный файл и публикует его переименованием,
// поэтому читатели никогда не видят недописанный файл.
func (s *LocalStore) Save(ctx context.Context, folder, originalName string, r io.Reader) (string, error) {
	if !validName(folder) {
		return "", ErrInvalidName
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	dir := filepath.Join(s.root, folder)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create folder %s: %w", folder, err)
	}

	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := io.Copy(tmp, &ctxReader{ctx: ctx, r: r}); err != nil {
		_ = tmp.Close()
		cleanup()
		return "", fmt.Errorf("write file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return "", fmt.Errorf("close file: %w", err)
	}

	name := StoredName(originalName)
	if err := os.Rename(tmpName, filepath.Join(dir, name)); err != nil {
		cleanup()
		return "", fmt.Errorf("publish file: %w", err)
	}
	return name, nil
}

func (s *LocalStore) Open(_ context.Context, folder, name string) (io.ReadCloser, error) {
	if err := checkRef(folder, name); err != nil {
		return nil, err
	}
	f, err := os.Open(filepath.Join(s.root, folder, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrFileNotFound
	}
	return f, err
}

func (s *LocalStore) Remove(_ context.Context, folder, name string) error {
	if err := checkRef(folder, name); err != nil {
		return err
	}
	err := os.Remove(filepath.Join(s.root, folder, name))
	if errors.Is(err, os.ErrNotExist) {
		return ErrFileNotFound
	}
	return err
}

// ctxReader прерывает копирование при отмене контекста запроса.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

var _ FileStore = (*LocalStore)(nil)
