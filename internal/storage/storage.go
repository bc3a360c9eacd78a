package storage

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Папки файлового хранилища.
const (
	FolderCars  = "cars"
	FolderUsers = "users"
)

var (
	ErrFileNotFound = errors.New("file not found")
	ErrInvalidName  = errors.New("invalid file name")
)

// FileStore — хранилище файлов вложений, разбитое на папки по назначению.
// Связь между именем файла и строкой БД поддерживает только сервисный слой.
type FileStore interface {
	// Save сохраняет содержимое r под новым именем {uuid}_{originalName} и возвращает это имя.
	Save(ctx context.Context, folder, originalName string, r io.Reader) (string, error)
	Open(ctx context.Context, folder, name string) (io.ReadCloser, error)
	Remove(ctx context.Context, folder, name string) error
}

// StoredName строит имя файла из случайного идентификатора и исходного имени.
func StoredName(originalName string) string {
	base := filepath.Base(strings.ReplaceAll(originalName, "\\", "/"))
	if base == "." || base == "/" || base == ".." {
		base = "file"
	}
	return uuid.NewString() + "_" + base
}

// validName отсекает пустые имена и попытки выйти за пределы папки.
// Точки внутри имени допустимы: "report..v2.pdf" остаётся одним сегментом пути.
func validName(s string) bool {
	if s == "" || s == "." || s == ".." {
		return false
	}
	return !strings.ContainsAny(s, `/\`) && filepath.Base(s) == s
}

func checkRef(folder, name string) error {
	if !validName(folder) || !validName(name) {
		return ErrInvalidName
	}
	return nil
}
