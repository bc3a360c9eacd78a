package storage

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStore_SaveOpenRemove(t *testing.T) {
	root := t.TempDir()
	s, err := NewLocalStore(root)
	require.NoError(t, err)
	ctx := context.Background()

	name, err := s.Save(ctx, FolderCars, "report.pdf", strings.NewReader("pdf-bytes"))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(name, "_report.pdf"), name)

	rc, err := s.Open(ctx, FolderCars, name)
	require.NoError(t, err)
	data, _ := io.ReadAll(rc)
	_ = rc.Close()
	assert.Equal(t, "pdf-bytes", string(data))

	require.NoError(t, s.Remove(ctx, FolderCars, name))
	_, err = s.Open(ctx, FolderCars, name)
	assert.ErrorIs(t, err, ErrFileNotFound)
	assert.ErrorIs(t, s.Remove(ctx, FolderCars, name), ErrFileNotFound)
}

func TestLocalStore_NoTempFilesLeft(t *testing.T) {
	root := t.TempDir()
	s, err := NewLocalStore(root)
	require.NoError(t, err)

	_, err = s.Save(context.Background(), FolderUsers, "a.png", bytes.NewReader([]byte{1, 2, 3}))
	require.NoError(t, err)

	entries, err := os.ReadDir(filepath.Join(root, FolderUsers))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.False(t, strings.HasPrefix(entries[0].Name(), ".upload-"))
}

func TestLocalStore_CancelledContext(t *testing.T) {
	root := t.TempDir()
	s, err := NewLocalStore(root)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.Save(ctx, FolderCars, "x.txt", strings.NewReader("x"))
	assert.ErrorIs(t, err, context.Canceled)

	entries, _ := os.ReadDir(filepath.Join(root, FolderCars))
	assert.Empty(t, entries)
}

func TestLocalStore_RejectsTraversal(t *testing.T) {
	s, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	_, err = s.Open(ctx, FolderCars, "../secret")
	assert.ErrorIs(t, err, ErrInvalidName)
	_, err = s.Open(ctx, "..", "x")
	assert.ErrorIs(t, err, ErrInvalidName)
	assert.ErrorIs(t, s.Remove(ctx, FolderCars, "a/b"), ErrInvalidName)
	_, err = s.Save(ctx, "../up", "x", strings.NewReader(""))
	assert.ErrorIs(t, err, ErrInvalidName)
}

func TestStoredName_StripsDirectories(t *testing.T) {
	n := StoredName(`C:\docs\photo.jpg`)
	assert.True(t, strings.HasSuffix(n, "_photo.jpg"), n)
	assert.NotContains(t, n, `\`)

	n = StoredName("../../etc/passwd")
	assert.True(t, strings.HasSuffix(n, "_passwd"), n)
	assert.True(t, validName(n))

	assert.NotEqual(t, StoredName("a.txt"), StoredName("a.txt"))
}

func TestLocalStore_DotsInsideNameRoundTrip(t *testing.T) {
	s, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	name, err := s.Save(ctx, FolderCars, "report..v2.pdf", strings.NewReader("v2"))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(name, "_report..v2.pdf"), name)

	rc, err := s.Open(ctx, FolderCars, name)
	require.NoError(t, err)
	data, _ := io.ReadAll(rc)
	_ = rc.Close()
	assert.Equal(t, "v2", string(data))

	require.NoError(t, s.Remove(ctx, FolderCars, name))
	_, err = s.Open(ctx, FolderCars, name)
	assert.ErrorIs(t, err, ErrFileNotFound)
}

func TestValidName(t *testing.T) {
	for name, want := range map[string]bool{
		"abc_report..v2.pdf": true,
		"..hidden":           true,
		"a.b":                true,
		"":                   false,
		".":                  false,
		"..":                 false,
		"../x":               false,
		`a\b`:                false,
	} {
		assert.Equal(t, want, validName(name), name)
	}
}
