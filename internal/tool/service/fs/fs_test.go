package fs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "note.txt")
	fsys := NewOSFileSystem()

	require.NoError(t, fsys.WriteFileAtomic(path, []byte("first"), 0o644))
	require.NoError(t, fsys.WriteFileAtomic(path, []byte("second"), 0o644))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file must not be left behind")
}

func TestWriteFileAtomic_MissingDir(t *testing.T) {
	err := NewOSFileSystem().WriteFileAtomic(filepath.Join(t.TempDir(), "nope", "x.txt"), []byte("x"), 0o644)

	var tmpErr *TempFileError
	assert.ErrorAs(t, err, &tmpErr)
}

func TestAppendFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.txt")
	fsys := NewOSFileSystem()

	require.NoError(t, fsys.AppendFile(path, []byte("a"), 0o644))
	require.NoError(t, fsys.AppendFile(path, []byte("b"), 0o644))

	data, err := fsys.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "ab", string(data))
}

func TestReadFileLimited(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f.txt")
	require.NoError(t, os.WriteFile(path, []byte("0123456789"), 0o644))
	fsys := NewOSFileSystem()

	data, err := fsys.ReadFileLimited(path, 10)
	require.NoError(t, err)
	assert.Equal(t, "0123456789", string(data))

	_, err = fsys.ReadFileLimited(path, 9)
	assert.ErrorIs(t, err, ErrTooLarge)

	_, err = fsys.ReadFileLimited(filepath.Join(t.TempDir(), "missing"), 10)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
