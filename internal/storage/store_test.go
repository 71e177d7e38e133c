package storage

import (
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, afero.Fs) {
	fs := afero.NewMemMapFs()
	store, err := NewStore(fs, "csv_uploads", nil)
	require.NoError(t, err)
	return store, fs
}

func TestNewStore_CreatesDirectory(t *testing.T) {
	fs := afero.NewMemMapFs()

	_, err := NewStore(fs, "csv_uploads", nil)
	require.NoError(t, err)

	exists, err := afero.DirExists(fs, "csv_uploads")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestStore_Save(t *testing.T) {
	store, fs := newTestStore(t)

	path, err := store.Save("abc-123", []byte("a,b\n1,2\n"))
	require.NoError(t, err)

	assert.Equal(t, filepath.Join("csv_uploads", "abc-123.csv"), path)

	content, err := afero.ReadFile(fs, path)
	require.NoError(t, err)
	assert.Equal(t, "a,b\n1,2\n", string(content))
}

func TestStore_SaveOverwrites(t *testing.T) {
	store, fs := newTestStore(t)

	_, err := store.Save("abc", []byte("old"))
	require.NoError(t, err)
	path, err := store.Save("abc", []byte("new"))
	require.NoError(t, err)

	content, err := afero.ReadFile(fs, path)
	require.NoError(t, err)
	assert.Equal(t, "new", string(content))
}

func TestStore_Remove(t *testing.T) {
	store, _ := newTestStore(t)

	path, err := store.Save("abc", []byte("data"))
	require.NoError(t, err)
	assert.True(t, store.Exists(path))

	require.NoError(t, store.Remove(path))
	assert.False(t, store.Exists(path))
}

func TestStore_RemoveMissingFileIsNoError(t *testing.T) {
	store, _ := newTestStore(t)

	assert.NoError(t, store.Remove(filepath.Join("csv_uploads", "never-saved.csv")))
	assert.NoError(t, store.Remove(""))
}
