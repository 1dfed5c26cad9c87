package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorageSaveAndList(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "snapshots")
	store, err := NewLocalStorage(dir)
	require.NoError(t, err)

	path, err := store.Save("statistics_2025-09-02.csv", []byte("a,b\n"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "statistics_2025-09-02.csv"), path)

	_, err = store.Save("statistics_2025-09-01.csv", []byte("old"))
	require.NoError(t, err)
	_, err = store.Save("statistics_2025-09-02.csv", []byte("c,d\n"))
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "c,d\n", string(data))

	names, err := store.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"statistics_2025-09-01.csv", "statistics_2025-09-02.csv"}, names)
}

func TestLocalStorageRejectsPathNames(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	for _, name := range []string{"../escape.csv", "nested/file.csv", ".hidden", ""} {
		_, err := store.Save(name, []byte("x"))
		assert.Error(t, err, name)
	}
	_, err = NewLocalStorage("")
	assert.Error(t, err)
}

func TestLocalStoragePrune(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStorage(dir)
	require.NoError(t, err)

	oldPath, err := store.Save("old.csv", []byte("1"))
	require.NoError(t, err)
	_, err = store.Save("new.csv", []byte("2"))
	require.NoError(t, err)
	past := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(oldPath, past, past))

	removed, err := store.Prune(time.Now().Add(-24 * time.Hour))
	require.NoError(t, err)
	assert.Equal(t, []string{"old.csv"}, removed)

	names, err := store.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"new.csv"}, names)
}
