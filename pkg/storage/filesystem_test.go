package storage

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLocalStorageSaveOpenDelete(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	rel, err := store.Save("exports/rekap.csv", []byte("NIS,Nama\n"))
	require.NoError(t, err)
	require.Equal(t, "exports/rekap.csv", rel)

	file, err := store.Open(rel)
	require.NoError(t, err)
	require.NoError(t, file.Close())

	require.NoError(t, store.Delete(rel))
	_, err = store.Open(rel)
	require.Error(t, err)

	// Deleting again is harmless.
	require.NoError(t, store.Delete(rel))
}

func TestCleanupOlderThanKeepsRecentFiles(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	old, err := store.Save("rekap-lama.csv", []byte("old"))
	require.NoError(t, err)
	fresh, err := store.Save("rekap-baru.csv", []byte("fresh"))
	require.NoError(t, err)

	past := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(store.Path(old), past, past))

	deleted, err := store.CleanupOlderThan(24 * time.Hour)
	require.NoError(t, err)
	require.Equal(t, []string{"rekap-lama.csv"}, deleted)

	_, err = store.Open(old)
	require.Error(t, err)
	file, err := store.Open(fresh)
	require.NoError(t, err)
	require.NoError(t, file.Close())
}
