package database

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ilylbgg/cdi-logger/attendance"
)

var fixedNow = func() time.Time {
	return time.Date(2026, 10, 17, 9, 30, 0, 0, time.UTC)
}

// setupTestStore opens an initialized store in a temporary directory.
func setupTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(Options{
		Dir:    t.TempDir(),
		Base:   "test_stats.db",
		Now:    fixedNow,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		store.Close()
	})
	require.NoError(t, store.Initialize())
	return store
}

func TestInitializeCreatesTable(t *testing.T) {
	store := setupTestStore(t)

	var tableName string
	err := store.GetDB().Get(&tableName, "SELECT name FROM sqlite_master WHERE type='table' AND name='attendance'")
	require.NoError(t, err)
	assert.Equal(t, "attendance", tableName)

	// A second call must not fail or drop data.
	_, err = store.Append(attendance.Entry{Slot: "09:00", Date: "2024-03-11", Grade6: 1})
	require.NoError(t, err)
	require.NoError(t, store.Initialize())

	records, err := store.ReadAll()
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestAppendThenReadAll(t *testing.T) {
	store := setupTestStore(t)

	counts := [][4]int{{0, 0, 0, 0}, {2, 3, 1, 0}, {0, 0, 0, 4}, {17, 5, 9, 12}}
	for i, c := range counts {
		before, err := store.ReadAll()
		require.NoError(t, err)

		id, err := store.Append(attendance.Entry{
			Slot:   "10:00",
			Date:   "2024-03-12",
			Grade6: c[0],
			Grade5: c[1],
			Grade4: c[2],
			Grade3: c[3],
		})
		require.NoError(t, err)
		assert.Equal(t, i+1, id)

		after, err := store.ReadAll()
		require.NoError(t, err)
		require.Len(t, after, len(before)+1)

		got := after[len(after)-1]
		assert.Equal(t, attendance.Record{
			ID:     id,
			Slot:   "10:00",
			Grade6: c[0],
			Grade5: c[1],
			Grade4: c[2],
			Grade3: c[3],
			Total:  c[0] + c[1] + c[2] + c[3],
			Date:   "2024-03-12",
		}, got)
	}

	latest, err := store.LatestID()
	require.NoError(t, err)
	assert.Equal(t, len(counts), latest)
}

func TestReadAllEmptyAndIdempotent(t *testing.T) {
	store := setupTestStore(t)

	records, err := store.ReadAll()
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)

	_, err = store.Append(attendance.Entry{Slot: "08:00", Date: "2024-03-11", Grade5: 2})
	require.NoError(t, err)
	_, err = store.Append(attendance.Entry{Slot: "14:00", Date: "2024-03-10", Grade3: 1})
	require.NoError(t, err)

	first, err := store.ReadAll()
	require.NoError(t, err)
	second, err := store.ReadAll()
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Len(t, second, 2)
}

func TestAppendRejectsInvalidEntry(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.Append(attendance.Entry{Slot: "12:00", Date: "2024-03-11"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, attendance.ErrInvalidRecord))
	assert.False(t, errors.Is(err, ErrStorageUnavailable))

	records, err := store.ReadAll()
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestIdsAreNeverReused(t *testing.T) {
	store := setupTestStore(t)

	id1, err := store.Append(attendance.Entry{Slot: "09:00", Date: "2024-03-11"})
	require.NoError(t, err)

	// Rows removed behind the store's back must not free their id.
	_, err = store.GetDB().Exec("DELETE FROM attendance WHERE id = $1", id1)
	require.NoError(t, err)

	id2, err := store.Append(attendance.Entry{Slot: "09:00", Date: "2024-03-11"})
	require.NoError(t, err)
	assert.Greater(t, id2, id1)
}

func TestResolvePath(t *testing.T) {
	dir := t.TempDir()

	path, err := ResolvePath(dir, "cdi_stats.db", fixedNow())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "cdi_stats-2026.db"), path)

	path, err = ResolvePath(dir, "", fixedNow())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "cdi_stats-2026.db"), path)

	existing := filepath.Join(dir, "cdi_stats.db")
	require.NoError(t, os.WriteFile(existing, nil, 0644))
	path, err = ResolvePath(dir, "cdi_stats.db", fixedNow())
	require.NoError(t, err)
	assert.Equal(t, existing, path)
}

func TestOpenCreatesYearlyFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	store, err := Open(Options{Dir: dir, Base: "cdi_stats.db", Now: fixedNow, Logger: logger})
	require.NoError(t, err)
	require.NoError(t, store.Initialize())
	_, err = store.Append(attendance.Entry{Slot: "09:00", Date: "2026-10-16", Grade6: 3})
	require.NoError(t, err)
	require.NoError(t, store.Close())

	expected := filepath.Join(dir, "cdi_stats-2026.db")
	assert.Equal(t, expected, store.Path())
	assert.FileExists(t, expected)

	// Reopening in the same year finds the same yearly file.
	reopened, err := Open(Options{Dir: dir, Base: "cdi_stats.db", Now: fixedNow, Logger: logger})
	require.NoError(t, err)
	defer reopened.Close()
	require.NoError(t, reopened.Initialize())
	records, err := reopened.ReadAll()
	require.NoError(t, err)
	assert.Len(t, records, 1)

	// The next year rolls over to a new file.
	nextYear := func() time.Time { return fixedNow().AddDate(1, 0, 0) }
	path, err := ResolvePath(dir, "cdi_stats.db", nextYear())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "cdi_stats-2027.db"), path)
}

func TestOpenUnwritableLocation(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("not a directory"), 0644))

	_, err := Open(Options{
		Dir:    filepath.Join(blocker, "data"),
		Now:    fixedNow,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrStorageUnavailable))

	var serr *StorageError
	require.True(t, errors.As(err, &serr))
	assert.Contains(t, serr.Path, blocker)
}
