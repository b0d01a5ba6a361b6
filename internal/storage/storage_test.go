package storage_test

import (
	"errors"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sketchpad/internal/domain"
	"sketchpad/internal/storage"
)

func openSQLite(t *testing.T) *storage.DB {
	t.Helper()
	db, err := storage.New(filepath.Join(t.TempDir(), "nested", "sketch.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func openBadger(t *testing.T) *storage.BadgerStore {
	t.Helper()
	s, err := storage.OpenBadger(storage.BadgerConfig{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// exerciseKV runs the same contract against every KVStore backend.
func exerciseKV(t *testing.T, kv domain.KVStore) {
	t.Helper()

	_, ok, err := kv.Get("missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, kv.Set("a", "1"))
	v, ok, err := kv.Get("a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "1", v)

	require.NoError(t, kv.Set("a", "2"))
	v, _, _ = kv.Get("a")
	assert.Equal(t, "2", v)

	require.NoError(t, kv.Set("empty", ""))
	v, ok, err = kv.Get("empty")
	require.NoError(t, err)
	assert.True(t, ok, "an empty value is still present")
	assert.Equal(t, "", v)
}

func TestSettingsStore_KV(t *testing.T) {
	exerciseKV(t, storage.NewSettingsStore(openSQLite(t)))
}

func TestBadgerStore_KV(t *testing.T) {
	exerciseKV(t, openBadger(t))
}

func TestSettingsStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sketch.db")
	db, err := storage.New(path)
	require.NoError(t, err)
	require.NoError(t, storage.NewSettingsStore(db).Set("k", "v"))
	require.NoError(t, db.Close())

	db, err = storage.New(path)
	require.NoError(t, err)
	defer db.Close()
	v, ok, err := storage.NewSettingsStore(db).Get("k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", v)
}

func TestBadgerStore_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	s, err := storage.OpenBadger(storage.DefaultBadgerConfig(dir))
	require.NoError(t, err)
	require.NoError(t, s.Set("k", "v"))
	require.NoError(t, s.Close())

	s, err = storage.OpenBadger(storage.DefaultBadgerConfig(dir))
	require.NoError(t, err)
	defer s.Close()
	v, ok, err := s.Get("k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", v)
}

func TestOpenBadger_RequiresPath(t *testing.T) {
	_, err := storage.OpenBadger(storage.BadgerConfig{})
	assert.Error(t, err)
}

func TestBadgerStore_RunGCInMemory(t *testing.T) {
	rounds, err := openBadger(t).RunGC()
	require.NoError(t, err)
	assert.Zero(t, rounds)
}

type fakeCollector struct {
	calls atomic.Int32
	err   error
}

func (f *fakeCollector) RunGC() (int, error) {
	f.calls.Add(1)
	return 1, f.err
}

func TestMaintenance_RunOnce(t *testing.T) {
	c := &fakeCollector{err: errors.New("disk on fire")}
	m, err := storage.NewMaintenance(c, "", nil)
	require.NoError(t, err)
	m.RunOnce()
	assert.EqualValues(t, 1, c.calls.Load())

	m.Start()
	m.Stop()
}

func TestMaintenance_InvalidSchedule(t *testing.T) {
	_, err := storage.NewMaintenance(&fakeCollector{}, "not a schedule", nil)
	assert.Error(t, err)
}
