package history

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, s.Close())
	})
	return s
}

func TestAppendAssignsIDAndTime(t *testing.T) {
	s := openStore(t)

	rec := &Record{Root: "/home/user/src", Planned: 3, Deleted: 3}
	require.NoError(t, s.Append(rec))

	assert.NotEmpty(t, rec.ID)
	assert.False(t, rec.StartedAt.IsZero())
}

func TestListNewestFirst(t *testing.T) {
	s := openStore(t)

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		require.NoError(t, s.Append(&Record{
			Root:      "/r",
			StartedAt: base.Add(time.Duration(i) * time.Hour),
			Planned:   i,
		}))
	}

	recs, err := s.List(0)
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, 2, recs[0].Planned)
	assert.Equal(t, 1, recs[1].Planned)
	assert.Equal(t, 0, recs[2].Planned)
}

func TestListHonorsLimit(t *testing.T) {
	s := openStore(t)

	for i := 0; i < 5; i++ {
		require.NoError(t, s.Append(&Record{Root: "/r"}))
	}

	recs, err := s.List(2)
	require.NoError(t, err)
	assert.Len(t, recs, 2)
}

func TestGetByIDAndPrefix(t *testing.T) {
	s := openStore(t)

	rec := &Record{Root: "/r", Deleted: 7}
	require.NoError(t, s.Append(rec))

	byFull, err := s.Get(rec.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, byFull.Deleted)

	byPrefix, err := s.Get(rec.ID[:8])
	require.NoError(t, err)
	assert.Equal(t, rec.ID, byPrefix.ID)
}

func TestGetMissing(t *testing.T) {
	s := openStore(t)

	_, err := s.Get("doesnotexist")
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = s.Get("")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestPrune(t *testing.T) {
	s := openStore(t)

	old := &Record{Root: "/r", StartedAt: time.Now().AddDate(0, 0, -120)}
	recent := &Record{Root: "/r", StartedAt: time.Now().Add(-time.Hour)}
	require.NoError(t, s.Append(old))
	require.NoError(t, s.Append(recent))

	dropped, err := s.Prune(90)
	require.NoError(t, err)
	assert.Equal(t, 1, dropped)

	recs, err := s.List(0)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, recent.ID, recs[0].ID)
}

func TestPruneDisabled(t *testing.T) {
	s := openStore(t)

	require.NoError(t, s.Append(&Record{Root: "/r", StartedAt: time.Now().AddDate(-1, 0, 0)}))

	dropped, err := s.Prune(0)
	require.NoError(t, err)
	assert.Zero(t, dropped)
}

func TestRecordsPersistAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "history.db")

	s, err := Open(path)
	require.NoError(t, err)
	rec := &Record{Root: "/r", BytesFreed: 4096, FailedPaths: []string{"/r/locked"}}
	require.NoError(t, s.Append(rec))
	require.NoError(t, s.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	defer func() {
		require.NoError(t, s2.Close())
	}()

	got, err := s2.Get(rec.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(4096), got.BytesFreed)
	assert.Equal(t, []string{"/r/locked"}, got.FailedPaths)
}
