package metadatastore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/btvault/bt/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	store, err := Open(dir + "/meta.db")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestCreateDirectory(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	t.Run("creates a fresh directory", func(t *testing.T) {
		dir, err := store.CreateDirectory(ctx, "/home/alice/docs")
		require.NoError(t, err)
		assert.Equal(t, "/home/alice/docs", dir.Path)
		assert.NotEmpty(t, dir.ID)
	})

	t.Run("rejects a duplicate path", func(t *testing.T) {
		_, err := store.CreateDirectory(ctx, "/home/alice/photos")
		require.NoError(t, err)

		_, err = store.CreateDirectory(ctx, "/home/alice/photos")
		require.ErrorIs(t, err, ErrDirectoryExists)
	})

	t.Run("consolidates a previously tracked child directory", func(t *testing.T) {
		child, err := store.CreateDirectory(ctx, "/home/bob/projects/app")
		require.NoError(t, err)

		file, err := store.FindOrCreateFile(ctx, child.ID, "main.go")
		require.NoError(t, err)

		parent, err := store.CreateDirectory(ctx, "/home/bob/projects")
		require.NoError(t, err)

		_, err = store.FindDirectoryByPath(ctx, "/home/bob/projects/app")
		require.ErrorIs(t, err, ErrDirectoryNotFound)

		got, err := store.GetFile(ctx, file.ID)
		require.NoError(t, err)
		assert.Equal(t, parent.ID, got.DirectoryID)
		assert.Equal(t, "app/main.go", got.Name)
	})
}

func TestSearchDirectoryForPath(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.CreateDirectory(ctx, "/srv/data")
	require.NoError(t, err)

	t.Run("matches the tracked directory itself", func(t *testing.T) {
		dir, err := store.SearchDirectoryForPath(ctx, "/srv/data")
		require.NoError(t, err)
		assert.Equal(t, "/srv/data", dir.Path)
	})

	t.Run("matches a descendant path", func(t *testing.T) {
		dir, err := store.SearchDirectoryForPath(ctx, "/srv/data/nested/file.txt")
		require.NoError(t, err)
		assert.Equal(t, "/srv/data", dir.Path)
	})

	t.Run("rejects an untracked path", func(t *testing.T) {
		_, err := store.SearchDirectoryForPath(ctx, "/srv/other")
		require.ErrorIs(t, err, ErrNotTracked)
	})
}

func TestFindOrCreateFile(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	dir, err := store.CreateDirectory(ctx, "/data")
	require.NoError(t, err)

	first, err := store.FindOrCreateFile(ctx, dir.ID, "notes.txt")
	require.NoError(t, err)

	second, err := store.FindOrCreateFile(ctx, dir.ID, "notes.txt")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
}

func TestAppendSnapshotAndLatest(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	dir, err := store.CreateDirectory(ctx, "/data")
	require.NoError(t, err)
	file, err := store.FindOrCreateFile(ctx, dir.ID, "report.csv")
	require.NoError(t, err)

	content, err := store.GetOrCreateContent(ctx, "deadbeef", time.Now())
	require.NoError(t, err)

	stats := model.FileStats{Size: 1024, Mode: 0644, ModifiedAt: time.Now()}
	snap, err := store.AppendSnapshot(ctx, file.ID, content.ID, stats)
	require.NoError(t, err)

	latest, err := store.LatestSnapshot(ctx, file.ID)
	require.NoError(t, err)
	assert.Equal(t, snap.ID, latest.ID)
	assert.Equal(t, content.ID, latest.ContentID)

	t.Run("reuses existing content row", func(t *testing.T) {
		again, err := store.GetOrCreateContent(ctx, "deadbeef", time.Now())
		require.NoError(t, err)
		assert.Equal(t, content.ID, again.ID)
	})

	t.Run("no current snapshot yet for a fresh file", func(t *testing.T) {
		other, err := store.FindOrCreateFile(ctx, dir.ID, "empty.txt")
		require.NoError(t, err)
		_, err = store.LatestSnapshot(ctx, other.ID)
		require.ErrorIs(t, err, ErrSnapshotNotFound)
	})
}

func TestListSnapshots(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	dir, err := store.CreateDirectory(ctx, "/data")
	require.NoError(t, err)
	file, err := store.FindOrCreateFile(ctx, dir.ID, "log.txt")
	require.NoError(t, err)

	c1, err := store.GetOrCreateContent(ctx, "digest-1", time.Now())
	require.NoError(t, err)
	c2, err := store.GetOrCreateContent(ctx, "digest-2", time.Now())
	require.NoError(t, err)

	_, err = store.AppendSnapshot(ctx, file.ID, c1.ID, model.FileStats{Size: 10})
	require.NoError(t, err)
	_, err = store.AppendSnapshot(ctx, file.ID, c2.ID, model.FileStats{Size: 20})
	require.NoError(t, err)

	snaps, err := store.ListSnapshots(ctx, file.ID)
	require.NoError(t, err)
	require.Len(t, snaps, 2)

	found, err := store.FindSnapshotByDigest(ctx, file.ID, c1.ID)
	require.NoError(t, err)
	assert.Equal(t, c1.ID, found.ContentID)
}

func TestMarkFileDeleted(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	dir, err := store.CreateDirectory(ctx, "/data")
	require.NoError(t, err)
	file, err := store.FindOrCreateFile(ctx, dir.ID, "gone.txt")
	require.NoError(t, err)

	require.NoError(t, store.MarkFileDeleted(ctx, file.ID, true))

	got, err := store.GetFile(ctx, file.ID)
	require.NoError(t, err)
	assert.True(t, got.Deleted)
}
