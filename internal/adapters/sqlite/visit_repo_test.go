package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/lgatracker/internal/adapters/sqlite"
)

func openRepo(t *testing.T, path, key string) *sqlite.VisitRepo {
	t.Helper()
	repo, err := sqlite.Open(context.Background(), path, key)
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestVisitRepo_EmptyDatabase(t *testing.T) {
	repo := openRepo(t, filepath.Join(t.TempDir(), "visits.db"), "visitedLGAs")

	ids, err := repo.Load(context.Background())

	require.NoError(t, err)
	assert.Empty(t, ids)
	assert.NoError(t, repo.Ping(context.Background()))
}

func TestVisitRepo_SaveReplacesSnapshot(t *testing.T) {
	ctx := context.Background()
	repo := openRepo(t, filepath.Join(t.TempDir(), "visits.db"), "visitedLGAs")

	require.NoError(t, repo.Save(ctx, []int64{7, 3, 7, 11}))
	ids, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 7, 11}, ids)

	require.NoError(t, repo.Save(ctx, []int64{11}))
	ids, err = repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{11}, ids)

	require.NoError(t, repo.Save(ctx, nil))
	ids, err = repo.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestVisitRepo_KeysAreIsolated(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "visits.db")
	a := openRepo(t, path, "alice")
	require.NoError(t, a.Save(ctx, []int64{1, 2}))
	require.NoError(t, a.Close())

	b := openRepo(t, path, "bob")
	require.NoError(t, b.Save(ctx, []int64{9}))
	require.NoError(t, b.Close())

	reopened := openRepo(t, path, "alice")
	ids, err := reopened.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, ids)
}
