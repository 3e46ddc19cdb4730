package filestore_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/lgatracker/internal/adapters/filestore"
	"github.com/samirrijal/lgatracker/internal/core/usecases"
)

func TestVisitRepo_MissingFileIsEmpty(t *testing.T) {
	repo, err := filestore.NewVisitRepo(t.TempDir(), "visitedLGAs")
	require.NoError(t, err)

	ids, err := repo.Load(context.Background())

	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestVisitRepo_SaveOverwrites(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	repo, err := filestore.NewVisitRepo(dir, "visitedLGAs")
	require.NoError(t, err)

	require.NoError(t, repo.Save(ctx, []int64{5, 1, 5}))
	require.NoError(t, repo.Save(ctx, []int64{3}))

	raw, err := os.ReadFile(filepath.Join(dir, "visitedLGAs.json"))
	require.NoError(t, err)
	assert.JSONEq(t, `[3]`, string(raw))

	ids, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{3}, ids)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestVisitRepo_MalformedFile(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "visitedLGAs.json"), []byte(`{"1": true}`), 0o644))
	repo, err := filestore.NewVisitRepo(dir, "visitedLGAs")
	require.NoError(t, err)

	_, err = repo.Load(ctx)
	assert.Error(t, err)

	svc := usecases.NewVisitService(repo)
	svc.Load(ctx)
	assert.Zero(t, svc.Size())
}

func TestVisitRepo_RoundTripThroughService(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	repo, err := filestore.NewVisitRepo(dir, "visitedLGAs")
	require.NoError(t, err)

	svc := usecases.NewVisitService(repo)
	for _, id := range []int64{30, 10, 20} {
		_, err := svc.Toggle(ctx, id)
		require.NoError(t, err)
	}

	fresh := usecases.NewVisitService(repo)
	fresh.Load(ctx)
	assert.Equal(t, []int64{10, 20, 30}, fresh.IDs())
}

func TestVisitRepo_TwoServicesShareOneFile(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	cliRepo, err := filestore.NewVisitRepo(dir, "visitedLGAs")
	require.NoError(t, err)
	apiRepo, err := filestore.NewVisitRepo(dir, "visitedLGAs")
	require.NoError(t, err)

	api := usecases.NewVisitService(apiRepo)
	api.Load(ctx)
	cli := usecases.NewVisitService(cliRepo)
	cli.Load(ctx)

	_, err = cli.Toggle(ctx, 5)
	require.NoError(t, err)
	_, err = api.Toggle(ctx, 9)
	require.NoError(t, err)

	ids, err := apiRepo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{5, 9}, ids)
}
