package usecases_test

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/lgatracker/internal/core/domain"
	"github.com/samirrijal/lgatracker/internal/core/usecases"
)

func TestVisitService_DoubleToggleRestoresState(t *testing.T) {
	ctx := context.Background()
	repo := &memoryRepo{saved: []int64{3}}
	svc := usecases.NewVisitService(repo)
	svc.Load(ctx)

	for _, id := range []int64{1, 3, 42} {
		before := svc.IDs()
		_, err := svc.Toggle(ctx, id)
		require.NoError(t, err)
		_, err = svc.Toggle(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, before, svc.IDs())
		assert.Equal(t, before, repo.persisted())
	}
}

func TestVisitService_VisitedCountMatchesOddToggles(t *testing.T) {
	ctx := context.Background()
	svc := usecases.NewVisitService(&memoryRepo{})
	rng := rand.New(rand.NewSource(7))

	counts := map[int64]int{}
	for i := 0; i < 500; i++ {
		id := int64(rng.Intn(25) + 1)
		counts[id]++
		_, err := svc.Toggle(ctx, id)
		require.NoError(t, err)
	}

	odd := 0
	for id, n := range counts {
		if n%2 == 1 {
			odd++
			assert.True(t, svc.IsVisited(id))
		} else {
			assert.False(t, svc.IsVisited(id))
		}
	}
	assert.Equal(t, odd, svc.Size())
}

func TestVisitService_SaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := &memoryRepo{}
	svc := usecases.NewVisitService(repo)
	for _, id := range []int64{9, 4, 17} {
		_, err := svc.Toggle(ctx, id)
		require.NoError(t, err)
	}
	require.NoError(t, svc.Save(ctx))

	fresh := usecases.NewVisitService(repo)
	fresh.Load(ctx)

	assert.Equal(t, []int64{4, 9, 17}, fresh.IDs())
}

func TestVisitService_WriteFailureKeepsToggle(t *testing.T) {
	ctx := context.Background()
	repo := &memoryRepo{saveErr: errBoom}
	svc := usecases.NewVisitService(repo)

	visited, err := svc.Toggle(ctx, 5)

	assert.True(t, visited)
	var werr *domain.PersistenceWriteError
	require.ErrorAs(t, err, &werr)
	assert.Equal(t, "visitedLGAs", werr.Key)
	assert.ErrorIs(t, err, errBoom)
	assert.True(t, svc.IsVisited(5))
	assert.Equal(t, 1, repo.saves)
}

func TestVisitService_UnreadableSnapshotStartsEmpty(t *testing.T) {
	ctx := context.Background()
	svc := usecases.NewVisitService(&memoryRepo{loadErr: errBoom})

	assert.NotPanics(t, func() { svc.Load(ctx) })
	assert.Zero(t, svc.Size())
}

func TestVisitService_LoadDeduplicates(t *testing.T) {
	ctx := context.Background()
	svc := usecases.NewVisitService(&memoryRepo{saved: []int64{5, 2, 5, 2, 8}})

	svc.Load(ctx)

	assert.Equal(t, []int64{2, 5, 8}, svc.IDs())
	assert.Equal(t, 3, svc.Size())
}

func TestVisitService_ToggleSavesExactSet(t *testing.T) {
	ctx := context.Background()
	repo := &memoryRepo{}
	svc := usecases.NewVisitService(repo)

	_, _ = svc.Toggle(ctx, 2)
	_, _ = svc.Toggle(ctx, 1)
	assert.Equal(t, []int64{1, 2}, repo.persisted())

	_, _ = svc.Toggle(ctx, 2)
	assert.Equal(t, []int64{1}, repo.persisted())
	assert.Equal(t, 3, repo.saves)
}

func TestVisitService_ToggleKeepsOtherWritersChanges(t *testing.T) {
	ctx := context.Background()
	repo := &memoryRepo{}
	cliSide := usecases.NewVisitService(repo)
	apiSide := usecases.NewVisitService(repo)
	cliSide.Load(ctx)
	apiSide.Load(ctx)

	_, err := cliSide.Toggle(ctx, 5)
	require.NoError(t, err)
	_, err = apiSide.Toggle(ctx, 9)
	require.NoError(t, err)

	assert.Equal(t, []int64{5, 9}, repo.persisted())
	assert.Equal(t, []int64{5, 9}, apiSide.IDs())
}

func TestVisitService_RefreshSkipsUnsavedChanges(t *testing.T) {
	ctx := context.Background()
	repo := &memoryRepo{saveErr: errBoom}
	svc := usecases.NewVisitService(repo)

	_, err := svc.Toggle(ctx, 4)
	require.Error(t, err)

	repo.mu.Lock()
	repo.saveErr = nil
	repo.saved = []int64{7}
	repo.mu.Unlock()

	assert.False(t, svc.Refresh(ctx))
	assert.Equal(t, []int64{4}, svc.IDs())

	require.NoError(t, svc.Save(ctx))
	repo.mu.Lock()
	repo.saved = []int64{4, 7}
	repo.mu.Unlock()

	assert.True(t, svc.Refresh(ctx))
	assert.Equal(t, []int64{4, 7}, svc.IDs())
	assert.False(t, svc.Refresh(ctx))
}
