package usecases_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/lgatracker/internal/core/domain"
	"github.com/samirrijal/lgatracker/internal/core/usecases"
)

func newTracker(t *testing.T, p *domain.RawPayload, repo *memoryRepo, pub *mockPublisher) *usecases.Tracker {
	t.Helper()
	registry := usecases.NewRegistryService(staticProvider(p), auLGAs, time.Second)
	visits := usecases.NewVisitService(repo)
	if pub == nil {
		return usecases.NewTracker(registry, visits, nil)
	}
	return usecases.NewTracker(registry, visits, pub)
}

func alphaBeta() *domain.RawPayload {
	return newPayload().square(1, "Alpha", -30, 150, 1).square(2, "Beta", -31, 150, 1).build()
}

func TestTracker_EndToEnd(t *testing.T) {
	ctx := context.Background()
	repo := &memoryRepo{}
	tr := newTracker(t, alphaBeta(), repo, nil)
	require.NoError(t, tr.Hydrate(ctx))

	assert.Equal(t, domain.ProgressStats{Total: 2, Visited: 0, Percentage: 0}, tr.Progress())

	change, err := tr.Toggle(ctx, 1)
	require.NoError(t, err)
	assert.True(t, change.Visited)
	assert.True(t, change.Persisted)
	assert.Equal(t, "Alpha", change.Name)
	assert.Equal(t, domain.ProgressStats{Total: 2, Visited: 1, Percentage: 50}, tr.Progress())
	assert.Equal(t, change.Stats, tr.Progress())
	assert.Equal(t, []int64{1}, repo.persisted())
	assert.Equal(t, domain.FillVisited, tr.StyleFor(1))
	assert.Equal(t, domain.FillUnvisited, tr.StyleFor(2))

	change, err = tr.Toggle(ctx, 1)
	require.NoError(t, err)
	assert.False(t, change.Visited)
	assert.Equal(t, domain.ProgressStats{Total: 2, Visited: 0, Percentage: 0}, tr.Progress())
	assert.Empty(t, repo.persisted())
}

func TestTracker_ToggleRequiresLoadedRegion(t *testing.T) {
	ctx := context.Background()
	tr := newTracker(t, alphaBeta(), &memoryRepo{}, nil)

	_, err := tr.Toggle(ctx, 1)
	assert.ErrorIs(t, err, domain.ErrRegistryUnavailable)

	require.NoError(t, tr.Reload(ctx))
	_, err = tr.Toggle(ctx, 99)
	assert.ErrorIs(t, err, domain.ErrRegionNotFound)
}

func TestTracker_WriteFailureReportedInChange(t *testing.T) {
	ctx := context.Background()
	repo := &memoryRepo{saveErr: errBoom}
	tr := newTracker(t, alphaBeta(), repo, nil)
	require.NoError(t, tr.Reload(ctx))

	change, err := tr.Toggle(ctx, 2)

	require.NoError(t, err)
	assert.True(t, change.Visited)
	assert.False(t, change.Persisted)
	assert.Equal(t, 1, tr.Progress().Visited)
}

func TestTracker_NotifiesSubscribers(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pub := &mockPublisher{}
	tr := newTracker(t, alphaBeta(), &memoryRepo{}, pub)
	events := tr.Subscribe(ctx, 4)

	require.NoError(t, tr.Reload(ctx))
	_, err := tr.Toggle(ctx, 2)
	require.NoError(t, err)

	ev := <-events
	require.Equal(t, usecases.EventRegistry, ev.Kind)
	assert.Equal(t, 2, ev.Registry.Regions)
	assert.Equal(t, uint64(1), ev.Registry.Generation)

	ev = <-events
	require.Equal(t, usecases.EventVisit, ev.Kind)
	assert.Equal(t, int64(2), ev.Visit.RegionID)
	assert.Equal(t, 1, ev.Visit.Stats.Visited)
	assert.NotEmpty(t, ev.Visit.EventID)

	assert.Len(t, pub.registry, 1)
	require.Len(t, pub.visits, 1)
	assert.Equal(t, ev.Visit.EventID, pub.visits[0].EventID)

	cancel()
	_, open := <-events
	for open {
		_, open = <-events
	}
}

func TestTracker_PublishFailureDoesNotFailToggle(t *testing.T) {
	ctx := context.Background()
	pub := &mockPublisher{err: errBoom}
	tr := newTracker(t, alphaBeta(), &memoryRepo{}, pub)
	require.NoError(t, tr.Reload(ctx))

	change, err := tr.Toggle(ctx, 1)

	require.NoError(t, err)
	assert.True(t, change.Persisted)
}

func TestTracker_HydrateLoadsVisits(t *testing.T) {
	ctx := context.Background()
	tr := newTracker(t, alphaBeta(), &memoryRepo{saved: []int64{2, 2}}, nil)

	require.NoError(t, tr.Hydrate(ctx))

	assert.Equal(t, domain.ProgressStats{Total: 2, Visited: 1, Percentage: 50}, tr.Progress())
	regions, err := tr.Regions()
	require.NoError(t, err)
	assert.Len(t, regions, 2)
}

func TestTracker_ProgressWhileUnloaded(t *testing.T) {
	tr := newTracker(t, alphaBeta(), &memoryRepo{saved: []int64{1}}, nil)
	tr.Visits().Load(context.Background())

	assert.Equal(t, domain.ProgressStats{Total: 0, Visited: 1, Percentage: 0}, tr.Progress())
	_, err := tr.Regions()
	assert.ErrorIs(t, err, domain.ErrRegistryUnavailable)
}

func TestTracker_ApplyRemoteAdoptsStoreAndNotifies(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	repo := &memoryRepo{}
	api := newTracker(t, alphaBeta(), repo, nil)
	require.NoError(t, api.Hydrate(ctx))
	events := api.Subscribe(ctx, 4)

	offline := newTracker(t, alphaBeta(), repo, nil)
	offline.Visits().Load(ctx)
	change, err := offline.ToggleUnchecked(ctx, 2)
	require.NoError(t, err)
	assert.Empty(t, change.Name)
	assert.Equal(t, 0, change.Stats.Total)

	require.True(t, api.ApplyRemote(ctx, &change))
	assert.True(t, api.Visits().IsVisited(2))

	ev := <-events
	require.Equal(t, usecases.EventVisit, ev.Kind)
	assert.Equal(t, "Beta", ev.Visit.Name)
	assert.Equal(t, domain.ProgressStats{Total: 2, Visited: 1, Percentage: 50}, ev.Visit.Stats)

	// The API's next toggle must not drop the offline change.
	_, err = api.Toggle(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, repo.persisted())
}

func TestTracker_ApplyRemoteIgnoresOwnChanges(t *testing.T) {
	ctx := context.Background()
	tr := newTracker(t, alphaBeta(), &memoryRepo{}, nil)
	require.NoError(t, tr.Reload(ctx))

	change, err := tr.Toggle(ctx, 1)
	require.NoError(t, err)

	assert.False(t, tr.ApplyRemote(ctx, &change))
}

func TestTracker_ToggleUncheckedAcceptsAnyID(t *testing.T) {
	ctx := context.Background()
	pub := &mockPublisher{}
	repo := &memoryRepo{}
	tr := newTracker(t, alphaBeta(), repo, pub)

	change, err := tr.ToggleUnchecked(ctx, 424242)

	require.NoError(t, err)
	assert.True(t, change.Visited)
	assert.NotEmpty(t, change.Source)
	assert.Equal(t, []int64{424242}, repo.persisted())
	require.Len(t, pub.visits, 1)
	assert.Equal(t, change.EventID, pub.visits[0].EventID)
}
