package workflows

import (
	"context"
	"fmt"
	"log/slog"

	"go.temporal.io/sdk/temporal"

	"github.com/samirrijal/lgatracker/internal/adapters/overpass"
	"github.com/samirrijal/lgatracker/internal/core/domain"
	"github.com/samirrijal/lgatracker/internal/core/ports"
	"github.com/samirrijal/lgatracker/internal/core/usecases"
)

// ErrTypeEmptySnapshot marks a payload that assembled into no regions.
const ErrTypeEmptySnapshot = "EmptySnapshot"

// RefreshActivities holds the activity implementations for the boundary refresh workflow.
type RefreshActivities struct {
	// Provider must bypass the cache.
	Provider  ports.BoundaryProvider
	Cache     ports.CacheService
	Announcer ports.RefreshAnnouncer
	CacheTTL  int
}

// RefreshBoundarySnapshot fetches boundaries, checks they assemble into at least one region
// and writes the raw payload to the cache.
func (a *RefreshActivities) RefreshBoundarySnapshot(ctx context.Context, filter domain.BoundaryFilter) (RefreshSummary, error) {
	payload, err := a.Provider.Fetch(ctx, filter)
	if err != nil {
		return RefreshSummary{}, fmt.Errorf("fetch boundaries: %w", err)
	}
	if payload == nil {
		return RefreshSummary{}, temporal.NewNonRetryableApplicationError("provider returned no payload", ErrTypeEmptySnapshot, nil)
	}

	result := usecases.Assemble(payload, filter)
	summary := RefreshSummary{
		Elements:    len(payload.Elements),
		Regions:     len(result.Regions),
		Excluded:    len(result.Excluded),
		DroppedWays: result.DroppedWays,
	}
	if summary.Regions == 0 {
		// Never overwrite a good snapshot with an empty one.
		return summary, temporal.NewNonRetryableApplicationError(
			fmt.Sprintf("no regions assembled from %d elements", summary.Elements), ErrTypeEmptySnapshot, nil)
	}

	if a.Cache != nil {
		if err := overpass.Store(ctx, a.Cache, filter, payload, a.CacheTTL); err != nil {
			return summary, fmt.Errorf("store snapshot: %w", err)
		}
		summary.Cached = true
	}
	slog.Info("boundary snapshot refreshed",
		"country", filter.Country, "regions", summary.Regions, "excluded", summary.Excluded, "cached", summary.Cached)
	return summary, nil
}

// AnnounceRefresh notifies running services that a fresh snapshot is available.
func (a *RefreshActivities) AnnounceRefresh(ctx context.Context, filter domain.BoundaryFilter) error {
	if a.Announcer == nil {
		slog.Info("no announcer configured, skipping refresh announcement")
		return nil
	}
	return a.Announcer.AnnounceRefresh(ctx, filter)
}
