package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/samirrijal/lgatracker/internal/core/domain"
)

// WorkflowID is the fixed id of the scheduled refresh, so only one runs at a time.
const WorkflowID = "lga-boundary-refresh"

// RefreshInput selects the boundaries to refresh.
type RefreshInput struct {
	Filter domain.BoundaryFilter
}

// RefreshSummary describes one assembled snapshot.
type RefreshSummary struct {
	Elements    int
	Regions     int
	Excluded    int
	DroppedWays int
	Cached      bool
}

// BoundaryRefreshWorkflow fetches and validates a fresh boundary snapshot, stores it in the
// shared cache and announces it so API instances reload their registries.
func BoundaryRefreshWorkflow(ctx workflow.Context, input RefreshInput) (RefreshSummary, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting boundary refresh", "country", input.Filter.Country, "adminLevel", input.Filter.AdminLevel)

	// Overpass queries for a whole country are slow and rate limited.
	fetchCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 5 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:        30 * time.Second,
			BackoffCoefficient:     2,
			MaximumAttempts:        3,
			NonRetryableErrorTypes: []string{ErrTypeEmptySnapshot},
		},
	})
	var summary RefreshSummary
	if err := workflow.ExecuteActivity(fetchCtx, "RefreshBoundarySnapshot", input.Filter).Get(ctx, &summary); err != nil {
		return summary, err
	}

	announceCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy:         &temporal.RetryPolicy{MaximumAttempts: 3},
	})
	if err := workflow.ExecuteActivity(announceCtx, "AnnounceRefresh", input.Filter).Get(ctx, nil); err != nil {
		// The snapshot is cached; instances pick it up on their next reload.
		logger.Warn("refresh announcement failed", "error", err)
	}

	logger.Info("Boundary refresh complete", "regions", summary.Regions, "excluded", summary.Excluded)
	return summary, nil
}
