package ports

import (
	"context"
)

// VisitRepository persists the visited-region set under a fixed storage key.
// Save must fully overwrite the previous snapshot.
type VisitRepository interface {
	Load(ctx context.Context) ([]int64, error)
	Save(ctx context.Context, ids []int64) error
	// Key identifies the snapshot in the underlying store.
	Key() string
}
