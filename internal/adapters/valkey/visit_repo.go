package valkey

import (
	"context"

	"github.com/valkey-io/valkey-go"

	"github.com/samirrijal/lgatracker/internal/core/domain"
)

// VisitRepo implements ports.VisitRepository as a JSON array stored under one Valkey key.
type VisitRepo struct {
	c   *Client
	key string
}

func NewVisitRepo(c *Client, key string) *VisitRepo {
	return &VisitRepo{c: c, key: key}
}

func (r *VisitRepo) Key() string { return r.key }

func (r *VisitRepo) Ping(ctx context.Context) error { return r.c.Ping(ctx) }

func (r *VisitRepo) Load(ctx context.Context) ([]int64, error) {
	data, err := r.c.Get(ctx, r.key)
	if valkey.IsValkeyNil(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return domain.DecodeVisitedIDs(data)
}

// Save overwrites the stored array. The key never expires.
func (r *VisitRepo) Save(ctx context.Context, ids []int64) error {
	data, err := domain.EncodeVisitedIDs(ids)
	if err != nil {
		return err
	}
	return r.c.Set(ctx, r.key, data, 0)
}
