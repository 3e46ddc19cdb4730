package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// VisitRepo implements ports.VisitRepository on the visited_regions table.
type VisitRepo struct {
	db  *DB
	key string
}

func NewVisitRepo(db *DB, key string) *VisitRepo {
	return &VisitRepo{db: db, key: key}
}

func (r *VisitRepo) Key() string { return r.key }

func (r *VisitRepo) Ping(ctx context.Context) error { return r.db.Ping(ctx) }

func (r *VisitRepo) Load(ctx context.Context) ([]int64, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT region_id FROM visited_regions
		WHERE store_key = $1
		ORDER BY region_id
	`, r.key)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[int64])
}

// Save replaces the stored set inside one transaction.
func (r *VisitRepo) Save(ctx context.Context, ids []int64) error {
	return pgx.BeginFunc(ctx, r.db.Pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM visited_regions WHERE store_key = $1`, r.key); err != nil {
			return fmt.Errorf("clear: %w", err)
		}
		if len(ids) == 0 {
			return nil
		}

		batch := &pgx.Batch{}
		for _, id := range ids {
			batch.Queue(`
				INSERT INTO visited_regions (store_key, region_id)
				VALUES ($1, $2)
				ON CONFLICT (store_key, region_id) DO NOTHING
			`, r.key, id)
		}
		br := tx.SendBatch(ctx, batch)
		defer br.Close()
		for range ids {
			if _, err := br.Exec(); err != nil {
				return fmt.Errorf("batch exec: %w", err)
			}
		}
		return nil
	})
}
