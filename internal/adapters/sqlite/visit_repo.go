package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS visited_regions (
	store_key  TEXT    NOT NULL,
	region_id  INTEGER NOT NULL,
	visited_at TEXT    NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now')),
	PRIMARY KEY (store_key, region_id)
);`

// VisitRepo implements ports.VisitRepository on a single-file SQLite database.
type VisitRepo struct {
	db  *sql.DB
	key string
}

// Open opens (or creates) the database at path and ensures the schema.
func Open(ctx context.Context, path, key string) (*VisitRepo, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// SQLite allows one writer; keep a single connection for the process.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply %q: %w", pragma, err)
		}
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &VisitRepo{db: db, key: key}, nil
}

func (r *VisitRepo) Key() string { return r.key }

func (r *VisitRepo) Load(ctx context.Context) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT region_id FROM visited_regions WHERE store_key = ? ORDER BY region_id`, r.key)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Save replaces every row for the key in one transaction.
func (r *VisitRepo) Save(ctx context.Context, ids []int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM visited_regions WHERE store_key = ?`, r.key); err != nil {
		return fmt.Errorf("clear: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR IGNORE INTO visited_regions (store_key, region_id) VALUES (?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, id := range ids {
		if _, err := stmt.ExecContext(ctx, r.key, id); err != nil {
			return fmt.Errorf("insert %d: %w", id, err)
		}
	}
	return tx.Commit()
}

// Ping checks the database connection.
func (r *VisitRepo) Ping(ctx context.Context) error { return r.db.PingContext(ctx) }

func (r *VisitRepo) Close() error { return r.db.Close() }
