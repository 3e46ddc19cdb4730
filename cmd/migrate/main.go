package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/lgatracker/internal/adapters/postgres"
	"github.com/samirrijal/lgatracker/internal/pkg/config"
	"github.com/samirrijal/lgatracker/migrations"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: migrate <up|status>")
	}

	cfg, err := config.Load("lgatracker-migrate")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()
	db, err := postgres.New(ctx, cfg.Database.DSN(), 1)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	all, err := migrations.All()
	if err != nil {
		log.Fatalf("load migrations: %v", err)
	}

	switch os.Args[1] {
	case "up":
		runMigrations(ctx, db, all)
	case "status":
		applied := appliedSet(ctx, db)
		for _, m := range all {
			state := "pending"
			if applied[m.Name] {
				state = "applied"
			}
			fmt.Printf("%-8s %s\n", state, m.Name)
		}
	default:
		log.Fatalf("unknown command: %s", os.Args[1])
	}
}

func runMigrations(ctx context.Context, db *postgres.DB, all []migrations.Migration) {
	applied := appliedSet(ctx, db)
	for _, m := range all {
		if applied[m.Name] {
			fmt.Printf("SKIP %s\n", m.Name)
			continue
		}

		err := pgx.BeginFunc(ctx, db.Pool, func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, m.SQL); err != nil {
				return err
			}
			_, err := tx.Exec(ctx,
				`INSERT INTO schema_migrations (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`, m.Name)
			return err
		})
		if err != nil {
			log.Fatalf("exec %s: %v", m.Name, err)
		}
		fmt.Printf("OK   %s\n", m.Name)
	}

	log.Println("all migrations applied")
}

func appliedSet(ctx context.Context, db *postgres.DB) map[string]bool {
	rows, err := db.Pool.Query(ctx, `SELECT name FROM schema_migrations`)
	if err != nil {
		// Fresh database: nothing applied yet.
		return map[string]bool{}
	}
	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		log.Fatalf("read schema_migrations: %v", err)
	}
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set
}
