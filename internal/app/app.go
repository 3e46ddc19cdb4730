// Package app wires configuration to adapters and builds the tracker.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/samirrijal/lgatracker/internal/adapters/filestore"
	natsadapter "github.com/samirrijal/lgatracker/internal/adapters/nats"
	"github.com/samirrijal/lgatracker/internal/adapters/overpass"
	"github.com/samirrijal/lgatracker/internal/adapters/postgres"
	"github.com/samirrijal/lgatracker/internal/adapters/sqlite"
	"github.com/samirrijal/lgatracker/internal/adapters/valkey"
	"github.com/samirrijal/lgatracker/internal/core/ports"
	"github.com/samirrijal/lgatracker/internal/core/usecases"
	"github.com/samirrijal/lgatracker/internal/pkg/config"
)

// CachePrefix namespaces every Valkey key written by this service.
const CachePrefix = "lgatracker:"

// Pinger is implemented by backends that support health checks.
type Pinger interface {
	Ping(ctx context.Context) error
}

// App holds the wired tracker and the resources it owns.
type App struct {
	Config    *config.Config
	Tracker   *usecases.Tracker
	Store     ports.VisitRepository
	Cache     *valkey.Client
	Publisher *natsadapter.Publisher

	closers []func()
}

// Build connects every configured backend and wires a Tracker. Optional backends
// (Valkey cache, NATS) that cannot be reached are logged and skipped; the configured
// visit store is required.
func Build(ctx context.Context, cfg *config.Config, service string) (*App, error) {
	a := &App{Config: cfg}

	if cfg.Valkey.Addr != "" {
		cache, err := valkey.New(cfg.Valkey.Addr, CachePrefix)
		if err != nil {
			if cfg.Store.Driver == config.StoreValkey {
				return nil, err
			}
			slog.Warn("valkey unavailable, boundary cache disabled", "error", err)
		} else {
			a.Cache = cache
			a.closers = append(a.closers, cache.Close)
		}
	}

	store, closeStore, err := OpenStore(ctx, cfg, a.Cache)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Store = store
	if closeStore != nil {
		a.closers = append(a.closers, closeStore)
	}

	var publisher ports.EventPublisher
	if cfg.NATS.Enabled {
		p, err := natsadapter.NewPublisher(cfg.NATS.URL, service)
		if err != nil {
			slog.Warn("nats unavailable, events stay in-process", "error", err)
		} else {
			a.Publisher = p
			a.closers = append(a.closers, p.Close)
			publisher = p
		}
	}

	registry := usecases.NewRegistryService(Provider(cfg, a.Cache), cfg.Boundary.Filter(), cfg.Boundary.TimeoutDuration())
	a.Tracker = usecases.NewTracker(registry, usecases.NewVisitService(store), publisher)
	return a, nil
}

// OpenStore opens the visit repository selected by store.driver. The returned close
// function may be nil.
func OpenStore(ctx context.Context, cfg *config.Config, cache *valkey.Client) (ports.VisitRepository, func(), error) {
	switch cfg.Store.Driver {
	case config.StoreFile:
		repo, err := filestore.NewVisitRepo(cfg.Store.Path, cfg.Store.Key)
		return repo, nil, err
	case config.StoreSQLite:
		repo, err := sqlite.Open(ctx, filepath.Join(cfg.Store.Path, "lgatracker.db"), cfg.Store.Key)
		if err != nil {
			return nil, nil, err
		}
		return repo, func() { _ = repo.Close() }, nil
	case config.StorePostgres:
		db, err := postgres.New(ctx, cfg.Database.DSN(), cfg.Database.MaxConns)
		if err != nil {
			return nil, nil, fmt.Errorf("database: %w", err)
		}
		return postgres.NewVisitRepo(db, cfg.Store.Key), db.Close, nil
	case config.StoreValkey:
		if cache == nil {
			return nil, nil, fmt.Errorf("valkey store requires valkey.addr")
		}
		return valkey.NewVisitRepo(cache, cfg.Store.Key), nil, nil
	}
	return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
}

// Provider returns the Overpass client, fronted by the Valkey cache when one is available.
func Provider(cfg *config.Config, cache *valkey.Client) ports.BoundaryProvider {
	client := overpass.New(cfg.Boundary.OverpassURL, cfg.Boundary.TimeoutDuration())
	if cache == nil || cfg.Boundary.CacheTTL == 0 {
		return client
	}
	return overpass.NewCachedProvider(client, cache, cfg.Boundary.CacheTTL)
}

// Pingers returns the store and cache health checks, nil when unsupported or absent.
func (a *App) Pingers() (store, cache Pinger) {
	if p, ok := a.Store.(Pinger); ok {
		store = p
	}
	if a.Cache != nil {
		cache = a.Cache
	}
	return store, cache
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
