package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/samirrijal/lgatracker/internal/adapters/http"
	natsadapter "github.com/samirrijal/lgatracker/internal/adapters/nats"
	"github.com/samirrijal/lgatracker/internal/adapters/overpass"
	"github.com/samirrijal/lgatracker/internal/app"
	"github.com/samirrijal/lgatracker/internal/core/domain"
	"github.com/samirrijal/lgatracker/internal/pkg/config"
	"github.com/samirrijal/lgatracker/internal/pkg/logging"
	"github.com/samirrijal/lgatracker/internal/pkg/telemetry"
)

const service = "lgatracker-api"

var version = "dev"

func main() {
	cfg, err := config.Load(service)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logging.Setup(service, cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	a, err := app.Build(ctx, cfg, service)
	if err != nil {
		log.Fatalf("build: %v", err)
	}
	defer a.Close()

	// The visited set is local and fast; boundaries can take a minute to fetch.
	tracker := a.Tracker
	tracker.Visits().Load(ctx)
	go func() {
		if err := <-tracker.ReloadAsync(ctx); err != nil {
			slog.Error("initial registry load failed", "error", err)
		}
	}()

	if cfg.NATS.Enabled {
		sub, err := natsadapter.NewSubscriber(cfg.NATS.URL, service)
		if err != nil {
			slog.Warn("nats subscriber unavailable", "error", err)
		} else {
			defer sub.Close()
			err := sub.SubscribeRegistryRefreshed(ctx, func(ctx context.Context, filter domain.BoundaryFilter) error {
				if filter != tracker.Registry().Filter() {
					return nil
				}
				slog.Info("boundary refresh announced, reloading registry")
				go func() {
					if err := <-tracker.ReloadAsync(context.WithoutCancel(ctx)); err != nil {
						slog.Warn("registry reload failed", "error", err)
					}
				}()
				return nil
			})
			if err != nil {
				slog.Warn("subscribe to refresh announcements failed", "error", err)
			}
			// lgactl and other replicas write the same store; pick their toggles up.
			err = sub.SubscribeVisitChanges(ctx, func(ctx context.Context, change *domain.VisitChange) error {
				if tracker.ApplyRemote(ctx, change) {
					slog.Info("visited set changed elsewhere", "region_id", change.RegionID, "source", change.Source)
				}
				return nil
			})
			if err != nil {
				slog.Warn("subscribe to visit changes failed", "error", err)
			}
		}
	}

	store, cache := a.Pingers()
	deps := &http.Dependencies{
		Tracker: tracker,
		Store:   store,
		Cache:   cache,
		Version: version,
	}
	if a.Publisher != nil {
		deps.NATS = a.Publisher.Conn()
	}

	fiberApp := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    64 * 1024,
		AppName:      "LGA Tracker API",
	})
	fiberApp.Use(recover.New())
	fiberApp.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept",
		MaxAge:       3600,
	}))

	http.SetupRoutes(fiberApp, deps)

	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr, "store", cfg.Store.Driver,
			"boundaries", overpass.CacheKey(cfg.Boundary.Filter()))
		if err := fiberApp.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections", "signal", sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := fiberApp.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	// Best-effort final flush of the visited set.
	if err := tracker.Visits().Save(shutdownCtx); err != nil {
		slog.Warn("final save failed", "error", err)
	}
	slog.Info("server stopped")
}
