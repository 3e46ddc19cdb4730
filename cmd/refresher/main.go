package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"go.temporal.io/sdk/client"
	tlog "go.temporal.io/sdk/log"
	"go.temporal.io/sdk/worker"

	natsadapter "github.com/samirrijal/lgatracker/internal/adapters/nats"
	"github.com/samirrijal/lgatracker/internal/adapters/overpass"
	"github.com/samirrijal/lgatracker/internal/adapters/valkey"
	"github.com/samirrijal/lgatracker/internal/app"
	"github.com/samirrijal/lgatracker/internal/pkg/config"
	"github.com/samirrijal/lgatracker/internal/pkg/logging"
	"github.com/samirrijal/lgatracker/internal/workflows"
)

const service = "lgatracker-refresher"

func main() {
	mode := "worker"
	if len(os.Args) > 1 {
		mode = os.Args[1]
	}

	cfg, err := config.Load(service)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(service, cfg.Log.Level, cfg.Log.Format)

	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
		Logger:    tlog.NewStructuredLogger(slog.Default()),
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	switch mode {
	case "worker":
		runWorker(c, cfg)
	case "schedule":
		start(c, cfg, cfg.Temporal.Schedule)
	case "once":
		start(c, cfg, "")
	default:
		log.Fatalf("usage: refresher [worker|schedule|once]")
	}
}

func runWorker(c client.Client, cfg *config.Config) {
	acts := &workflows.RefreshActivities{
		// The worker always goes to Overpass; the cache is what it refreshes.
		Provider: overpass.New(cfg.Boundary.OverpassURL, cfg.Boundary.TimeoutDuration()),
		CacheTTL: cfg.Boundary.CacheTTL,
	}

	if cfg.Valkey.Addr != "" {
		cache, err := valkey.New(cfg.Valkey.Addr, app.CachePrefix)
		if err != nil {
			log.Fatalf("valkey: %v", err)
		}
		defer cache.Close()
		acts.Cache = cache
	} else {
		slog.Warn("valkey.addr not set, snapshots are validated but not cached")
	}

	if cfg.NATS.Enabled {
		pub, err := natsadapter.NewPublisher(cfg.NATS.URL, service)
		if err != nil {
			slog.Warn("nats unavailable, refreshes will not be announced", "error", err)
		} else {
			defer pub.Close()
			acts.Announcer = pub
		}
	}

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})
	w.RegisterWorkflow(workflows.BoundaryRefreshWorkflow)
	w.RegisterActivity(acts)

	slog.Info("refresh worker started", "taskQueue", cfg.Temporal.TaskQueue)
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker: %v", err)
	}
}

// start launches the refresh workflow. A non-empty cron runs it on that schedule.
func start(c client.Client, cfg *config.Config, cron string) {
	id := workflows.WorkflowID
	if cron == "" {
		id += "-once"
	}
	run, err := c.ExecuteWorkflow(context.Background(), client.StartWorkflowOptions{
		ID:           id,
		TaskQueue:    cfg.Temporal.TaskQueue,
		CronSchedule: cron,
	}, workflows.BoundaryRefreshWorkflow, workflows.RefreshInput{Filter: cfg.Boundary.Filter()})
	if err != nil {
		log.Fatalf("start workflow: %v", err)
	}
	slog.Info("refresh workflow started", "workflowID", run.GetID(), "runID", run.GetRunID(), "cron", cron)

	if cron != "" {
		return
	}
	var summary workflows.RefreshSummary
	if err := run.Get(context.Background(), &summary); err != nil {
		log.Fatalf("refresh failed: %v", err)
	}
	slog.Info("refresh finished", "regions", summary.Regions, "excluded", summary.Excluded, "cached", summary.Cached)
}
