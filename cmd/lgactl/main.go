package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	natsadapter "github.com/samirrijal/lgatracker/internal/adapters/nats"
	"github.com/samirrijal/lgatracker/internal/app"
	"github.com/samirrijal/lgatracker/internal/cli"
	"github.com/samirrijal/lgatracker/internal/pkg/config"
	"github.com/samirrijal/lgatracker/internal/pkg/logging"
)

const service = "lgactl"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := cli.NewRootCmd(build)
	if err := root.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func build(ctx context.Context, withRegistry bool) (*cli.Runtime, error) {
	cfg, err := config.Load(service)
	if err != nil {
		return nil, err
	}
	// Logs go to stderr in text form so command output stays clean.
	slog.SetDefault(logging.New(os.Stderr, cfg.Log.Level, "text").With("service", service))

	a, err := app.Build(ctx, cfg, service)
	if err != nil {
		return nil, err
	}
	rt := &cli.Runtime{Tracker: a.Tracker, Close: a.Close}

	if cfg.NATS.Enabled {
		sub, err := natsadapter.NewSubscriber(cfg.NATS.URL, service)
		if err != nil {
			slog.Warn("nats unavailable", "error", err)
		} else {
			rt.Events = sub
			rt.Close = func() { sub.Close(); a.Close() }
		}
	}

	if withRegistry {
		if err := a.Tracker.Hydrate(ctx); err != nil {
			rt.Close()
			return nil, err
		}
	} else {
		a.Tracker.Visits().Load(ctx)
	}
	return rt, nil
}
