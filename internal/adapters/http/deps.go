package http

import (
	"context"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/lgatracker/internal/core/usecases"
)

// Pinger is a dependency that can report its own health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Tracker *usecases.Tracker
	// Store is the visit repository, when it supports health checks.
	Store Pinger
	Cache Pinger
	NATS  *nats.Conn
	// Version is reported by the health endpoint.
	Version string
}
