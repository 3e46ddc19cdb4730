package natsadapter

import (
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

// Subjects used for tracker events.
const (
	SubjectVisitPrefix       = "lga.visits."
	SubjectVisits            = "lga.visits.>"
	SubjectRegistryLoaded    = "lga.registry.loaded"
	SubjectRegistryRefreshed = "lga.registry.refreshed"

	streamName = "LGA_EVENTS"
)

// VisitSubject is the subject a toggle of regionID is published on.
func VisitSubject(regionID int64) string {
	return fmt.Sprintf("%s%d", SubjectVisitPrefix, regionID)
}

// Connect opens a NATS connection that keeps retrying in the background.
func Connect(url, name string) (*nats.Conn, error) {
	conn, err := nats.Connect(url,
		nats.Name(name),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return conn, nil
}

// ensureStream creates or updates the event stream.
func ensureStream(js nats.JetStreamContext) error {
	cfg := &nats.StreamConfig{
		Name:      streamName,
		Subjects:  []string{"lga.>"},
		Retention: nats.LimitsPolicy,
		MaxAge:    7 * 24 * time.Hour,
		Storage:   nats.FileStorage,
	}
	if _, err := js.AddStream(cfg); err != nil {
		// Stream may already exist; try update
		if _, err := js.UpdateStream(cfg); err != nil {
			return fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
		}
	}
	return nil
}
