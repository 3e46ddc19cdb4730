package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/lgatracker/internal/core/domain"
)

// Publisher implements ports.EventPublisher and ports.RefreshAnnouncer using NATS JetStream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher connects to NATS and ensures the event stream exists.
func NewPublisher(url, name string) (*Publisher, error) {
	conn, err := Connect(url, name)
	if err != nil {
		return nil, err
	}
	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("jetstream: %w", err)
	}
	if err := ensureStream(js); err != nil {
		conn.Close()
		return nil, err
	}
	return &Publisher{conn: conn, js: js}, nil
}

func (p *Publisher) PublishVisitChange(ctx context.Context, change *domain.VisitChange) error {
	return p.publish(ctx, VisitSubject(change.RegionID), change.EventID, change)
}

func (p *Publisher) PublishRegistryChange(ctx context.Context, change *domain.RegistryChange) error {
	return p.publish(ctx, SubjectRegistryLoaded, change.EventID, change)
}

// AnnounceRefresh publishes the filter whose boundary snapshot was just refreshed.
func (p *Publisher) AnnounceRefresh(ctx context.Context, filter domain.BoundaryFilter) error {
	return p.publish(ctx, SubjectRegistryRefreshed, "", filter)
}

func (p *Publisher) publish(ctx context.Context, subject, msgID string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	opts := []nats.PubOpt{nats.Context(ctx)}
	if msgID != "" {
		opts = append(opts, nats.MsgId(msgID))
	}
	_, err = p.js.Publish(subject, data, opts...)
	return err
}

// Conn exposes the underlying connection for health checks.
func (p *Publisher) Conn() *nats.Conn { return p.conn }

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}
