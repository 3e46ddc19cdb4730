package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/lgatracker/internal/core/domain"
)

// Subscriber implements ports.EventSubscriber using NATS JetStream. Every subscription is an
// ephemeral consumer that only sees messages published after it starts.
type Subscriber struct {
	conn *nats.Conn
	js   nats.JetStreamContext
	subs []*nats.Subscription
}

// NewSubscriber connects to NATS and ensures the event stream exists.
func NewSubscriber(url, name string) (*Subscriber, error) {
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
	return &Subscriber{conn: conn, js: js}, nil
}

func (s *Subscriber) SubscribeVisitChanges(ctx context.Context, handler func(ctx context.Context, change *domain.VisitChange) error) error {
	return subscribe(ctx, s, SubjectVisits, handler)
}

func (s *Subscriber) SubscribeRegistryChanges(ctx context.Context, handler func(ctx context.Context, change *domain.RegistryChange) error) error {
	return subscribe(ctx, s, SubjectRegistryLoaded, handler)
}

func (s *Subscriber) SubscribeRegistryRefreshed(ctx context.Context, handler func(ctx context.Context, filter domain.BoundaryFilter) error) error {
	return subscribe(ctx, s, SubjectRegistryRefreshed, func(ctx context.Context, f *domain.BoundaryFilter) error {
		return handler(ctx, *f)
	})
}

func subscribe[T any](ctx context.Context, s *Subscriber, subject string, handler func(context.Context, *T) error) error {
	sub, err := s.js.Subscribe(subject, func(msg *nats.Msg) {
		var v T
		if err := json.Unmarshal(msg.Data, &v); err != nil {
			slog.Warn("dropping malformed event", "subject", msg.Subject, "error", err)
			_ = msg.Term()
			return
		}
		if err := handler(ctx, &v); err != nil {
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	},
		nats.DeliverNew(),
		nats.ManualAck(),
		nats.MaxDeliver(3),
	)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", subject, err)
	}
	s.subs = append(s.subs, sub)

	go func() {
		<-ctx.Done()
		_ = sub.Unsubscribe()
	}()
	return nil
}

// Close unsubscribes and drains.
func (s *Subscriber) Close() {
	for _, sub := range s.subs {
		_ = sub.Unsubscribe()
	}
	_ = s.conn.Drain()
}
