package ports

import (
	"context"

	"github.com/samirrijal/lgatracker/internal/core/domain"
)

// BoundaryProvider fetches raw administrative-boundary elements.
type BoundaryProvider interface {
	Fetch(ctx context.Context, filter domain.BoundaryFilter) (*domain.RawPayload, error)
}

// BoundaryCacheInvalidator is implemented by boundary providers that cache fetched payloads.
type BoundaryCacheInvalidator interface {
	Invalidate(ctx context.Context, filter domain.BoundaryFilter) error
}

// EventPublisher publishes tracker events to a message broker.
type EventPublisher interface {
	PublishVisitChange(ctx context.Context, change *domain.VisitChange) error
	PublishRegistryChange(ctx context.Context, change *domain.RegistryChange) error
}

// RefreshAnnouncer tells running services that a fresh boundary snapshot is cached.
type RefreshAnnouncer interface {
	AnnounceRefresh(ctx context.Context, filter domain.BoundaryFilter) error
}

// EventSubscriber subscribes to tracker events from a message broker.
type EventSubscriber interface {
	SubscribeVisitChanges(ctx context.Context, handler func(ctx context.Context, change *domain.VisitChange) error) error
	SubscribeRegistryChanges(ctx context.Context, handler func(ctx context.Context, change *domain.RegistryChange) error) error
	SubscribeRegistryRefreshed(ctx context.Context, handler func(ctx context.Context, filter domain.BoundaryFilter) error) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}
