package overpass

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/samirrijal/lgatracker/internal/core/domain"
	"github.com/samirrijal/lgatracker/internal/core/ports"
	"github.com/samirrijal/lgatracker/internal/pkg/metrics"
)

// CacheKey is the cache entry holding the raw payload for a filter.
func CacheKey(filter domain.BoundaryFilter) string {
	return fmt.Sprintf("boundaries:%s:%d", filter.Country, filter.AdminLevel)
}

var _ ports.BoundaryCacheInvalidator = (*CachedProvider)(nil)

// CachedProvider is a read-through cache in front of another BoundaryProvider.
type CachedProvider struct {
	next  ports.BoundaryProvider
	cache ports.CacheService
	ttl   int
}

// NewCachedProvider wraps next. ttlSeconds bounds how long a payload is reused.
func NewCachedProvider(next ports.BoundaryProvider, cache ports.CacheService, ttlSeconds int) *CachedProvider {
	return &CachedProvider{next: next, cache: cache, ttl: ttlSeconds}
}

// Fetch returns the cached payload when present, otherwise fetches and stores it.
func (p *CachedProvider) Fetch(ctx context.Context, filter domain.BoundaryFilter) (*domain.RawPayload, error) {
	key := CacheKey(filter)
	if data, err := p.cache.Get(ctx, key); err == nil && len(data) > 0 {
		if payload, err := Decode(bytes.NewReader(data)); err == nil {
			metrics.CacheHits.WithLabelValues("boundaries").Inc()
			return payload, nil
		}
		slog.Warn("discarding unreadable cached boundaries", "key", key)
	}
	metrics.CacheMisses.WithLabelValues("boundaries").Inc()

	payload, err := p.next.Fetch(ctx, filter)
	if err != nil {
		return nil, err
	}
	if err := Store(ctx, p.cache, filter, payload, p.ttl); err != nil {
		slog.Warn("caching boundaries failed", "key", key, "error", err)
	}
	return payload, nil
}

// Invalidate drops the cached payload for filter.
func (p *CachedProvider) Invalidate(ctx context.Context, filter domain.BoundaryFilter) error {
	return p.cache.Delete(ctx, CacheKey(filter))
}

// Store writes payload to the cache under the filter's key.
func Store(ctx context.Context, cache ports.CacheService, filter domain.BoundaryFilter, payload *domain.RawPayload, ttlSeconds int) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return cache.Set(ctx, CacheKey(filter), data, ttlSeconds)
}
