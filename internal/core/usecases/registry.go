package usecases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/samirrijal/lgatracker/internal/core/domain"
	"github.com/samirrijal/lgatracker/internal/core/ports"
	"github.com/samirrijal/lgatracker/internal/pkg/geospatial"
	"github.com/samirrijal/lgatracker/internal/pkg/metrics"
	"github.com/samirrijal/lgatracker/internal/pkg/telemetry"
)

// Registry is an immutable, ordered set of regions.
type Registry struct {
	regions []domain.Region
	index   map[int64]int
}

// NewRegistry builds a registry. Regions keep their order; a repeated id keeps its first entry.
func NewRegistry(regions []domain.Region) *Registry {
	r := &Registry{
		regions: make([]domain.Region, 0, len(regions)),
		index:   make(map[int64]int, len(regions)),
	}
	for _, region := range regions {
		if _, dup := r.index[region.ID]; dup {
			continue
		}
		r.index[region.ID] = len(r.regions)
		r.regions = append(r.regions, region)
	}
	return r
}

// Get returns the region with the given id.
func (r *Registry) Get(id int64) (domain.Region, bool) {
	if r == nil {
		return domain.Region{}, false
	}
	i, ok := r.index[id]
	if !ok {
		return domain.Region{}, false
	}
	return r.regions[i], true
}

// All returns every region in insertion order. Ring slices are shared and must not be modified.
func (r *Registry) All() []domain.Region {
	if r == nil {
		return nil
	}
	out := make([]domain.Region, len(r.regions))
	copy(out, r.regions)
	return out
}

// Count returns the number of regions.
func (r *Registry) Count() int {
	if r == nil {
		return 0
	}
	return len(r.regions)
}

// Locate returns the first region whose outer rings contain pt and whose holes do not.
func (r *Registry) Locate(pt domain.GeoPoint) (domain.Region, bool) {
	if r == nil {
		return domain.Region{}, false
	}
	for _, region := range r.regions {
		for _, poly := range geospatial.GroupPolygons(region.OuterRings(), region.InnerRings()) {
			if !geospatial.PointInRing(pt, poly[0]) {
				continue
			}
			inHole := false
			for _, hole := range poly[1:] {
				if geospatial.PointInRing(pt, hole) {
					inHole = true
					break
				}
			}
			if !inHole {
				return region, true
			}
		}
	}
	return domain.Region{}, false
}

// RegistryCommit describes a registry that has just replaced the previous one.
type RegistryCommit struct {
	Registry   *Registry
	Result     AssemblyResult
	Generation uint64
}

// RegistryService owns the current Region Registry and rebuilds it from the boundary provider.
// Only the most recently started load may commit; older in-flight loads are cancelled and their
// results discarded.
type RegistryService struct {
	provider ports.BoundaryProvider
	filter   domain.BoundaryFilter
	timeout  time.Duration

	current atomic.Pointer[Registry]

	mu       sync.Mutex
	gen      uint64
	cancel   context.CancelFunc
	loading  bool
	loadedAt time.Time
	excluded int
	lastErr  error
	hooks    []func(context.Context, RegistryCommit)

	// deliverMu orders hook delivery; delivered is the newest generation handed to hooks.
	deliverMu sync.Mutex
	delivered uint64
}

// NewRegistryService creates a RegistryService. A zero timeout means no per-load deadline.
func NewRegistryService(provider ports.BoundaryProvider, filter domain.BoundaryFilter, timeout time.Duration) *RegistryService {
	return &RegistryService{provider: provider, filter: filter, timeout: timeout}
}

// Filter returns the boundary filter this service loads.
func (s *RegistryService) Filter() domain.BoundaryFilter { return s.filter }

// Current returns the loaded registry. ok is false until the first load commits.
func (s *RegistryService) Current() (reg *Registry, ok bool) {
	reg = s.current.Load()
	return reg, reg != nil
}

// DropCached discards the provider's cached payload so the next load goes to the source.
// Providers without a cache are left alone.
func (s *RegistryService) DropCached(ctx context.Context) error {
	inv, ok := s.provider.(ports.BoundaryCacheInvalidator)
	if !ok {
		return nil
	}
	if err := inv.Invalidate(ctx, s.filter); err != nil {
		return fmt.Errorf("drop cached boundaries: %w", err)
	}
	slog.Info("cached boundaries dropped", "country", s.filter.Country, "admin_level", s.filter.AdminLevel)
	return nil
}

// OnCommit registers a hook called after every committed load.
func (s *RegistryService) OnCommit(fn func(context.Context, RegistryCommit)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = append(s.hooks, fn)
}

// Load fetches and assembles a new registry and commits it if no newer load has started.
// On failure the current registry is left as it was.
func (s *RegistryService) Load(ctx context.Context) (*Registry, error) {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.gen++
	gen := s.gen
	loadCtx, cancel := context.WithCancel(ctx)
	if s.timeout > 0 {
		var cancelTimeout context.CancelFunc
		loadCtx, cancelTimeout = context.WithTimeout(loadCtx, s.timeout)
		parentCancel := cancel
		cancel = func() { cancelTimeout(); parentCancel() }
	}
	s.cancel = cancel
	s.loading = true
	s.mu.Unlock()
	defer cancel()

	loadCtx, span := telemetry.Tracer().Start(loadCtx, telemetry.SpanRegistryLoad)
	defer span.End()
	span.SetAttributes(
		attribute.Int64("generation", int64(gen)),
		attribute.String("country", s.filter.Country),
		attribute.Int("admin_level", s.filter.AdminLevel),
	)

	start := time.Now()
	payload, err := s.provider.Fetch(loadCtx, s.filter)
	metrics.BoundaryFetchDuration.Observe(time.Since(start).Seconds())
	if err == nil && payload == nil {
		err = errors.New("empty payload")
	}
	if err != nil {
		var fe *domain.FetchError
		if !errors.As(err, &fe) {
			err = &domain.FetchError{Op: "provider", Err: err}
		}
	}

	var result AssemblyResult
	var reg *Registry
	if err == nil {
		_, asmSpan := telemetry.Tracer().Start(loadCtx, telemetry.SpanAssemble)
		result = Assemble(payload, s.filter)
		reg = NewRegistry(result.Regions)
		asmSpan.SetAttributes(
			attribute.Int("regions", reg.Count()),
			attribute.Int("excluded", len(result.Excluded)),
			attribute.Int("dropped_ways", result.DroppedWays),
		)
		asmSpan.End()
	}

	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		metrics.RegistryLoads.WithLabelValues("superseded").Inc()
		slog.Info("registry load superseded, result discarded", "generation", gen)
		span.SetStatus(codes.Error, domain.ErrLoadSuperseded.Error())
		return nil, domain.ErrLoadSuperseded
	}
	s.cancel = nil
	s.loading = false
	if err != nil {
		s.lastErr = err
		s.mu.Unlock()
		metrics.RegistryLoads.WithLabelValues("fetch_error").Inc()
		slog.Error("registry load failed", "generation", gen, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	s.current.Store(reg)
	s.lastErr = nil
	s.loadedAt = time.Now().UTC()
	s.excluded = len(result.Excluded)
	hooks := append([]func(context.Context, RegistryCommit){}, s.hooks...)
	s.mu.Unlock()

	metrics.RegistryLoads.WithLabelValues("ok").Inc()
	metrics.RegistryRegions.Set(float64(reg.Count()))
	metrics.RegionsExcluded.Add(float64(len(result.Excluded)))
	metrics.WaysDropped.Add(float64(result.DroppedWays))
	for _, ex := range result.Excluded {
		slog.Debug("region excluded", "relation_id", ex.RelationID, "name", ex.Name, "reason", ex.Reason)
	}
	slog.Info("registry loaded",
		"generation", gen,
		"regions", reg.Count(),
		"excluded", len(result.Excluded),
		"dropped_ways", result.DroppedWays,
	)

	s.deliver(ctx, hooks, RegistryCommit{Registry: reg, Result: result, Generation: gen})
	return reg, nil
}

// deliver runs the commit hooks one commit at a time. A commit older than one already
// delivered is skipped so observers never end on a stale registry.
func (s *RegistryService) deliver(ctx context.Context, hooks []func(context.Context, RegistryCommit), c RegistryCommit) {
	s.deliverMu.Lock()
	defer s.deliverMu.Unlock()
	if c.Generation <= s.delivered {
		slog.Debug("stale registry commit not announced", "generation", c.Generation, "delivered", s.delivered)
		return
	}
	s.delivered = c.Generation
	for _, fn := range hooks {
		fn(ctx, c)
	}
}

// LoadAsync runs Load in the background. The channel receives the load error (nil on
// success) and is then closed.
func (s *RegistryService) LoadAsync(ctx context.Context) <-chan error {
	done := make(chan error, 1)
	go func() {
		defer close(done)
		_, err := s.Load(ctx)
		done <- err
	}()
	return done
}

// Status reports the holder state.
func (s *RegistryService) Status() domain.RegistryStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := domain.RegistryStatus{
		Loading:    s.loading,
		Generation: s.gen,
		Excluded:   s.excluded,
	}
	if reg := s.current.Load(); reg != nil {
		st.Loaded = true
		st.Regions = reg.Count()
		at := s.loadedAt
		st.LoadedAt = &at
	}
	if s.lastErr != nil {
		st.LastError = s.lastErr.Error()
	}
	return st
}
