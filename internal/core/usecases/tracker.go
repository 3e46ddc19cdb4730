package usecases

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/samirrijal/lgatracker/internal/core/domain"
	"github.com/samirrijal/lgatracker/internal/core/ports"
	"github.com/samirrijal/lgatracker/internal/pkg/telemetry"
)

// EventKind discriminates tracker events.
type EventKind string

const (
	EventVisit    EventKind = "visit"
	EventRegistry EventKind = "registry"
)

// Event is delivered to subscribers after a toggle or a committed registry load.
type Event struct {
	Kind     EventKind              `json:"kind"`
	Visit    *domain.VisitChange    `json:"visit,omitempty"`
	Registry *domain.RegistryChange `json:"registry,omitempty"`
}

// Tracker ties the region registry and the visited set together and notifies observers
// whenever either changes.
type Tracker struct {
	registry  *RegistryService
	visits    *VisitService
	publisher ports.EventPublisher
	source    string

	mu     sync.Mutex
	nextID int
	subs   map[int]chan Event
}

// NewTracker wires a Tracker. publisher may be nil.
func NewTracker(registry *RegistryService, visits *VisitService, publisher ports.EventPublisher) *Tracker {
	t := &Tracker{
		registry:  registry,
		visits:    visits,
		publisher: publisher,
		source:    uuid.NewString(),
		subs:      make(map[int]chan Event),
	}
	registry.OnCommit(t.registryCommitted)
	return t
}

// Registry returns the registry service.
func (t *Tracker) Registry() *RegistryService { return t.registry }

// Visits returns the visit service.
func (t *Tracker) Visits() *VisitService { return t.visits }

// Hydrate loads the visited set and the registry concurrently and waits for both.
func (t *Tracker) Hydrate(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		t.visits.Load(gctx)
		return nil
	})
	g.Go(func() error {
		_, err := t.registry.Load(gctx)
		return err
	})
	return g.Wait()
}

// Reload rebuilds the registry, superseding any load in flight.
func (t *Tracker) Reload(ctx context.Context) error {
	_, err := t.registry.Load(ctx)
	return err
}

// ReloadAsync starts a registry rebuild in the background.
func (t *Tracker) ReloadAsync(ctx context.Context) <-chan error {
	return t.registry.LoadAsync(ctx)
}

// Regions returns every loaded region in registry order.
func (t *Tracker) Regions() ([]domain.Region, error) {
	reg, ok := t.registry.Current()
	if !ok {
		return nil, domain.ErrRegistryUnavailable
	}
	return reg.All(), nil
}

// Region looks up a single loaded region.
func (t *Tracker) Region(id int64) (domain.Region, error) {
	reg, ok := t.registry.Current()
	if !ok {
		return domain.Region{}, domain.ErrRegistryUnavailable
	}
	r, ok := reg.Get(id)
	if !ok {
		return domain.Region{}, domain.ErrRegionNotFound
	}
	return r, nil
}

// Locate returns the loaded region containing pt.
func (t *Tracker) Locate(pt domain.GeoPoint) (domain.Region, error) {
	reg, ok := t.registry.Current()
	if !ok {
		return domain.Region{}, domain.ErrRegistryUnavailable
	}
	r, ok := reg.Locate(pt)
	if !ok {
		return domain.Region{}, domain.ErrRegionNotFound
	}
	return r, nil
}

// Progress derives the current statistics. An unloaded registry counts as zero regions.
func (t *Tracker) Progress() domain.ProgressStats {
	reg, _ := t.registry.Current()
	return ComputeProgress(reg.Count(), t.visits.Size())
}

// StyleFor returns the fill state of a region.
func (t *Tracker) StyleFor(id int64) domain.FillState {
	return domain.FillFor(t.visits.IsVisited(id))
}

// Toggle flips the visited state of a loaded region. A persistence failure is not returned:
// the change reports Persisted=false instead.
func (t *Tracker) Toggle(ctx context.Context, id int64) (domain.VisitChange, error) {
	region, err := t.Region(id)
	if err != nil {
		return domain.VisitChange{}, err
	}
	return t.toggle(ctx, id, region.Name)
}

// ToggleUnchecked flips id without requiring it to be in the loaded registry. It is meant for
// tools that work on the store without fetching boundaries.
func (t *Tracker) ToggleUnchecked(ctx context.Context, id int64) (domain.VisitChange, error) {
	var name string
	if region, err := t.Region(id); err == nil {
		name = region.Name
	}
	return t.toggle(ctx, id, name)
}

func (t *Tracker) toggle(ctx context.Context, id int64, name string) (domain.VisitChange, error) {
	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanVisitToggle)
	defer span.End()
	span.SetAttributes(attribute.Int64("region_id", id))

	visited, err := t.visits.Toggle(ctx, id)
	var werr *domain.PersistenceWriteError
	if err != nil && !errors.As(err, &werr) {
		return domain.VisitChange{}, err
	}
	if werr != nil {
		span.RecordError(werr)
	}

	change := domain.VisitChange{
		EventID:   uuid.NewString(),
		RegionID:  id,
		Name:      name,
		Visited:   visited,
		Persisted: werr == nil,
		Stats:     t.Progress(),
		At:        time.Now().UTC(),
		Source:    t.source,
	}
	t.broadcast(Event{Kind: EventVisit, Visit: &change})
	if t.publisher != nil {
		if err := t.publisher.PublishVisitChange(ctx, &change); err != nil {
			slog.Warn("publish visit change failed", "region_id", id, "error", err)
		}
	}
	return change, nil
}

// ApplyRemote handles a visit change announced by another process. The visited set is
// re-read from the store and subscribers get the change with this tracker's progress.
// Changes made by this tracker are ignored. It reports whether anything changed locally.
func (t *Tracker) ApplyRemote(ctx context.Context, change *domain.VisitChange) bool {
	if change.Source == t.source {
		return false
	}
	if !t.visits.Refresh(ctx) {
		return false
	}
	relay := *change
	relay.Visited = t.visits.IsVisited(change.RegionID)
	relay.Stats = t.Progress()
	if region, err := t.Region(change.RegionID); err == nil {
		relay.Name = region.Name
	}
	t.broadcast(Event{Kind: EventVisit, Visit: &relay})
	return true
}

// Subscribe returns a channel of tracker events that is closed when ctx is done.
// Events are dropped for subscribers that fall more than buffer events behind.
func (t *Tracker) Subscribe(ctx context.Context, buffer int) <-chan Event {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan Event, buffer)

	t.mu.Lock()
	id := t.nextID
	t.nextID++
	t.subs[id] = ch
	t.mu.Unlock()

	go func() {
		<-ctx.Done()
		t.mu.Lock()
		delete(t.subs, id)
		close(ch)
		t.mu.Unlock()
	}()
	return ch
}

func (t *Tracker) broadcast(ev Event) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for id, ch := range t.subs {
		select {
		case ch <- ev:
		default:
			slog.Debug("subscriber lagging, event dropped", "subscriber", id, "kind", ev.Kind)
		}
	}
}

func (t *Tracker) registryCommitted(ctx context.Context, c RegistryCommit) {
	change := domain.RegistryChange{
		EventID:    uuid.NewString(),
		Generation: c.Generation,
		Regions:    c.Registry.Count(),
		Excluded:   len(c.Result.Excluded),
		Stats:      ComputeProgress(c.Registry.Count(), t.visits.Size()),
		At:         time.Now().UTC(),
	}
	t.broadcast(Event{Kind: EventRegistry, Registry: &change})
	if t.publisher != nil {
		if err := t.publisher.PublishRegistryChange(ctx, &change); err != nil {
			slog.Warn("publish registry change failed", "generation", c.Generation, "error", err)
		}
	}
}
