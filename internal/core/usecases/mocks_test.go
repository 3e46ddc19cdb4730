package usecases_test

import (
	"context"
	"errors"
	"sync"

	"github.com/samirrijal/lgatracker/internal/core/domain"
)

// --- Mock BoundaryProvider ---

type mockProvider struct {
	fetchFn func(ctx context.Context, filter domain.BoundaryFilter) (*domain.RawPayload, error)
}

func (m *mockProvider) Fetch(ctx context.Context, filter domain.BoundaryFilter) (*domain.RawPayload, error) {
	if m.fetchFn != nil {
		return m.fetchFn(ctx, filter)
	}
	return &domain.RawPayload{}, nil
}

// cachingProvider records cache invalidations.
type cachingProvider struct {
	mockProvider
	invalidated []domain.BoundaryFilter
	err         error
}

func (m *cachingProvider) Invalidate(ctx context.Context, filter domain.BoundaryFilter) error {
	m.invalidated = append(m.invalidated, filter)
	return m.err
}

// --- Mock VisitRepository ---

type memoryRepo struct {
	mu      sync.Mutex
	saved   []int64
	saves   int
	loadErr error
	saveErr error
}

func (m *memoryRepo) Key() string { return "visitedLGAs" }

func (m *memoryRepo) Load(ctx context.Context) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return append([]int64(nil), m.saved...), nil
}

func (m *memoryRepo) Save(ctx context.Context, ids []int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved = append([]int64{}, ids...)
	return nil
}

func (m *memoryRepo) persisted() []int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int64{}, m.saved...)
}

// --- Mock EventPublisher ---

type mockPublisher struct {
	mu       sync.Mutex
	visits   []domain.VisitChange
	registry []domain.RegistryChange
	err      error
}

func (m *mockPublisher) PublishVisitChange(ctx context.Context, c *domain.VisitChange) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.visits = append(m.visits, *c)
	return m.err
}

func (m *mockPublisher) PublishRegistryChange(ctx context.Context, c *domain.RegistryChange) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.registry = append(m.registry, *c)
	return m.err
}

var errBoom = errors.New("boom")

var auLGAs = domain.BoundaryFilter{Country: "AU", AdminLevel: 6}

// payloadBuilder assembles Overpass-shaped payloads for tests.
type payloadBuilder struct {
	elements []domain.RawElement
	nextNode int64
	nextWay  int64
}

func newPayload() *payloadBuilder {
	return &payloadBuilder{nextNode: 1000, nextWay: 5000}
}

func (b *payloadBuilder) node(id int64, lat, lon float64) *payloadBuilder {
	b.elements = append(b.elements, domain.RawElement{Type: domain.ElementNode, ID: id, Lat: lat, Lon: lon})
	return b
}

func (b *payloadBuilder) way(id int64, nodes ...int64) *payloadBuilder {
	b.elements = append(b.elements, domain.RawElement{Type: domain.ElementWay, ID: id, Nodes: nodes})
	return b
}

func (b *payloadBuilder) relation(id int64, name string, members ...domain.Member) *payloadBuilder {
	tags := map[string]string{"boundary": "administrative", "admin_level": "6"}
	if name != "" {
		tags["name"] = name
	}
	b.elements = append(b.elements, domain.RawElement{Type: domain.ElementRelation, ID: id, Tags: tags, Members: members})
	return b
}

// square adds a closed square region of four two-node ways with its south-west corner at
// (lat, lon).
func (b *payloadBuilder) square(id int64, name string, lat, lon, size float64) *payloadBuilder {
	n := b.nextNode
	b.nextNode += 4
	b.node(n, lat, lon).
		node(n+1, lat, lon+size).
		node(n+2, lat+size, lon+size).
		node(n+3, lat+size, lon)

	w := b.nextWay
	b.nextWay += 4
	b.way(w, n, n+1).way(w+1, n+1, n+2).way(w+2, n+2, n+3).way(w+3, n+3, n)
	return b.relation(id, name, outer(w), outer(w+1), outer(w+2), outer(w+3))
}

func (b *payloadBuilder) build() *domain.RawPayload {
	return &domain.RawPayload{Elements: append([]domain.RawElement(nil), b.elements...)}
}

func outer(ref int64) domain.Member {
	return domain.Member{Type: domain.ElementWay, Ref: ref, Role: domain.RoleOuter}
}

func inner(ref int64) domain.Member {
	return domain.Member{Type: domain.ElementWay, Ref: ref, Role: domain.RoleInner}
}

func staticProvider(p *domain.RawPayload) *mockProvider {
	return &mockProvider{fetchFn: func(context.Context, domain.BoundaryFilter) (*domain.RawPayload, error) {
		return p, nil
	}}
}
