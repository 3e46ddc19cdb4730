package usecases

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/samirrijal/lgatracker/internal/core/domain"
	"github.com/samirrijal/lgatracker/internal/core/ports"
	"github.com/samirrijal/lgatracker/internal/pkg/metrics"
)

// VisitService owns the visited-region set and keeps it in sync with its repository.
// Other processes (lgactl, API replicas) may write the same store; each toggle first adopts
// the persisted snapshot so their changes are not overwritten.
type VisitService struct {
	repo ports.VisitRepository

	mu      sync.Mutex
	visited map[int64]struct{}
	// unsaved is set while the in-memory set holds changes the store does not.
	unsaved bool
}

// NewVisitService creates an empty VisitService. Call Load to hydrate it.
func NewVisitService(repo ports.VisitRepository) *VisitService {
	return &VisitService{repo: repo, visited: make(map[int64]struct{})}
}

// Load replaces the in-memory set with the persisted one. A missing or unreadable snapshot
// leaves the set empty; the failure is logged, never returned.
func (s *VisitService) Load(ctx context.Context) {
	ids, err := s.repo.Load(ctx)
	if err != nil {
		metrics.PersistenceErrors.WithLabelValues("read").Inc()
		slog.Warn("visited set unreadable, starting empty",
			"error", &domain.PersistenceReadError{Key: s.repo.Key(), Err: err})
		ids = nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.replaceLocked(ids)
	s.unsaved = false
	slog.Info("visited set loaded", "key", s.repo.Key(), "visited", len(s.visited))
}

// Refresh adopts the persisted snapshot written by another process. It does nothing while
// local changes are unsaved or when the snapshot cannot be read. It reports whether the set
// changed.
func (s *VisitService) Refresh(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.syncLocked(ctx)
}

func (s *VisitService) syncLocked(ctx context.Context) bool {
	if s.unsaved {
		return false
	}
	ids, err := s.repo.Load(ctx)
	if err != nil {
		metrics.PersistenceErrors.WithLabelValues("read").Inc()
		slog.Warn("visited set unreadable, keeping in-memory set",
			"error", &domain.PersistenceReadError{Key: s.repo.Key(), Err: err})
		return false
	}
	ids = domain.UniqueIDs(ids)
	if slices.Equal(ids, s.idsLocked()) {
		return false
	}
	s.replaceLocked(ids)
	slog.Debug("visited set refreshed from store", "key", s.repo.Key(), "visited", len(s.visited))
	return true
}

func (s *VisitService) replaceLocked(ids []int64) {
	s.visited = make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		s.visited[id] = struct{}{}
	}
	metrics.VisitedRegions.Set(float64(len(s.visited)))
}

// IsVisited reports whether id is in the set.
func (s *VisitService) IsVisited(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.visited[id]
	return ok
}

// Toggle flips the visited state of id and persists the whole set before returning.
// If the write fails the new state is kept and a *domain.PersistenceWriteError is returned.
func (s *VisitService) Toggle(ctx context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.syncLocked(ctx)
	_, was := s.visited[id]
	if was {
		delete(s.visited, id)
	} else {
		s.visited[id] = struct{}{}
	}
	visited := !was

	metrics.Toggles.WithLabelValues(domain.FillFor(visited).String()).Inc()
	metrics.VisitedRegions.Set(float64(len(s.visited)))

	if err := s.saveLocked(ctx); err != nil {
		slog.Warn("visit toggle not persisted", "region_id", id, "visited", visited, "error", err)
		return visited, err
	}
	return visited, nil
}

// Save overwrites the persisted snapshot with the current set.
func (s *VisitService) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked(ctx)
}

func (s *VisitService) saveLocked(ctx context.Context) error {
	if err := s.repo.Save(ctx, s.idsLocked()); err != nil {
		s.unsaved = true
		metrics.PersistenceErrors.WithLabelValues("write").Inc()
		return &domain.PersistenceWriteError{Key: s.repo.Key(), Err: err}
	}
	s.unsaved = false
	return nil
}

// Size returns the number of visited regions.
func (s *VisitService) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.visited)
}

// IDs returns the visited ids in ascending order.
func (s *VisitService) IDs() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.idsLocked()
}

func (s *VisitService) idsLocked() []int64 {
	ids := make([]int64, 0, len(s.visited))
	for id := range s.visited {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
