// Package session holds in-flight and recently finished evaluation runs in
// memory so streaming consumers can attach to them by ID. It replaces the
// module-level caches of earlier designs with an injected store owned by the
// handler layer; the orchestrator itself keeps no cross-request state.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mshevtsov/concilium/internal/model"
	"github.com/mshevtsov/concilium/internal/orchestrator"
)

// DefaultTTL is how long a finished run stays retrievable.
const DefaultTTL = 30 * time.Minute

// Run is one evaluation tracked by the store. Log is live while the run is
// in flight; Result is set when it finishes.
type Run struct {
	ID        string
	Log       *orchestrator.DiscussionLog
	CreatedAt time.Time

	mu     sync.Mutex
	result *model.EvaluationResult
}

// SetResult records the finished result.
func (r *Run) SetResult(res model.EvaluationResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.result = &res
}

// Result returns the finished result, or nil while the run is in flight.
func (r *Run) Result() *model.EvaluationResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.result
}

// Store is a TTL-evicting in-memory run store.
type Store struct {
	ttl time.Duration

	mu   sync.Mutex
	runs map[string]*Run
	done chan struct{}
	once sync.Once
}

// NewStore creates a store and starts its eviction janitor.
func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	s := &Store{
		ttl:  ttl,
		runs: make(map[string]*Run),
		done: make(chan struct{}),
	}
	go s.janitor()
	return s
}

// Create registers a new run with a fresh ID and discussion log.
func (s *Store) Create() *Run {
	r := &Run{
		ID:        uuid.NewString(),
		Log:       orchestrator.NewDiscussionLog(),
		CreatedAt: time.Now(),
	}
	s.mu.Lock()
	s.runs[r.ID] = r
	s.mu.Unlock()
	return r
}

// Get returns the run with the given ID, or nil.
func (s *Store) Get(id string) *Run {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runs[id]
}

// Delete removes a run.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.runs, id)
}

// Len returns the number of tracked runs.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.runs)
}

// Close stops the janitor.
func (s *Store) Close() {
	s.once.Do(func() { close(s.done) })
}

func (s *Store) janitor() {
	interval := s.ttl / 10
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case now := <-ticker.C:
			s.evict(now)
		}
	}
}

func (s *Store) evict(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, r := range s.runs {
		if now.Sub(r.CreatedAt) > s.ttl {
			delete(s.runs, id)
		}
	}
}
