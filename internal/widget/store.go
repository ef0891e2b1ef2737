package widget

import (
	"context"
	"sync"
	"time"

	"weather-widget/internal/models"
)

const DefaultSessionTTL = 30 * time.Minute

// State is the explicit widget state of one browser session.
type State struct {
	ID         string
	UseCelsius bool
	// Issued is the last sequence number handed to a search; Applied is the
	// sequence number of the search that produced Model.
	Issued    uint64
	Applied   uint64
	Model     *models.DisplayModel
	UpdatedAt time.Time
}

type Store interface {
	Create(ctx context.Context, id string) (State, error)
	Get(ctx context.Context, id string) (State, error)
	// Issue returns the next sequence number for a search on the session.
	Issue(ctx context.Context, id string) (uint64, error)
	// Commit stores model if seq is still the latest issued number and reports
	// whether it did.
	Commit(ctx context.Context, id string, seq uint64, model models.DisplayModel) (bool, error)
	SetUnit(ctx context.Context, id string, useCelsius bool) (State, error)
	ToggleUnit(ctx context.Context, id string) (State, error)
}

type memoryEntry struct {
	state     State
	expiresAt time.Time
}

// MemoryStore keeps sessions in process memory with a sliding TTL.
type MemoryStore struct {
	mu    sync.Mutex
	items map[string]*memoryEntry
	ttl   time.Duration
	now   func() time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &MemoryStore{items: make(map[string]*memoryEntry), ttl: ttl, now: time.Now}
}

// lookupLocked returns a live entry and slides its expiry.
func (s *MemoryStore) lookupLocked(id string) (*memoryEntry, bool) {
	e, ok := s.items[id]
	if !ok {
		return nil, false
	}
	now := s.now()
	if now.After(e.expiresAt) {
		delete(s.items, id)
		return nil, false
	}
	e.expiresAt = now.Add(s.ttl)
	return e, true
}

func (s *MemoryStore) sweepLocked() {
	now := s.now()
	for id, e := range s.items {
		if now.After(e.expiresAt) {
			delete(s.items, id)
		}
	}
}

func (s *MemoryStore) Create(_ context.Context, id string) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked()
	now := s.now()
	e := &memoryEntry{
		state:     State{ID: id, UseCelsius: true, UpdatedAt: now},
		expiresAt: now.Add(s.ttl),
	}
	s.items[id] = e
	return e.state, nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.lookupLocked(id)
	if !ok {
		return State{}, ErrSessionNotFound
	}
	return e.state, nil
}

func (s *MemoryStore) Issue(_ context.Context, id string) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.lookupLocked(id)
	if !ok {
		return 0, ErrSessionNotFound
	}
	e.state.Issued++
	return e.state.Issued, nil
}

func (s *MemoryStore) Commit(_ context.Context, id string, seq uint64, model models.DisplayModel) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.lookupLocked(id)
	if !ok {
		return false, ErrSessionNotFound
	}
	if seq != e.state.Issued {
		return false, nil
	}
	e.state.Applied = seq
	e.state.Model = &model
	e.state.UpdatedAt = s.now()
	return true, nil
}

func (s *MemoryStore) SetUnit(_ context.Context, id string, useCelsius bool) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.lookupLocked(id)
	if !ok {
		return State{}, ErrSessionNotFound
	}
	e.state.UseCelsius = useCelsius
	return e.state, nil
}

func (s *MemoryStore) ToggleUnit(_ context.Context, id string) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.lookupLocked(id)
	if !ok {
		return State{}, ErrSessionNotFound
	}
	e.state.UseCelsius = !e.state.UseCelsius
	return e.state, nil
}
