package session

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	state     State
	updatedAt time.Time
}

// MemoryStore keeps dialog states in process memory. States idle for longer
// than the TTL are treated as absent; reads and writes both count as activity.
type MemoryStore struct {
	states map[int64]entry
	mu     sync.Mutex
	ttl    time.Duration
	now    func() time.Time
}

// NewMemoryStore creates a memory store; ttl <= 0 disables expiry
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		states: make(map[int64]entry),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Set sets the state for a user
func (m *MemoryStore) Set(_ context.Context, userID int64, st State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[userID] = entry{state: st, updatedAt: m.now()}
	return nil
}

// Get gets the state for a user
func (m *MemoryStore) Get(_ context.Context, userID int64) (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.states[userID]
	if !ok {
		return nil, ErrNoSession
	}
	if m.expired(e) {
		delete(m.states, userID)
		return nil, ErrNoSession
	}
	e.updatedAt = m.now()
	m.states[userID] = e
	return e.state, nil
}

// Clear clears the state for a user
func (m *MemoryStore) Clear(_ context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.states, userID)
	return nil
}

// Purge drops every expired state and returns how many were removed
func (m *MemoryStore) Purge() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, e := range m.states {
		if m.expired(e) {
			delete(m.states, id)
			n++
		}
	}
	return n
}

// StartPurgeRoutine periodically purges expired states until ctx is done
func (m *MemoryStore) StartPurgeRoutine(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.Purge()
			}
		}
	}()
}

func (m *MemoryStore) expired(e entry) bool {
	return m.ttl > 0 && m.now().Sub(e.updatedAt) > m.ttl
}
