package session

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/rotisserie/eris"

	"github.com/hidrotec-mx/intake-cli/internal/model"
)

// MemoryStore keeps session state in process memory with TTL expiry. This
// mirrors the reference deployment; sqlite/postgres add durability.
type MemoryStore struct {
	mu       sync.RWMutex
	ttl      time.Duration
	sessions map[string][]byte
	updated  map[string]time.Time
}

// NewMemory creates an in-memory store whose sessions expire ttl after
// their last save.
func NewMemory(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:      ttl,
		sessions: make(map[string][]byte),
		updated:  make(map[string]time.Time),
	}
}

func (s *MemoryStore) Get(_ context.Context, sessionID string) (*model.State, error) {
	s.mu.RLock()
	data, ok := s.sessions[sessionID]
	updated := s.updated[sessionID]
	s.mu.RUnlock()

	if !ok || updated.Before(expiryCutoff(s.ttl)) {
		return nil, nil
	}

	var st model.State
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, eris.Wrap(err, "memory: unmarshal state")
	}
	return &st, nil
}

func (s *MemoryStore) Save(_ context.Context, state *model.State) error {
	state.UpdatedAt = time.Now().UTC()

	// Copy via JSON so callers can keep mutating their state safely.
	data, err := json.Marshal(state)
	if err != nil {
		return eris.Wrap(err, "memory: marshal state")
	}

	s.mu.Lock()
	s.sessions[state.SessionID] = data
	s.updated[state.SessionID] = state.UpdatedAt
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	delete(s.sessions, sessionID)
	delete(s.updated, sessionID)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) List(_ context.Context) ([]model.State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cutoff := expiryCutoff(s.ttl)
	out := make([]model.State, 0, len(s.sessions))
	for id, data := range s.sessions {
		if s.updated[id].Before(cutoff) {
			continue
		}
		var st model.State
		if err := json.Unmarshal(data, &st); err != nil {
			return nil, eris.Wrap(err, "memory: unmarshal state")
		}
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (s *MemoryStore) DeleteExpired(_ context.Context) (int, error) {
	cutoff := expiryCutoff(s.ttl)

	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for id, updated := range s.updated {
		if updated.Before(cutoff) {
			delete(s.sessions, id)
			delete(s.updated, id)
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) Migrate(context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }
