package session

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/hidrotec-mx/intake-cli/internal/model"
)

const lockStripes = 64

// Manager serializes access to each session's state and runs the TTL sweep.
// Two in-flight requests for the same session id execute one after the
// other; requests for different sessions proceed independently.
type Manager struct {
	store Store
	locks [lockStripes]sync.Mutex
}

// NewManager wraps a Store with per-session serialization.
func NewManager(store Store) *Manager {
	return &Manager{store: store}
}

// Store exposes the underlying store for read-only callers.
func (m *Manager) Store() Store {
	return m.store
}

func (m *Manager) lockFor(sessionID string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(sessionID))
	return &m.locks[h.Sum32()%lockStripes]
}

// WithSession loads (or creates) the session state, runs fn under the
// session's lock, and saves the state afterward. fn's state changes are
// persisted only when fn returns nil, keeping each message atomic.
func (m *Manager) WithSession(ctx context.Context, sessionID string, fn func(*model.State) error) error {
	mu := m.lockFor(sessionID)
	mu.Lock()
	defer mu.Unlock()

	st, err := m.store.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	if st == nil {
		st = model.NewState(sessionID)
	}

	if err := fn(st); err != nil {
		return err
	}

	return m.store.Save(ctx, st)
}

// Peek returns the current state without locking for mutation. Callers
// must treat the result as read-only.
func (m *Manager) Peek(ctx context.Context, sessionID string) (*model.State, error) {
	return m.store.Get(ctx, sessionID)
}

// Sweep runs DeleteExpired on a ticker until ctx is canceled. It is a
// background, low-priority loop; it never touches live sessions.
func (m *Manager) Sweep(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return eris.New("session: sweep interval must be positive")
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			n, err := m.store.DeleteExpired(ctx)
			if err != nil {
				zap.L().Warn("session sweep failed", zap.Error(err))
				continue
			}
			if n > 0 {
				zap.L().Info("expired sessions removed", zap.Int("count", n))
			}
		}
	}
}
