// Package session owns questionnaire state persistence: the Store
// interface, its memory, SQLite and Postgres implementations, and the
// Manager that serializes access per session id.
package session

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/hidrotec-mx/intake-cli/internal/model"
)

// Store persists one questionnaire state per session id. Get returns
// (nil, nil) for missing or expired sessions. DeleteExpired removes whole
// stale sessions only; it never partially mutates a live one.
type Store interface {
	Get(ctx context.Context, sessionID string) (*model.State, error)
	Save(ctx context.Context, state *model.State) error
	Delete(ctx context.Context, sessionID string) error
	List(ctx context.Context) ([]model.State, error)
	DeleteExpired(ctx context.Context) (int, error)
	Migrate(ctx context.Context) error
	Close() error
}

// NewSessionID mints a fresh session identifier.
func NewSessionID() string {
	return uuid.New().String()
}

// expiryCutoff returns the newest UpdatedAt that still counts as expired.
func expiryCutoff(ttl time.Duration) time.Time {
	return time.Now().UTC().Add(-ttl)
}
