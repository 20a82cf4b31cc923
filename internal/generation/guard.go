// internal/generation/guard.go
package generation

import (
	"context"
	"errors"
	"time"

	"sales-script-workers/internal/common/database"

	"github.com/google/uuid"
)

const keyPrefix = "scripts:generation:"

// Store is the subset of the redis wrapper the guard needs.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
}

// Guard records the newest generation id per session in redis so that workers in
// different processes agree on which result is current. Ids expire after ttl.
type Guard struct {
	store Store
	ttl   time.Duration
}

func NewGuard(store Store, ttl time.Duration) *Guard {
	return &Guard{store: store, ttl: ttl}
}

// Claim makes a fresh generation id the newest for session.
func (g *Guard) Claim(ctx context.Context, session string) (string, error) {
	id := uuid.NewString()
	if err := g.store.Set(ctx, keyPrefix+session, id, g.ttl); err != nil {
		return "", err
	}
	return id, nil
}

// IsCurrent reports whether id is still the newest claim for session.
// An expired record means nothing newer was claimed.
func (g *Guard) IsCurrent(ctx context.Context, session, id string) (bool, error) {
	latest, err := g.store.Get(ctx, keyPrefix+session)
	if errors.Is(err, database.ErrNotFound) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return latest == id, nil
}
