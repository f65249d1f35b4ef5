// Package store owns durable session state. Implementations are keyed by
// session id, expire entries after a sliding TTL refreshed on every write,
// and may be backed by redis (production) or memory (tests, development).
package store

import (
	"context"
	"errors"

	models "vortdiveno/internal/models"
)

// ErrNotFound is returned by Get when no live state exists for a session id.
// Callers treat it as non-fatal and synthesize fresh state.
var ErrNotFound = errors.New("session not found")

type GameStore interface {
	// Get returns a copy of the persisted state, or ErrNotFound.
	Get(ctx context.Context, sessionID string) (*models.GameState, error)

	// Set persists the state and refreshes its expiry.
	Set(ctx context.Context, sessionID string, state *models.GameState) error

	// Exists reports whether live state is present for the session id.
	Exists(ctx context.Context, sessionID string) (bool, error)

	// Ping checks backend connectivity.
	Ping(ctx context.Context) error
}
