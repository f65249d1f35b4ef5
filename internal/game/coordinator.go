// Package game owns session state transitions: create, join, guess and
// reset. All load-modify-persist sequences for one session id run under
// that session's lock, so concurrent actions cannot lose updates.
package game

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	constants "vortdiveno/internal/constants"
	models "vortdiveno/internal/models"
	"vortdiveno/internal/store"
	util "vortdiveno/internal/util"
	"vortdiveno/internal/words"
)

// Outcome is the round-ending determination attached to a guess. It is a
// transient broadcast annotation, never persisted.
type Outcome string

const (
	OutcomeNone Outcome = ""
	OutcomeWin  Outcome = "win"
	OutcomeLoss Outcome = "loss"
)

// Broadcaster is the slice of the connection registry the coordinator
// needs for the reset notification.
type Broadcaster interface {
	Broadcast(sessionID string, message any) models.BroadcastResult
}

type Coordinator struct {
	store       store.GameStore
	words       *words.Source
	broadcaster Broadcaster

	mu    sync.Mutex
	locks map[string]*sessionLock
}

type sessionLock struct {
	mu         sync.Mutex
	lastAccess time.Time
}

func NewCoordinator(st store.GameStore, src *words.Source, b Broadcaster) *Coordinator {
	return &Coordinator{
		store:       st,
		words:       src,
		broadcaster: b,
		locks:       make(map[string]*sessionLock),
	}
}

// lockSession serializes actions on one session id. The returned func
// releases the lock.
func (c *Coordinator) lockSession(sessionID string) func() {
	c.mu.Lock()
	l, ok := c.locks[sessionID]
	if !ok {
		l = &sessionLock{}
		c.locks[sessionID] = l
	}
	l.lastAccess = time.Now()
	c.mu.Unlock()

	l.mu.Lock()
	return l.mu.Unlock
}

// StartLockJanitor drops session locks idle for longer than maxIdle.
// Locks currently held are skipped.
func (c *Coordinator) StartLockJanitor(interval, maxIdle time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for range ticker.C {
			c.cleanupStaleLocks(maxIdle)
		}
	}()
	util.LogInfo("Started session lock janitor")
}

func (c *Coordinator) cleanupStaleLocks(maxIdle time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cutoff := time.Now().Add(-maxIdle)
	removed := 0
	for id, l := range c.locks {
		if l.lastAccess.Before(cutoff) && l.mu.TryLock() {
			l.mu.Unlock()
			delete(c.locks, id)
			removed++
		}
	}
	if removed > 0 {
		util.LogInfo("Cleaned up %d stale session locks", removed)
	}
}

func (c *Coordinator) newState(ctx context.Context) *models.GameState {
	return &models.GameState{
		Answer:  c.words.RandomWord(ctx),
		Guesses: []models.GuessRecord{},
		Players: []string{},
	}
}

// loadOrCreate absorbs store read failures: a missing session and an
// unreachable store both yield fresh state so the action can proceed.
func (c *Coordinator) loadOrCreate(ctx context.Context, sessionID string) *models.GameState {
	state, err := c.store.Get(ctx, sessionID)
	if err == nil {
		return state
	}
	if !errors.Is(err, store.ErrNotFound) {
		util.LogWarn("Store read failed for session %s, using fresh state: %v", sessionID, err)
	}
	return c.newState(ctx)
}

// CreateSession generates a new session id, persists fresh state under
// it and returns both. A persist failure is surfaced to the caller.
func (c *Coordinator) CreateSession(ctx context.Context) (string, *models.GameState, error) {
	sessionID := uuid.NewString()
	state := c.newState(ctx)
	if err := c.store.Set(ctx, sessionID, state); err != nil {
		return sessionID, state, err
	}
	util.LogInfo("Created session %s", sessionID)
	return sessionID, state, nil
}

// ResetSession clears guesses and draws a new answer, keeping the
// roster. An unknown session id is not an error: fresh state is
// synthesized for it. The resulting state is broadcast to the session's
// connections tagged as a reset; delivery failures are non-fatal.
func (c *Coordinator) ResetSession(ctx context.Context, sessionID string) (*models.GameState, error) {
	unlock := c.lockSession(sessionID)
	defer unlock()

	state, err := c.store.Get(ctx, sessionID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			util.LogWarn("Store read failed during reset of %s, using fresh state: %v", sessionID, err)
		}
		state = c.newState(ctx)
	} else {
		state.Guesses = []models.GuessRecord{}
		state.Answer = c.words.RandomWord(ctx)
	}

	persistErr := c.store.Set(ctx, sessionID, state)

	if c.broadcaster != nil {
		msg := state.Message()
		msg.Type = constants.BroadcastTypeReset
		if res := c.broadcaster.Broadcast(sessionID, msg); res.Failed > 0 {
			util.LogWarn("Reset broadcast for session %s: %d delivered, %d failed", sessionID, res.Delivered, res.Failed)
		}
	}

	return state, persistErr
}

// ApplyJoin appends the player to the roster if new and non-empty, then
// persists with refreshed expiry. Rejoining is a no-op.
func (c *Coordinator) ApplyJoin(ctx context.Context, sessionID, player string) (*models.GameState, error) {
	unlock := c.lockSession(sessionID)
	defer unlock()

	state := c.loadOrCreate(ctx, sessionID)
	if player != "" && !state.HasPlayer(player) {
		state.Players = append(state.Players, player)
	}
	return state, c.store.Set(ctx, sessionID, state)
}

// ApplyGuess records a guess and determines the round outcome.
//
// The six-guess cap is strict: a guess arriving with six already
// recorded appends nothing and produces no outcome. When a guess is
// accepted, matching the answer wins even if it is the sixth attempt;
// a sixth non-matching attempt loses. Comparison is byte-for-byte.
func (c *Coordinator) ApplyGuess(ctx context.Context, sessionID, player, guess string) (*models.GameState, Outcome, error) {
	unlock := c.lockSession(sessionID)
	defer unlock()

	state := c.loadOrCreate(ctx, sessionID)
	if player != "" && !state.HasPlayer(player) {
		state.Players = append(state.Players, player)
	}

	outcome := OutcomeNone
	if player != "" && guess != "" {
		prior := len(state.Guesses)
		if prior < constants.MaxGuesses {
			state.Guesses = append(state.Guesses, models.GuessRecord{
				Name:      player,
				Timestamp: float64(time.Now().UnixMilli()) / 1000,
				Guess:     guess,
			})
			switch {
			case guess == state.Answer:
				outcome = OutcomeWin
			case prior == constants.MaxGuesses-1:
				outcome = OutcomeLoss
			}
		} else {
			util.LogWarn("Session %s ignored guess by %q after limit reached", sessionID, player)
		}
	}

	return state, outcome, c.store.Set(ctx, sessionID, state)
}
