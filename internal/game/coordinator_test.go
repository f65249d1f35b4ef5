package game_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	constants "vortdiveno/internal/constants"
	"vortdiveno/internal/game"
	models "vortdiveno/internal/models"
	"vortdiveno/internal/store"
	"vortdiveno/internal/words"
)

type recordingBroadcaster struct {
	mu       sync.Mutex
	messages []models.StateMessage
}

func (b *recordingBroadcaster) Broadcast(_ string, message any) models.BroadcastResult {
	b.mu.Lock()
	defer b.mu.Unlock()
	if msg, ok := message.(models.StateMessage); ok {
		b.messages = append(b.messages, msg)
	}
	return models.BroadcastResult{Delivered: 1}
}

type failingReadStore struct {
	inner store.GameStore
}

func (s *failingReadStore) Get(context.Context, string) (*models.GameState, error) {
	return nil, errors.New("connection refused")
}

func (s *failingReadStore) Set(ctx context.Context, id string, st *models.GameState) error {
	return s.inner.Set(ctx, id, st)
}

func (s *failingReadStore) Exists(ctx context.Context, id string) (bool, error) {
	return s.inner.Exists(ctx, id)
}

func (s *failingReadStore) Ping(context.Context) error {
	return errors.New("connection refused")
}

func newTestCoordinator(t *testing.T, wordList ...string) (*game.Coordinator, *store.MemoryStore, *recordingBroadcaster) {
	t.Helper()
	st := store.NewMemoryStore(0)
	b := &recordingBroadcaster{}
	src, err := words.NewSource(wordList, "")
	require.NoError(t, err)
	coord := game.NewCoordinator(st, src, b)
	return coord, st, b
}

func TestCreateSessionPersistsFreshState(t *testing.T) {
	coord, st, _ := newTestCoordinator(t, "crane")
	ctx := context.Background()

	id, state, err := coord.CreateSession(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, id)
	assert.Equal(t, "crane", state.Answer)
	assert.Empty(t, state.Players)
	assert.Empty(t, state.Guesses)

	persisted, err := st.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, state, persisted)
}

func TestApplyJoinIsIdempotentAndOrdered(t *testing.T) {
	coord, _, _ := newTestCoordinator(t, "crane")
	ctx := context.Background()

	id, _, err := coord.CreateSession(ctx)
	require.NoError(t, err)

	for _, name := range []string{"alice", "bob", "alice", ""} {
		_, err := coord.ApplyJoin(ctx, id, name)
		require.NoError(t, err)
	}

	state, err := coord.ApplyJoin(ctx, id, "bob")
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob"}, state.Players)
}

func TestApplyGuessWinBeatsAttemptCapOnSixthGuess(t *testing.T) {
	coord, _, _ := newTestCoordinator(t, "crane")
	ctx := context.Background()

	id, _, err := coord.CreateSession(ctx)
	require.NoError(t, err)

	for _, guess := range []string{"stone", "plant", "brick", "flame", "ghost"} {
		_, outcome, err := coord.ApplyGuess(ctx, id, "alice", guess)
		require.NoError(t, err)
		assert.Equal(t, game.OutcomeNone, outcome)
	}

	state, outcome, err := coord.ApplyGuess(ctx, id, "alice", "crane")
	require.NoError(t, err)
	assert.Equal(t, game.OutcomeWin, outcome)
	assert.Len(t, state.Guesses, constants.MaxGuesses)
}

func TestApplyGuessLossOnSixthMissAndStrictCap(t *testing.T) {
	coord, _, _ := newTestCoordinator(t, "crane")
	ctx := context.Background()

	id, _, err := coord.CreateSession(ctx)
	require.NoError(t, err)

	misses := []string{"stone", "plant", "brick", "flame", "ghost", "slate"}
	var outcome game.Outcome
	for _, guess := range misses {
		_, outcome, err = coord.ApplyGuess(ctx, id, "alice", guess)
		require.NoError(t, err)
	}
	assert.Equal(t, game.OutcomeLoss, outcome)

	// A seventh submission appends nothing and produces no outcome,
	// even when it matches the answer.
	state, outcome, err := coord.ApplyGuess(ctx, id, "alice", "crane")
	require.NoError(t, err)
	assert.Equal(t, game.OutcomeNone, outcome)
	assert.Len(t, state.Guesses, constants.MaxGuesses)
	assert.Equal(t, "slate", state.Guesses[constants.MaxGuesses-1].Guess)
}

func TestApplyGuessComparesByteForByte(t *testing.T) {
	coord, _, _ := newTestCoordinator(t, "crane")
	ctx := context.Background()

	id, _, err := coord.CreateSession(ctx)
	require.NoError(t, err)

	state, outcome, err := coord.ApplyGuess(ctx, id, "alice", "CRANE")
	require.NoError(t, err)
	assert.Equal(t, game.OutcomeNone, outcome)
	assert.Len(t, state.Guesses, 1)
}

func TestApplyGuessJoinsUnknownPlayer(t *testing.T) {
	coord, _, _ := newTestCoordinator(t, "crane")
	ctx := context.Background()

	id, _, err := coord.CreateSession(ctx)
	require.NoError(t, err)

	state, _, err := coord.ApplyGuess(ctx, id, "carol", "stone")
	require.NoError(t, err)
	assert.Equal(t, []string{"carol"}, state.Players)
}

func TestApplyGuessWithoutGuessTextRecordsNothing(t *testing.T) {
	coord, _, _ := newTestCoordinator(t, "crane")
	ctx := context.Background()

	id, _, err := coord.CreateSession(ctx)
	require.NoError(t, err)

	state, outcome, err := coord.ApplyGuess(ctx, id, "alice", "")
	require.NoError(t, err)
	assert.Equal(t, game.OutcomeNone, outcome)
	assert.Empty(t, state.Guesses)
}

func TestGuessCapHoldsUnderConcurrency(t *testing.T) {
	coord, st, _ := newTestCoordinator(t, "crane")
	ctx := context.Background()

	id, _, err := coord.CreateSession(ctx)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, _, _ = coord.ApplyGuess(ctx, id, "alice", fmt.Sprintf("gues%d", n%10))
		}(i)
	}
	wg.Wait()

	state, err := st.Get(ctx, id)
	require.NoError(t, err)
	assert.Len(t, state.Guesses, constants.MaxGuesses)
}

func TestResetClearsGuessesKeepsPlayersAndBroadcasts(t *testing.T) {
	coord, st, broadcaster := newTestCoordinator(t, "plumb")
	ctx := context.Background()

	seeded := &models.GameState{
		Answer:  "crane",
		Players: []string{"a", "b"},
		Guesses: []models.GuessRecord{
			{Name: "a", Guess: "stone"}, {Name: "b", Guess: "plant"},
			{Name: "a", Guess: "brick"}, {Name: "b", Guess: "flame"},
			{Name: "a", Guess: "ghost"},
		},
	}
	require.NoError(t, st.Set(ctx, "sess-1", seeded))

	state, err := coord.ResetSession(ctx, "sess-1")
	require.NoError(t, err)
	assert.Empty(t, state.Guesses)
	assert.Equal(t, []string{"a", "b"}, state.Players)
	assert.Equal(t, "plumb", state.Answer)

	require.Len(t, broadcaster.messages, 1)
	assert.Equal(t, constants.BroadcastTypeReset, broadcaster.messages[0].Type)
	assert.Equal(t, "plumb", broadcaster.messages[0].Answer)

	persisted, err := st.Get(ctx, "sess-1")
	require.NoError(t, err)
	assert.Empty(t, persisted.Guesses)
}

func TestResetUnknownSessionSynthesizesFreshState(t *testing.T) {
	coord, st, _ := newTestCoordinator(t, "crane")
	ctx := context.Background()

	state, err := coord.ResetSession(ctx, "never-seen")
	require.NoError(t, err)
	assert.Equal(t, "crane", state.Answer)
	assert.Empty(t, state.Players)

	exists, err := st.Exists(ctx, "never-seen")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestStoreReadFailureFallsBackToFreshState(t *testing.T) {
	inner := store.NewMemoryStore(0)
	src, err := words.NewSource([]string{"crane"}, "")
	require.NoError(t, err)
	coord := game.NewCoordinator(&failingReadStore{inner: inner}, src, nil)
	ctx := context.Background()

	state, outcome, err := coord.ApplyGuess(ctx, "sess-2", "alice", "crane")
	require.NoError(t, err)
	assert.Equal(t, game.OutcomeWin, outcome)
	assert.Equal(t, []string{"alice"}, state.Players)
}
