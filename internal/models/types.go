package models

import "slices"

// GuessRecord is a single submitted guess. Timestamp is unix seconds,
// matching the persisted record shape.
type GuessRecord struct {
	Name      string  `json:"name"`
	Timestamp float64 `json:"timestamp"`
	Guess     string  `json:"guess"`
}

// GameState is the full persisted state of one session.
type GameState struct {
	Answer  string        `json:"answer"`
	Guesses []GuessRecord `json:"guesses"`
	Players []string      `json:"players"`
}

func (g *GameState) HasPlayer(name string) bool {
	return slices.Contains(g.Players, name)
}

// Clone returns a deep copy so callers can mutate freely without
// aliasing the stored slices.
func (g *GameState) Clone() *GameState {
	c := *g
	c.Guesses = slices.Clone(g.Guesses)
	c.Players = slices.Clone(g.Players)
	return &c
}

// Message builds the broadcast snapshot for this state. Result and Type
// are filled in by the caller when applicable.
func (g *GameState) Message() StateMessage {
	return StateMessage{
		Players: g.Players,
		Guesses: g.Guesses,
		Answer:  g.Answer,
	}
}

// StateMessage is the payload fanned out to every connection of a session.
type StateMessage struct {
	Players []string      `json:"players"`
	Guesses []GuessRecord `json:"guesses"`
	Answer  string        `json:"answer"`
	Result  string        `json:"result,omitempty"`
	Type    string        `json:"type,omitempty"`
}

// ClientMessage is an inbound websocket message. All fields are optional;
// a message-level player overrides the connection's path player.
type ClientMessage struct {
	Player string `json:"player"`
	Guess  string `json:"guess"`
	Type   string `json:"type"`
}

// BroadcastResult reports per-recipient delivery of one broadcast.
type BroadcastResult struct {
	Delivered int
	Failed    int
}
