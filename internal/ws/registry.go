// Package ws tracks live connections per session and fans state
// snapshots out to them.
package ws

import (
	"sync"

	models "vortdiveno/internal/models"
	util "vortdiveno/internal/util"
)

// Conn is the slice of a websocket connection the registry needs.
// *gorilla/websocket.Conn satisfies it through the mutex wrapper below.
type Conn interface {
	WriteJSON(v any) error
	Close() error
}

// Registry maps session id -> player name -> connection. It owns no
// game data, only liveness and routing. Registering a player name that
// already holds a slot replaces (and closes) the previous connection.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]map[string]Conn
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]map[string]Conn)}
}

func (r *Registry) Register(sessionID, player string, conn Conn) {
	r.mu.Lock()
	conns, ok := r.sessions[sessionID]
	if !ok {
		conns = make(map[string]Conn)
		r.sessions[sessionID] = conns
	}
	prev, replaced := conns[player]
	conns[player] = conn
	r.mu.Unlock()

	if replaced && prev != conn {
		util.LogInfo("Replacing connection for player %q in session %s", player, sessionID)
		_ = prev.Close()
	}
}

// Unregister removes the player's slot; the session entry itself is
// dropped once its last connection is gone.
func (r *Registry) Unregister(sessionID, player string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	conns, ok := r.sessions[sessionID]
	if !ok {
		return
	}
	delete(conns, player)
	if len(conns) == 0 {
		delete(r.sessions, sessionID)
	}
}

// Broadcast sends the message to every connection registered for the
// session. A failed send is counted and logged but never stops delivery
// to the remaining connections.
func (r *Registry) Broadcast(sessionID string, message any) models.BroadcastResult {
	r.mu.RLock()
	targets := make(map[string]Conn, len(r.sessions[sessionID]))
	for player, conn := range r.sessions[sessionID] {
		targets[player] = conn
	}
	r.mu.RUnlock()

	var res models.BroadcastResult
	for player, conn := range targets {
		if err := conn.WriteJSON(message); err != nil {
			util.LogWarn("Broadcast to player %q in session %s failed: %v", player, sessionID, err)
			res.Failed++
			continue
		}
		res.Delivered++
	}
	return res
}

// ConnectionCount reports the total number of live connections.
func (r *Registry) ConnectionCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	total := 0
	for _, conns := range r.sessions {
		total += len(conns)
	}
	return total
}

// SessionCount reports the number of sessions with at least one
// connection.
func (r *Registry) SessionCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
