package ws

import (
	"context"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	constants "vortdiveno/internal/constants"
	"vortdiveno/internal/game"
	models "vortdiveno/internal/models"
	util "vortdiveno/internal/util"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origin policy matches the permissive CORS setup on the HTTP side.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// conn serializes writes; broadcasts arrive from other sessions'
// handler goroutines and gorilla allows only one concurrent writer.
type conn struct {
	mu sync.Mutex
	ws *websocket.Conn
}

func (c *conn) WriteJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ws.WriteJSON(v)
}

func (c *conn) Close() error {
	return c.ws.Close()
}

// Gateway upgrades connections and drives the per-connection message
// loop against the coordinator.
type Gateway struct {
	registry *Registry
	coord    *game.Coordinator
}

func NewGateway(registry *Registry, coord *game.Coordinator) *Gateway {
	return &Gateway{registry: registry, coord: coord}
}

// Serve upgrades the request, registers the connection under the path
// player and processes inbound messages in receipt order until the
// connection drops. Unregistration is triggered by the read loop
// ending, whatever the cause.
func (g *Gateway) Serve(w http.ResponseWriter, r *http.Request, sessionID, player string) {
	sock, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		util.LogWarn("WebSocket upgrade failed for session %s: %v", sessionID, err)
		return
	}

	cn := &conn{ws: sock}
	g.registry.Register(sessionID, player, cn)
	util.LogInfo("Player %q connected to session %s", player, sessionID)

	defer func() {
		g.registry.Unregister(sessionID, player)
		_ = cn.Close()
		util.LogInfo("Player %q disconnected from session %s", player, sessionID)
	}()

	for {
		var msg models.ClientMessage
		if err := sock.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				util.LogWarn("Read error for player %q in session %s: %v", player, sessionID, err)
			}
			return
		}
		g.handleMessage(r.Context(), sessionID, player, msg)
	}
}

// handleMessage applies one inbound message. A create-typed message
// performs a join and broadcasts the roster; the trailing per-message
// broadcast is suppressed for it so clients see exactly one update.
func (g *Gateway) handleMessage(ctx context.Context, sessionID, pathPlayer string, msg models.ClientMessage) {
	player := msg.Player
	if player == "" {
		player = pathPlayer
	}

	isCreate := msg.Type == constants.MessageTypeCreate
	if isCreate && player != "" {
		state, err := g.coord.ApplyJoin(ctx, sessionID, player)
		if err != nil {
			util.LogWarn("Join persist failed for session %s: %v", sessionID, err)
		}
		if res := g.registry.Broadcast(sessionID, state.Message()); res.Failed > 0 {
			util.LogWarn("Roster broadcast for session %s: %d delivered, %d failed", sessionID, res.Delivered, res.Failed)
		}
	}

	state, outcome, err := g.coord.ApplyGuess(ctx, sessionID, player, msg.Guess)
	if err != nil {
		util.LogWarn("Guess persist failed for session %s: %v", sessionID, err)
	}
	if isCreate {
		return
	}

	payload := state.Message()
	payload.Result = string(outcome)
	if res := g.registry.Broadcast(sessionID, payload); res.Failed > 0 {
		util.LogWarn("State broadcast for session %s: %d delivered, %d failed", sessionID, res.Delivered, res.Failed)
	}
}
