package handlers

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"vortdiveno/internal/game"
	"vortdiveno/internal/store"
	util "vortdiveno/internal/util"
	"vortdiveno/internal/ws"
)

// App bundles the collaborators the handlers need, injected from main.
type App struct {
	Coordinator *game.Coordinator
	Registry    *ws.Registry
	Gateway     *ws.Gateway
	Store       store.GameStore
	WordCount   int
	StartTime   time.Time

	RateLimitRPS   int
	RateLimitBurst int
	RateLimiterTTL time.Duration
	limiterMutex   sync.RWMutex
	limiterMap     map[string]*rateLimiterEntry
}

func CreateSessionHandler(app *App, c *gin.Context) {
	sessionID, _, err := app.Coordinator.CreateSession(c.Request.Context())
	if err != nil {
		util.LogWarn("Failed to persist new session %s: %v", sessionID, err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "session could not be persisted"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"session_id": sessionID})
}

// ResetSessionHandler is best-effort: the reset is answered 200 even
// when the store write failed, matching the create/guess degradation
// policy. The reset broadcast happens inside the coordinator.
func ResetSessionHandler(app *App, c *gin.Context) {
	sessionID := c.Param("session_id")
	if _, err := app.Coordinator.ResetSession(c.Request.Context(), sessionID); err != nil {
		util.LogWarn("Reset persist failed for session %s: %v", sessionID, err)
	}
	c.Status(http.StatusOK)
}

func HealthHandler(app *App, c *gin.Context) {
	if err := app.Store.Ping(c.Request.Context()); err != nil {
		util.LogWarn("Health check failed: %v", err)
		c.JSON(http.StatusOK, gin.H{
			"status": "unhealthy",
			"error":  err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":             "healthy",
		"store":              "connected",
		"word_count":         app.WordCount,
		"active_sessions":    app.Registry.SessionCount(),
		"active_connections": app.Registry.ConnectionCount(),
		"uptime":             util.FormatUptime(time.Since(app.StartTime)),
		"timestamp":          time.Now().UTC().Format(time.RFC3339),
	})
}

func WebSocketHandler(app *App, c *gin.Context) {
	sessionID := c.Param("session_id")
	player := c.Param("player")
	if sessionID == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "missing session id"})
		return
	}
	app.Gateway.Serve(c.Writer, c.Request, sessionID, player)
}
