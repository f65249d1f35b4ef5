package handlers

import (
	"github.com/gin-contrib/cors"
	ginGzip "github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	cachecontrol "go.eigsys.de/gin-cachecontrol/v2"
	constants "vortdiveno/internal/constants"
	util "vortdiveno/internal/util"
)

// NewRouter wires middleware and routes. Kept out of main so tests can
// exercise the full HTTP surface.
func NewRouter(app *App) *gin.Engine {
	router := gin.Default()

	router.Use(RequestIDMiddleware())
	router.Use(SecurityHeadersMiddleware())

	// The frontend is served from a separate origin; mirror its
	// permissive CORS policy.
	router.Use(cors.New(cors.Config{
		AllowOriginFunc:  func(string) bool { return true },
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "X-Request-Id"},
		AllowCredentials: true,
	}))

	router.Use(ginGzip.Gzip(ginGzip.DefaultCompression,
		ginGzip.WithExcludedPaths([]string{"/ws", constants.RouteHealth})))

	router.Use(cachecontrol.New(cachecontrol.Config{
		NoStore:        true,
		NoCache:        true,
		MustRevalidate: true,
	}))

	if err := router.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		util.LogWarn("Failed to set trusted proxies: %v", err)
	}

	router.POST(constants.RouteCreateSession, app.RateLimitMiddleware(), func(c *gin.Context) { CreateSessionHandler(app, c) })
	router.POST(constants.RouteResetSession, app.RateLimitMiddleware(), func(c *gin.Context) { ResetSessionHandler(app, c) })
	router.GET(constants.RouteHealth, func(c *gin.Context) { HealthHandler(app, c) })
	router.GET(constants.RouteWebSocket, func(c *gin.Context) { WebSocketHandler(app, c) })

	return router
}
