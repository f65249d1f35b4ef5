package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	constants "vortdiveno/internal/constants"
	"vortdiveno/internal/game"
	"vortdiveno/internal/handlers"
	"vortdiveno/internal/store"
	util "vortdiveno/internal/util"
	"vortdiveno/internal/words"
	"vortdiveno/internal/ws"
)

func main() {
	_ = godotenv.Load()

	isProduction := os.Getenv("GIN_MODE") == "release" || os.Getenv("ENV") == "production"
	util.LogInfo("Starting Vortdiveno in %s mode", map[bool]string{true: "production", false: "development"}[isProduction])
	if isProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	wordsFile := util.GetEnv("WORDS_FILE", "data/words.json")
	wordList, err := words.Load(wordsFile)
	if err != nil {
		util.LogFatal("Failed to load words: %v", err)
	}
	source, err := words.NewSource(wordList, util.GetEnv("WORD_API_URL", constants.DefaultWordAPIURL))
	if err != nil {
		util.LogFatal("Word list %s unusable: %v", wordsFile, err)
	}

	client := newRedisClient()
	sessionTTL := util.GetEnvDuration("SESSION_TTL", constants.DefaultSessionTTL)
	gameStore := store.NewRedisStore(client, sessionTTL)
	if err := gameStore.Ping(context.Background()); err != nil {
		// Degraded start is allowed; actions fall back to fresh state
		// until the store comes back.
		util.LogWarn("Store not reachable at startup: %v", err)
	}

	registry := ws.NewRegistry()
	coordinator := game.NewCoordinator(gameStore, source, registry)
	coordinator.StartLockJanitor(10*time.Minute, time.Hour)
	gateway := ws.NewGateway(registry, coordinator)

	app := &handlers.App{
		Coordinator:    coordinator,
		Registry:       registry,
		Gateway:        gateway,
		Store:          gameStore,
		WordCount:      len(wordList),
		StartTime:      time.Now(),
		RateLimitRPS:   util.GetEnvInt("RATE_LIMIT_RPS", 5),
		RateLimitBurst: util.GetEnvInt("RATE_LIMIT_BURST", 10),
		RateLimiterTTL: util.GetEnvDuration("RATE_LIMITER_TTL", time.Hour),
	}
	app.StartLimiterJanitor(30 * time.Minute)

	startServer(handlers.NewRouter(app))
}

func newRedisClient() *redis.Client {
	if url := os.Getenv("REDIS_URL"); url != "" {
		opts, err := redis.ParseURL(url)
		if err != nil {
			util.LogFatal("Invalid REDIS_URL: %v", err)
		}
		util.LogInfo("Redis client initialized from REDIS_URL")
		return redis.NewClient(opts)
	}

	host := util.GetEnv("REDIS_HOST", "localhost")
	port := util.GetEnv("REDIS_PORT", "6379")
	util.LogInfo("Redis client initialized with host: %s, port: %s", host, port)
	return redis.NewClient(&redis.Options{Addr: host + ":" + port})
}

func startServer(router *gin.Engine) {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	// No global read/write timeouts: websocket connections are
	// long-lived and would be severed by them.
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	idleConnsClosed := make(chan struct{})
	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, syscall.SIGINT, syscall.SIGTERM)
		<-sigint
		util.LogInfo("Shutdown signal received, shutting down server gracefully...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			util.LogWarn("HTTP server Shutdown: %v", err)
		}
		close(idleConnsClosed)
	}()

	util.LogInfo("Server starting on http://localhost:%s", port)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		util.LogFatal("Server failed to start: %v", err)
	}
	<-idleConnsClosed
	util.LogInfo("Server shutdown complete")
}
