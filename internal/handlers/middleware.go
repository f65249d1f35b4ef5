package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
	constants "vortdiveno/internal/constants"
	util "vortdiveno/internal/util"
)

type rateLimiterEntry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := c.Request.Header.Get("X-Request-Id")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		ctx := context.WithValue(c.Request.Context(), constants.RequestIDKey, reqID)
		c.Request = c.Request.WithContext(ctx)
		c.Header("X-Request-Id", reqID)
		c.Next()
	}
}

func SecurityHeadersMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Next()
	}
}

func (app *App) getLimiter(key string) *rate.Limiter {
	app.limiterMutex.RLock()
	entry, ok := app.limiterMap[key]
	app.limiterMutex.RUnlock()
	if ok {
		app.limiterMutex.Lock()
		if entry, ok = app.limiterMap[key]; ok {
			entry.lastAccess = time.Now()
		}
		app.limiterMutex.Unlock()
		return entry.limiter
	}

	app.limiterMutex.Lock()
	defer app.limiterMutex.Unlock()
	if app.limiterMap == nil {
		app.limiterMap = make(map[string]*rateLimiterEntry)
	}
	if entry, ok = app.limiterMap[key]; ok {
		entry.lastAccess = time.Now()
		return entry.limiter
	}

	rps := app.RateLimitRPS
	if rps <= 0 {
		rps = 1
	}
	lim := rate.NewLimiter(rate.Every(time.Second/time.Duration(rps)), app.RateLimitBurst)
	app.limiterMap[key] = &rateLimiterEntry{limiter: lim, lastAccess: time.Now()}
	return lim
}

func (app *App) RateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !app.getLimiter(c.ClientIP()).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests. Please slow down."})
			return
		}
		c.Next()
	}
}

func (app *App) cleanupStaleRateLimiters() {
	app.limiterMutex.Lock()
	defer app.limiterMutex.Unlock()

	cutoff := time.Now().Add(-app.RateLimiterTTL)
	removed := 0
	for key, entry := range app.limiterMap {
		if entry.lastAccess.Before(cutoff) {
			delete(app.limiterMap, key)
			removed++
		}
	}
	if removed > 0 {
		util.LogInfo("Cleaned up %d stale rate limiters", removed)
	}
}

func (app *App) StartLimiterJanitor(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for range ticker.C {
			app.cleanupStaleRateLimiters()
		}
	}()
	util.LogInfo("Started rate limiter janitor")
}
