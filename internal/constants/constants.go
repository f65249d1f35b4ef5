// Package constants holds the game rules, wire labels and routes shared
// across packages.
package constants

import "time"

const (
	MaxGuesses = 6
	WordLength = 5
)

const (
	SessionKeyPrefix  = "wordle-answer-"
	DefaultSessionTTL = 24 * time.Hour
)

const (
	MessageTypeCreate  = "create"
	BroadcastTypeReset = "reset"
)

const (
	RouteCreateSession = "/create_session"
	RouteResetSession  = "/reset_session/:session_id"
	RouteHealth        = "/health"
	RouteWebSocket     = "/ws/:session_id/:player"
)

const (
	DefaultWordAPIURL = "https://random-word-api.vercel.app/api?words=1&length=5"
)

// ContextKey is the type for request-scoped context values, so keys
// cannot collide with other packages' string keys.
type ContextKey string

const (
	RequestIDKey ContextKey = "request_id"
)
