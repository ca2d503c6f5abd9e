package constants

import "time"

// Context keys
const (
	ContextKeyExternalID = "external_id"
	ContextKeyClaims     = "identity_claims"
	ContextKeyUser       = "user"
	ContextKeyEvent      = "event"
)

// Session
const (
	SessionCookieName    = "event_session"
	SessionKeyExternalID = "external_id"
	SessionMaxAge        = 86400 * 7
)

// Pagination
const (
	MinPageSize     = 1
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Users
const (
	MinPasswordLength   = 8
	LocalIdentityPrefix = "local_"
	SeedIdentityPrefix  = "seed_"
	UsernameSuffixLen   = 6
	MaxUsernameAttempts = 1000
)

// Tokens
const (
	DefaultTokenTTL = 2 * time.Hour
	TokenIssuer     = "event-platform-api"
)

// AI
const (
	MaxSuggestedKeywords = 10
)
