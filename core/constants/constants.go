package constants

import "time"

const (
	DefaultTimeout        = 10 * time.Second
	DefaultRequestTimeout = 15 * time.Second

	ContextTokenData = "token_data"

	ScopeTokenAccess = "access"
	ScopeTokenInvite = "invite"
)

// Database pool
const (
	DatabaseMaxOpenConns    = 25
	DatabaseMaxIdleConns    = 10
	DatabaseConnMaxLifetime = 30 // minutes
	DatabaseSSLMode         = "disable"
)

// Redis keys and channels
const (
	RedisChannelEventChanged = "event:changed:"
	RedisKeyBusyEvents       = "calendar:busy:"
	RedisKeyOAuthState       = "calendar:oauth_state:"
)

// Background task types
const (
	TaskCalendarSyncBusy = "calendar:sync_busy"
	TaskEventExportICS   = "event:export_ics"
)

// Scheduling defaults
const (
	DefaultEditSuppressionWindow = 1500 * time.Millisecond
	DefaultSaveDebounce          = 500 * time.Millisecond
	DefaultSessionIdleTimeout    = 10 * time.Minute
	DefaultProposalLimit         = 10
	DefaultBusyCacheTTL          = 10 * time.Minute
	DefaultExportDelay           = 5 * time.Second
	OAuthStateTTL                = 10 * time.Minute
)
