package model

import "time"

// Token types carried in the "type" claim and recorded in revoked_tokens.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// Widths of refresh_tokens.device_id and refresh_tokens.user_agent.
const (
	MaxDeviceIDLen  = 128
	MaxUserAgentLen = 512
)

// RefreshRecord models a row of `refresh_tokens`. A row is written for every
// issued refresh token and is never deleted; revocation flips Revoked.
type RefreshRecord struct {
	ID        uint64
	UserID    uint64
	JTI       string
	DeviceID  string
	UserAgent *string // nil when the client sent no User-Agent
	Revoked   bool
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Live reports whether the record can still be exchanged at now.
func (r RefreshRecord) Live(now time.Time) bool {
	return !r.Revoked && now.Before(r.ExpiresAt)
}

// RevokedToken models a row of `revoked_tokens`, the blacklist of jti values
// invalidated before their natural expiry.
type RevokedToken struct {
	ID        uint64
	UserID    uint64
	JTI       string
	TokenType string
	ExpiresAt time.Time
	CreatedAt time.Time
}
