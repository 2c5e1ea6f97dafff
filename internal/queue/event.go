// Package queue defines the auth events published to the message broker and
// the publishers and consumer that move them.
package queue

import "time"

// Event types.
const (
	EventUserRegistered = "user.registered"
	EventUserLoggedIn   = "user.logged_in"
	EventTokenRefreshed = "token.refreshed"
	EventUserLoggedOut  = "user.logged_out"
)

// AuthEvent is published after an auth operation commits. It carries enough
// for an audit trail without querying the primary database.
type AuthEvent struct {
	Type          string `json:"type"`
	UserID        uint64 `json:"user_id"`
	DeviceID      string `json:"device_id"`
	OccurredAt    string `json:"occurred_at"`
	CorrelationID string `json:"correlation_id,omitempty"`
}

// NewAuthEvent stamps an event with the current UTC time.
func NewAuthEvent(typ string, userID uint64, deviceID, correlationID string) AuthEvent {
	return AuthEvent{
		Type:          typ,
		UserID:        userID,
		DeviceID:      deviceID,
		OccurredAt:    time.Now().UTC().Format(time.RFC3339),
		CorrelationID: correlationID,
	}
}
