package events

import "time"

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTokenIssued   EventType = "token_issued"
	EventTokenRejected EventType = "token_rejected"
	EventTokenRevoked  EventType = "token_revoked"
	EventAccessDenied  EventType = "access_denied"
)

// Event is an audit record emitted by the token service and authorization guard.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	ClientID  string    `json:"client_id,omitempty"`
	Subject   string    `json:"subject,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload,omitempty"`
}

// TokenIssuedPayload payload.
type TokenIssuedPayload struct {
	TokenID   string    `json:"token_id"`
	GrantType string    `json:"grant_type"`
	Scopes    []string  `json:"scopes"`
	ExpiresAt time.Time `json:"expires_at"`
}

// TokenRejectedPayload payload.
type TokenRejectedPayload struct {
	GrantType string `json:"grant_type"`
	Reason    string `json:"reason"`
}

// TokenRevokedPayload payload.
type TokenRevokedPayload struct {
	TokenID string `json:"token_id"`
}

// AccessDeniedPayload payload.
type AccessDeniedPayload struct {
	Method       string   `json:"method"`
	Path         string   `json:"path"`
	Requirements []string `json:"requirements"`
}
