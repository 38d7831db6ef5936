// Package pending implements phase 1 of the two-phase confirmation protocol
// for destructive commands.
//
// When a confirmation-required intent is previewed, a signed, time-bounded
// action token is issued and persisted. The preview message shown to the
// group references the token. Phase 2 — consuming the token to actually
// execute the action — is a separate workflow and is not implemented here.
package pending

import "time"

// Status describes the lifecycle state of a pending action.
type Status string

const (
	// StatusPending means the action awaits confirmation.
	StatusPending Status = "pending"
	// StatusExpired means the confirmation window elapsed.
	StatusExpired Status = "expired"
)

// Action is one persisted pending action.
type Action struct {
	// ID is the random token identifier embedded in the preview message.
	ID string
	// Intent is the gated intent key (e.g. "book_court").
	Intent string
	// ParamsJSON is the JSON-encoded parameter map captured at preview time.
	ParamsJSON string
	// ChatID is the conversation the preview was sent to.
	ChatID string
	// RequestedBy identifies the sender who issued the command.
	RequestedBy string
	// Signature is the hex HMAC-SHA256 over id|intent|expiry, proving the
	// token was issued by this process.
	Signature string
	// Status is the lifecycle state.
	Status Status
	// CreatedAt is when the token was issued.
	CreatedAt time.Time
	// ExpiresAt bounds the confirmation window.
	ExpiresAt time.Time
}
