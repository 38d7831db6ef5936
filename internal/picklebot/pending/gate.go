package pending

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// DefaultTTL bounds the confirmation window when no TTL is configured.
const DefaultTTL = 15 * time.Minute

// Gate issues signed pending-action tokens for confirmation-required
// commands.
type Gate struct {
	store  *Store
	secret []byte
	ttl    time.Duration
}

// NewGate creates a Gate backed by the given Store. secret keys the token
// signatures; ttl controls how long a token remains valid (0 uses
// DefaultTTL).
func NewGate(store *Store, secret []byte, ttl time.Duration) *Gate {
	if ttl == 0 {
		ttl = DefaultTTL
	}
	return &Gate{store: store, secret: secret, ttl: ttl}
}

// Request issues a new pending action for a gated intent and persists it.
func (g *Gate) Request(ctx context.Context, intent string, params map[string]string, chatID, requestedBy string) (*Action, error) {
	if params == nil {
		params = map[string]string{}
	}
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize action params: %w", err)
	}

	// The signature covers id|intent|expiry; the ID is allocated by the
	// store, so sign after creation and update in place.
	a, err := g.store.Create(ctx, intent, string(paramsJSON), chatID, requestedBy, "", g.ttl)
	if err != nil {
		return nil, err
	}
	a.Signature = g.sign(a.ID, a.Intent, a.ExpiresAt)
	if _, err := g.store.db.ExecContext(ctx,
		"UPDATE pending_actions SET signature = ? WHERE id = ?",
		a.Signature, a.ID,
	); err != nil {
		return nil, fmt.Errorf("failed to sign pending action: %w", err)
	}

	return a, nil
}

// Verify reports whether the action's signature matches what this Gate would
// have issued for its ID, intent, and expiry.
func (g *Gate) Verify(a *Action) bool {
	expected := g.sign(a.ID, a.Intent, a.ExpiresAt)
	return hmac.Equal([]byte(expected), []byte(a.Signature))
}

// CheckExpiry marks stale pending actions as expired and returns the count.
func (g *Gate) CheckExpiry(ctx context.Context) (int64, error) {
	return g.store.ExpireStale(ctx)
}

// sign computes the hex HMAC-SHA256 over id|intent|expiry.
func (g *Gate) sign(id, intent string, expiresAt time.Time) string {
	mac := hmac.New(sha256.New, g.secret)
	mac.Write([]byte(id + "|" + intent + "|" + strconv.FormatInt(expiresAt.Unix(), 10)))
	return hex.EncodeToString(mac.Sum(nil))
}
