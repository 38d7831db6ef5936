package pending

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Store persists and retrieves pending actions.
type Store struct {
	db *sql.DB
}

// NewStore creates a Store backed by the given database. The schema is
// managed by the store package's migrations.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Create persists a new pending action and returns it with a fresh token ID.
func (s *Store) Create(ctx context.Context, intent, paramsJSON, chatID, requestedBy, signature string, ttl time.Duration) (*Action, error) {
	now := time.Now()
	a := &Action{
		ID:          uuid.NewString(),
		Intent:      intent,
		ParamsJSON:  paramsJSON,
		ChatID:      chatID,
		RequestedBy: requestedBy,
		Signature:   signature,
		Status:      StatusPending,
		CreatedAt:   now,
		ExpiresAt:   now.Add(ttl),
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO pending_actions (id, intent, params_json, chat_id, requested_by, signature, status, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, 'pending', ?, ?)
	`, a.ID, a.Intent, a.ParamsJSON, a.ChatID, a.RequestedBy, a.Signature, a.CreatedAt, a.ExpiresAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create pending action: %w", err)
	}

	return a, nil
}

// Get retrieves a pending action by token ID.
func (s *Store) Get(ctx context.Context, id string) (*Action, error) {
	a := &Action{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, intent, params_json, chat_id, requested_by, signature, status, created_at, expires_at
		FROM pending_actions
		WHERE id = ?
	`, id).Scan(
		&a.ID, &a.Intent, &a.ParamsJSON, &a.ChatID, &a.RequestedBy, &a.Signature, &a.Status, &a.CreatedAt, &a.ExpiresAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("pending action not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get pending action: %w", err)
	}
	return a, nil
}

// ExpireStale marks all pending actions past their deadline as expired and
// returns the number affected.
func (s *Store) ExpireStale(ctx context.Context) (int64, error) {
	now := time.Now()
	result, err := s.db.ExecContext(ctx, `
		UPDATE pending_actions
		SET status = 'expired'
		WHERE status = 'pending' AND expires_at < ?
	`, now)
	if err != nil {
		return 0, fmt.Errorf("failed to expire stale actions: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check rows affected: %w", err)
	}
	return n, nil
}
