// Package roster provides read-only access to player balances.
//
// Balances live in a spreadsheet maintained outside this system; each
// handler invocation fetches a fresh snapshot and nothing is cached across
// requests. Positive balances mean the player owes money.
package roster

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

// Player is one roster entry. The snapshot is read-only; handlers sort and
// filter copies.
type Player struct {
	Name    string
	Balance decimal.Decimal
}

// Source fetches the current player snapshot.
//
// Implementations must be safe for concurrent use. Errors are expected to be
// handled by the calling handler, which renders a degraded user-facing
// message instead of propagating the failure.
type Source interface {
	Players(ctx context.Context) ([]Player, error)
}

// ErrUnconfigured is returned by the Unconfigured source.
var ErrUnconfigured = errors.New("roster: spreadsheet source not configured")

// Unconfigured is a Source used when no spreadsheet is configured. Every
// fetch fails with ErrUnconfigured so handlers degrade the same way they do
// for a transient spreadsheet outage.
type Unconfigured struct{}

// Players always returns ErrUnconfigured.
func (Unconfigured) Players(context.Context) ([]Player, error) {
	return nil, ErrUnconfigured
}
