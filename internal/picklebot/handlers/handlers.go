// Package handlers holds the per-intent business logic. Every handler is
// total: collaborator failures are caught locally and rendered as degraded
// user-facing messages, never propagated.
package handlers

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/genechuang/picklebot/internal/picklebot/observability"
	"github.com/genechuang/picklebot/internal/picklebot/pending"
	"github.com/genechuang/picklebot/internal/picklebot/roster"
)

// Signature prefixes every outbound message.
const Signature = "SMAD Picklebot"

// StatusInfo carries the per-collaborator configuration flags shown by the
// status handler. These reflect configuration presence, not live health.
type StatusInfo struct {
	GreenAPIConfigured  bool
	AnthropicConfigured bool
	SheetsConfigured    bool
}

// Registry holds one handler per intent plus their shared dependencies.
type Registry struct {
	roster roster.Source
	gate   *pending.Gate // nil when no pending-action store is configured
	status StatusInfo
	loc    *time.Location
}

// New creates a Registry. gate may be nil; previews then omit the
// confirmation code.
func New(src roster.Source, gate *pending.Gate, status StatusInfo) *Registry {
	loc, err := time.LoadLocation("America/Los_Angeles")
	if err != nil {
		loc = time.UTC
	}
	return &Registry{
		roster: src,
		gate:   gate,
		status: status,
		loc:    loc,
	}
}

// money renders a balance as $X.XX.
func money(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}

// Help returns the command reference.
func (h *Registry) Help() string {
	return fmt.Sprintf(`*%s Commands*

*Read-only:*
/pb help - Show this message
/pb deadbeats - Show players with outstanding balances
/pb balance [name] - Show all balances or specific player
/pb status - Show system status

*Actions (require confirmation):*
/pb book <date> <time> [duration] - Book court
  Example: /pb book 2/4 7pm 2hrs both courts
/pb poll create - Create weekly availability poll
/pb reminders - Send vote reminders

*Options:*
--dry-run - Test command without sending messages
  Example: /pb deadbeats --dry-run

Tip: You can use natural language!
  "/pb book next Tuesday at 7pm for 2 hours"
  "/pb who owes money?"`, Signature)
}

// Deadbeats lists players with positive balances, sorted descending, with a
// total. Roster failures degrade to an unavailable message.
func (h *Registry) Deadbeats(ctx context.Context) string {
	players, err := h.roster.Players(ctx)
	if err != nil {
		observability.WithTrace(ctx).Error("fetching balances failed", "err", err)
		return fmt.Sprintf("*%s*\n\nNo balances available right now. Please try again later.", Signature)
	}

	var deadbeats []roster.Player
	for _, p := range players {
		if p.Balance.IsPositive() {
			deadbeats = append(deadbeats, p)
		}
	}

	if len(deadbeats) == 0 {
		return fmt.Sprintf("*%s*\n\nNo outstanding balances! Everyone is paid up.", Signature)
	}

	sort.Slice(deadbeats, func(i, j int) bool {
		return deadbeats[i].Balance.GreaterThan(deadbeats[j].Balance)
	})

	total := decimal.Zero
	var b strings.Builder
	fmt.Fprintf(&b, "*%s - Outstanding Balances*\n\n", Signature)
	for _, p := range deadbeats {
		fmt.Fprintf(&b, "- %s: %s\n", p.Name, money(p.Balance))
		total = total.Add(p.Balance)
	}
	fmt.Fprintf(&b, "\n*Total: %s*", money(total))
	return b.String()
}

// Balances shows a single player's balance when a filter is given, or all
// nonzero balances otherwise. The filter is a case-insensitive substring
// match against the combined name.
func (h *Registry) Balances(ctx context.Context, filter string) string {
	players, err := h.roster.Players(ctx)
	if err != nil {
		observability.WithTrace(ctx).Error("fetching balances failed", "err", err)
		return fmt.Sprintf("*%s*\n\nNo balances available right now. Please try again later.", Signature)
	}

	if filter != "" {
		return h.playerBalance(players, filter)
	}

	sort.Slice(players, func(i, j int) bool {
		return players[i].Balance.GreaterThan(players[j].Balance)
	})

	total := decimal.Zero
	var b strings.Builder
	fmt.Fprintf(&b, "*%s - All Balances*\n\n", Signature)
	for _, p := range players {
		if p.Balance.IsZero() {
			continue
		}
		fmt.Fprintf(&b, "- %s: %s\n", p.Name, money(p.Balance))
		if p.Balance.IsPositive() {
			total = total.Add(p.Balance)
		}
	}
	fmt.Fprintf(&b, "\n*Total Outstanding: %s*", money(total))
	return b.String()
}

// playerBalance renders the filtered-balance variants: not found, exactly
// one match (sentence reflecting the balance sign), or a list of matches.
func (h *Registry) playerBalance(players []roster.Player, filter string) string {
	needle := strings.ToLower(filter)
	var matches []roster.Player
	for _, p := range players {
		if strings.Contains(strings.ToLower(p.Name), needle) {
			matches = append(matches, p)
		}
	}

	if len(matches) == 0 {
		return fmt.Sprintf("*%s*\n\nPlayer '%s' not found.", Signature, filter)
	}

	if len(matches) == 1 {
		p := matches[0]
		switch {
		case p.Balance.IsPositive():
			return fmt.Sprintf("*%s*\n\n%s owes %s", Signature, p.Name, money(p.Balance))
		case p.Balance.IsNegative():
			return fmt.Sprintf("*%s*\n\n%s has credit of %s", Signature, p.Name, money(p.Balance.Neg()))
		default:
			return fmt.Sprintf("*%s*\n\n%s is all paid up!", Signature, p.Name)
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "*%s*\n\nMultiple matches for '%s':\n", Signature, filter)
	for _, p := range matches {
		fmt.Fprintf(&b, "- %s: %s\n", p.Name, money(p.Balance))
	}
	return b.String()
}

// Status reports the current time and which collaborators are configured.
func (h *Registry) Status(ctx context.Context) string {
	timestamp := time.Now().In(h.loc).Format("01/02/06 03:04 PM MST")

	flag := func(ok bool) string {
		if ok {
			return "Connected"
		}
		return "Not configured"
	}

	return fmt.Sprintf(`*%s Status*

Time: %s
Webhook: Online
GREEN-API: %s
Claude API: %s
Sheets: %s`,
		Signature, timestamp,
		flag(h.status.GreenAPIConfigured),
		flag(h.status.AnthropicConfigured),
		flag(h.status.SheetsConfigured),
	)
}

// Unknown points the sender at the help command, echoing the text that
// failed to classify.
func (h *Registry) Unknown(raw string) string {
	return fmt.Sprintf(`*%s*

I didn't understand: "%s"

Type /pb help to see available commands.`, Signature, raw)
}
