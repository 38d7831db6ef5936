package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/genechuang/picklebot/internal/picklebot/observability"
)

// Meta identifies where a preview request came from, for the pending-action
// record.
type Meta struct {
	ChatID string
	Sender string
}

// PreviewBookCourt renders the court-booking preview. The booking itself is
// never performed here; a pending-action token is issued for the follow-up
// confirmation step.
func (h *Registry) PreviewBookCourt(ctx context.Context, params map[string]string, meta Meta) string {
	date := paramOr(params, "date", "unknown")
	timeOfDay := paramOr(params, "time", "unknown")
	duration := paramOr(params, "duration_minutes", "120")
	court := paramOr(params, "court", "both")

	var b strings.Builder
	fmt.Fprintf(&b, "*%s - Book Court*\n\nThis action requires confirmation.\n\n*Details:*\n", Signature)
	fmt.Fprintf(&b, "- Date: %s\n- Time: %s\n- Duration: %s minutes\n- Court: %s\n", date, timeOfDay, duration, court)
	if raw := params["raw"]; raw != "" {
		fmt.Fprintf(&b, "- Request: %s\n", raw)
	}
	b.WriteString(h.confirmationFooter(ctx, "book_court", params, meta))
	return b.String()
}

// PreviewCreatePoll renders the weekly-poll preview.
func (h *Registry) PreviewCreatePoll(ctx context.Context, params map[string]string, meta Meta) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*%s - Create Poll*\n\nThis action requires confirmation.\n\n", Signature)
	b.WriteString("Will create a weekly availability poll in the SMAD group.\n")
	b.WriteString(h.confirmationFooter(ctx, "create_poll", params, meta))
	return b.String()
}

// PreviewSendReminders renders the reminders preview.
func (h *Registry) PreviewSendReminders(ctx context.Context, params map[string]string, meta Meta) string {
	reminderType := paramOr(params, "type", "vote")

	var b strings.Builder
	fmt.Fprintf(&b, "*%s - Send Reminders*\n\nThis action requires confirmation.\n\n", Signature)
	fmt.Fprintf(&b, "Will send %s reminders to players who haven't responded.\n", reminderType)
	b.WriteString(h.confirmationFooter(ctx, "send_reminders", params, meta))
	return b.String()
}

// confirmationFooter issues a pending-action token and renders the closing
// lines of a preview. Token issuance failures degrade to a footer without a
// code; the preview itself always renders.
func (h *Registry) confirmationFooter(ctx context.Context, intent string, params map[string]string, meta Meta) string {
	if h.gate == nil {
		return "\n_Confirmation links coming in Phase 2_"
	}

	action, err := h.gate.Request(ctx, intent, params, meta.ChatID, meta.Sender)
	if err != nil {
		observability.WithTrace(ctx).Error("issuing pending action failed", "intent", intent, "err", err)
		return "\n_Confirmation links coming in Phase 2_"
	}

	expires := action.ExpiresAt.In(h.loc).Format("01/02/06 03:04 PM MST")
	return fmt.Sprintf("\nConfirmation code: %s (valid until %s)\n\n_Confirmation links coming in Phase 2_",
		action.ID, expires)
}

func paramOr(params map[string]string, key, defaultValue string) string {
	if v := params[key]; v != "" {
		return v
	}
	return defaultValue
}
