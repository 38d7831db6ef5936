// Package bot wires the command pipeline: normalize, classify, dispatch to a
// handler, assemble the response, and deliver it unless dry-run is active.
//
// Processing is single-request and synchronous: one inbound command produces
// exactly one classification, one handler execution, and at most one outbound
// send. No state is shared across requests.
package bot

import (
	"context"

	"github.com/genechuang/picklebot/internal/picklebot/command"
	"github.com/genechuang/picklebot/internal/picklebot/handlers"
	"github.com/genechuang/picklebot/internal/picklebot/intent"
	"github.com/genechuang/picklebot/internal/picklebot/observability"
)

// Inbound is one received command. Immutable once received.
type Inbound struct {
	// Text is the raw message text, prefix and all.
	Text string
	// Sender identifies who issued the command.
	Sender string
	// ChatID is the conversation the response should go to.
	ChatID string
	// DryRunOverride is the externally supplied dry-run flag; it is OR-ed
	// with any dry-run token found in the text.
	DryRunOverride bool
}

// DispatchResult is the contract returned to the transport layer.
type DispatchResult struct {
	// Message is the final message text, including the dry-run marker when
	// active.
	Message string
	// Intent echoes the classified intent.
	Intent intent.Intent
	// DryRun is the effective dry-run flag.
	DryRun bool
	// NeedsConfirmation is true for action intents, which only previewed.
	NeedsConfirmation bool
}

// Sender delivers an outbound chat message.
type Sender interface {
	Send(ctx context.Context, chatID, message string) error
}

// Bot runs the pipeline.
type Bot struct {
	classifier *intent.Classifier
	registry   *handlers.Registry
	sender     Sender
}

// New creates a Bot.
func New(classifier *intent.Classifier, registry *handlers.Registry, sender Sender) *Bot {
	return &Bot{classifier: classifier, registry: registry, sender: sender}
}

// Process runs normalization, classification, and handling for one command
// and assembles the final message. It performs no delivery; see Dispatch.
func (b *Bot) Process(ctx context.Context, in Inbound) DispatchResult {
	norm := command.Normalize(in.Text)
	dryRun := in.DryRunOverride || norm.DryRun

	logger := observability.WithTrace(ctx)
	if dryRun {
		logger.Info("processing command (dry run)", "command", norm.Text)
	} else {
		logger.Info("processing command", "command", norm.Text)
	}

	res := b.classifier.Classify(ctx, norm.Text)
	logger.Info("classified intent",
		"intent", res.Intent,
		"needs_confirmation", res.ConfirmationRequired,
	)

	meta := handlers.Meta{ChatID: in.ChatID, Sender: in.Sender}

	var message string
	needsConfirmation := false
	switch res.Intent {
	case intent.Help:
		message = b.registry.Help()
	case intent.ShowDeadbeats:
		message = b.registry.Deadbeats(ctx)
	case intent.ShowBalances:
		message = b.registry.Balances(ctx, res.Params["player_name"])
	case intent.ShowStatus:
		message = b.registry.Status(ctx)
	case intent.BookCourt:
		message = b.registry.PreviewBookCourt(ctx, res.Params, meta)
		needsConfirmation = true
	case intent.CreatePoll:
		message = b.registry.PreviewCreatePoll(ctx, res.Params, meta)
		needsConfirmation = true
	case intent.SendReminders:
		message = b.registry.PreviewSendReminders(ctx, res.Params, meta)
		needsConfirmation = true
	default:
		raw := res.Params["raw"]
		if raw == "" {
			raw = norm.Text
		}
		message = b.registry.Unknown(raw)
	}

	if dryRun {
		message = "[DRY RUN]\n\n" + message
	}

	return DispatchResult{
		Message:           message,
		Intent:            res.Intent,
		DryRun:            dryRun,
		NeedsConfirmation: needsConfirmation,
	}
}

// Dispatch processes the command and delivers the response to the chat
// unless the effective dry-run flag is set. Delivery failures are logged,
// not propagated; the pipeline result stands regardless.
func (b *Bot) Dispatch(ctx context.Context, in Inbound) DispatchResult {
	result := b.Process(ctx, in)

	if result.DryRun {
		observability.WithTrace(ctx).Info("dry run: suppressing outbound send", "chat_id", in.ChatID)
		return result
	}

	if in.ChatID == "" || result.Message == "" {
		return result
	}

	if err := b.sender.Send(ctx, in.ChatID, result.Message); err != nil {
		observability.WithTrace(ctx).Error("sending response failed", "chat_id", in.ChatID, "err", err)
	}

	return result
}
