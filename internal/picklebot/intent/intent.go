// Package intent classifies normalized command text into a structured intent.
//
// Two interchangeable strategies implement the Provider interface: an
// LLM-backed provider (Anthropic messages API) and a deterministic
// keyword-matching fallback. The Classifier composes them so that any failure
// of the LLM path degrades silently to the fallback, and the confirmation
// flag is always taken from the static taxonomy below — never from LLM
// output. A misbehaving model can therefore neither skip confirmation on a
// destructive action nor demand it on a read-only one.
package intent

// Intent is a classified category of user request.
type Intent string

// The fixed intent enumeration. Every classification resolves to exactly one
// of these values.
const (
	Help          Intent = "help"
	ShowDeadbeats Intent = "show_deadbeats"
	ShowBalances  Intent = "show_balances"
	BookCourt     Intent = "book_court"
	CreatePoll    Intent = "create_poll"
	SendReminders Intent = "send_reminders"
	ShowStatus    Intent = "show_status"
	Unknown       Intent = "unknown"
)

// confirmationRequired is the static taxonomy of which intents have
// real-world side effects and must not run without an explicit approval
// step. It takes precedence over any flag reported by a classifier provider.
var confirmationRequired = map[Intent]bool{
	Help:          false,
	ShowDeadbeats: false,
	ShowBalances:  false,
	BookCourt:     true,
	CreatePoll:    true,
	SendReminders: true,
	ShowStatus:    false,
	Unknown:       false,
}

// Known reports whether i is part of the fixed enumeration.
func Known(i Intent) bool {
	_, ok := confirmationRequired[i]
	return ok
}

// RequiresConfirmation reports whether i is a confirmation-required action
// per the static taxonomy. Unrecognized intents never require confirmation
// because they are never executed.
func RequiresConfirmation(i Intent) bool {
	return confirmationRequired[i]
}

// Result is the outcome of classifying one command. It is produced once per
// command and never mutated afterwards.
type Result struct {
	Intent Intent
	// Params maps parameter names to rendered values; keys depend on the
	// intent (e.g. "player_name" for show_balances, "date"/"time" for
	// book_court, "raw" for unknown).
	Params map[string]string
	// ConfirmationRequired is fixed by the taxonomy, not by the provider.
	ConfirmationRequired bool
}

// newResult builds a Result with the taxonomy-derived confirmation flag and
// a non-nil params map.
func newResult(i Intent, params map[string]string) *Result {
	if params == nil {
		params = map[string]string{}
	}
	return &Result{
		Intent:               i,
		Params:               params,
		ConfirmationRequired: RequiresConfirmation(i),
	}
}
