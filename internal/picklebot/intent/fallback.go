package intent

import (
	"context"
	"strings"
)

// Fallback is the deterministic keyword-matching classifier. It is a pure
// function of its input: identical text always yields an identical Result,
// and it never returns an error. It serves as the required default strategy
// when no LLM provider is configured and as the degradation target when the
// LLM path fails.
type Fallback struct{}

// Classify matches the cleaned text against an ordered rule list. The error
// return exists only to satisfy Provider; it is always nil.
func (Fallback) Classify(_ context.Context, text string) (*Result, error) {
	cleaned := strings.ToLower(strings.TrimSpace(text))

	switch cleaned {
	case "help", "?", "commands":
		return newResult(Help, nil), nil
	case "deadbeats", "deadbeat", "owes", "outstanding":
		return newResult(ShowDeadbeats, nil), nil
	case "status", "health":
		return newResult(ShowStatus, nil), nil
	}

	if strings.HasPrefix(cleaned, "balance") {
		name := strings.TrimSpace(strings.ReplaceAll(cleaned, "balance", ""))
		params := map[string]string{}
		if name != "" {
			params["player_name"] = name
		}
		return newResult(ShowBalances, params), nil
	}

	if strings.HasPrefix(cleaned, "book") {
		return newResult(BookCourt, map[string]string{"raw": cleaned}), nil
	}

	if strings.Contains(cleaned, "poll") && strings.Contains(cleaned, "create") {
		return newResult(CreatePoll, nil), nil
	}

	if strings.Contains(cleaned, "reminder") {
		return newResult(SendReminders, map[string]string{"type": "vote"}), nil
	}

	return newResult(Unknown, map[string]string{"raw": cleaned}), nil
}
