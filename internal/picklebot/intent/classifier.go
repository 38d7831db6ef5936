package intent

import (
	"context"

	"github.com/genechuang/picklebot/internal/picklebot/observability"
)

// Classifier composes the optional LLM provider with the deterministic
// fallback and enforces the confirmation taxonomy on whatever comes back.
//
// Its Classify method is total: every failure of the primary path (network
// error, non-200 status, malformed or out-of-enumeration output) degrades to
// the fallback, which cannot fail. The caller never sees an error and never
// sees a confirmation flag that contradicts the taxonomy.
type Classifier struct {
	primary  Provider
	fallback Fallback
}

// NewClassifier returns a Classifier. primary may be nil, in which case every
// classification uses the deterministic fallback directly.
func NewClassifier(primary Provider) *Classifier {
	return &Classifier{primary: primary}
}

// Classify maps normalized command text to a Result.
func (c *Classifier) Classify(ctx context.Context, text string) *Result {
	if c.primary != nil {
		res, err := c.primary.Classify(ctx, text)
		if err == nil && res != nil && Known(res.Intent) {
			return enforce(res, text)
		}
		observability.WithTrace(ctx).Warn("llm classification failed, using fallback", "err", err)
	}

	res, _ := c.fallback.Classify(ctx, text)
	return enforce(res, text)
}

// enforce overwrites the confirmation flag from the static taxonomy and
// guarantees a non-nil params map. Unknown intents carry the original text
// under "raw" so the handler can echo it back.
func enforce(res *Result, text string) *Result {
	res.ConfirmationRequired = RequiresConfirmation(res.Intent)
	if res.Params == nil {
		res.Params = map[string]string{}
	}
	if res.Intent == Unknown && res.Params["raw"] == "" {
		res.Params["raw"] = text
	}
	return res
}
