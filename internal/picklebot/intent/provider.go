package intent

import (
	"context"
	"errors"
)

// ErrMalformedOutput is returned by a Provider when the upstream service
// responds but the body cannot be interpreted as a classification (JSON parse
// failure, schema violation, unknown intent value). Callers degrade to the
// deterministic fallback.
var ErrMalformedOutput = errors.New("intent: malformed classifier output")

// Provider classifies normalized command text into a structured Result.
//
// Implementations must be safe for concurrent use. When an implementation is
// unavailable (network error, non-200 status, malformed output) it returns a
// descriptive error; the Classifier degrades to deterministic keyword
// matching rather than surfacing the failure.
type Provider interface {
	Classify(ctx context.Context, text string) (*Result, error)
}
