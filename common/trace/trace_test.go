package trace_test

import (
	"context"
	"strings"
	"testing"

	"github.com/genechuang/picklebot/common/trace"
)

func TestGenerateIDUnique(t *testing.T) {
	a := trace.GenerateID()
	b := trace.GenerateID()
	if a == b {
		t.Fatalf("expected unique IDs, got %q twice", a)
	}
	if !strings.HasPrefix(a, "t_") {
		t.Errorf("expected t_ prefix, got %q", a)
	}
}

func TestContextRoundTrip(t *testing.T) {
	ctx := context.Background()
	if got := trace.FromContext(ctx); got != "" {
		t.Errorf("empty context: got %q, want empty", got)
	}

	ctx = trace.WithTraceID(ctx, "t_abc")
	if got := trace.FromContext(ctx); got != "t_abc" {
		t.Errorf("got %q, want %q", got, "t_abc")
	}
}
