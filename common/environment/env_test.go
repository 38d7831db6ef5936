package environment_test

import (
	"testing"
	"time"

	"github.com/genechuang/picklebot/common/environment"
)

func TestStringOr(t *testing.T) {
	t.Setenv("PB_TEST_STR", "value")
	if got := environment.StringOr("PB_TEST_STR", "fallback"); got != "value" {
		t.Errorf("got %q, want %q", got, "value")
	}
	if got := environment.StringOr("PB_TEST_STR_MISSING", "fallback"); got != "fallback" {
		t.Errorf("got %q, want %q", got, "fallback")
	}
}

func TestRequiredString(t *testing.T) {
	t.Setenv("PB_TEST_REQ", "set")
	if v, err := environment.RequiredString("PB_TEST_REQ"); err != nil || v != "set" {
		t.Errorf("got (%q, %v), want (set, nil)", v, err)
	}
	if _, err := environment.RequiredString("PB_TEST_REQ_MISSING"); err == nil {
		t.Error("expected error for missing variable")
	}
}

func TestBoolOr(t *testing.T) {
	t.Setenv("PB_TEST_BOOL", "true")
	if !environment.BoolOr("PB_TEST_BOOL", false) {
		t.Error("expected true")
	}
	t.Setenv("PB_TEST_BOOL", "garbage")
	if environment.BoolOr("PB_TEST_BOOL", false) {
		t.Error("expected default false for unparseable value")
	}
}

func TestDurationOr(t *testing.T) {
	t.Setenv("PB_TEST_DUR", "45s")
	if got := environment.DurationOr("PB_TEST_DUR", time.Minute); got != 45*time.Second {
		t.Errorf("got %v, want 45s", got)
	}
	if got := environment.DurationOr("PB_TEST_DUR_MISSING", time.Minute); got != time.Minute {
		t.Errorf("got %v, want 1m", got)
	}
}

func TestStringSliceOr(t *testing.T) {
	t.Setenv("PB_TEST_SLICE", "a, b ,,c")
	got := environment.StringSliceOr("PB_TEST_SLICE", nil)
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("element %d: got %q, want %q", i, got[i], want[i])
		}
	}
}
