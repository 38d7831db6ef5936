package command_test

import (
	"testing"

	"github.com/genechuang/picklebot/internal/picklebot/command"
)

func TestNormalizeDryRunTokens(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantDry bool
	}{
		{"long flag", "/pb deadbeats --dry-run", "deadbeats", true},
		{"short flag", "/pb deadbeats --dry", "deadbeats", true},
		{"single letter flag", "/pb book 2/4 -n", "book 2/4", true},
		{"natural language", "/pb book 2/4 dry run", "book 2/4", true},
		{"one word", "/pb status dryrun", "status", true},
		{"flag mid-text", "/pb book --dry-run 2/4 7pm", "book 2/4 7pm", true},
		{"repeated token", "/pb book -n 2/4 -n", "book 2/4", true},
		{"uppercase token", "/pb deadbeats --DRY-RUN", "deadbeats", true},
		{"no token", "/pb deadbeats", "deadbeats", false},
		{"token inside word ignored", "/pb book tennis court", "book tennis court", false},
		{"dryrun inside word ignored", "/pb balance dryruncle", "balance dryruncle", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := command.Normalize(tt.raw)
			if got.Text != tt.want {
				t.Errorf("text: got %q, want %q", got.Text, tt.want)
			}
			if got.DryRun != tt.wantDry {
				t.Errorf("dry run: got %v, want %v", got.DryRun, tt.wantDry)
			}
		})
	}
}

func TestNormalizePrefixes(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"/pb help", "help"},
		{"/picklebot help", "help"},
		{"/PB HELP", "HELP"},
		{"/pb", ""},
		{"help", "help"},
		{"  /pb   balance   John  ", "balance John"},
	}

	for _, tt := range tests {
		if got := command.Normalize(tt.raw); got.Text != tt.want {
			t.Errorf("Normalize(%q).Text = %q, want %q", tt.raw, got.Text, tt.want)
		}
	}
}

// Normalizing already-normalized text must be a no-op.
func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"/pb book 2/4 7pm 2hrs --dry-run",
		"/pb balance John",
		"who owes money?",
	}
	for _, in := range inputs {
		once := command.Normalize(in)
		twice := command.Normalize(once.Text)
		if twice.Text != once.Text {
			t.Errorf("not idempotent: %q -> %q -> %q", in, once.Text, twice.Text)
		}
		if twice.DryRun {
			t.Errorf("dry-run token should already be removed from %q", once.Text)
		}
	}
}

func TestHasPrefix(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"/pb help", true},
		{"/picklebot status", true},
		{"/PB help", true},
		{"/pb", true},
		{"/pbx help", false},
		{"hello everyone", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := command.HasPrefix(tt.text); got != tt.want {
			t.Errorf("HasPrefix(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}
