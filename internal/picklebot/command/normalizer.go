// Package command normalizes raw chat text before intent classification.
//
// Normalization strips the bot command prefix, extracts an optional dry-run
// modifier, and collapses whitespace. It is total and deterministic: text
// without a prefix or modifier passes through unchanged (modulo whitespace),
// and normalizing already-normalized text is a no-op.
package command

import (
	"regexp"
	"strings"
)

// Prefixes are the recognized command prefixes, checked case-insensitively
// in order. The first match is stripped.
var Prefixes = []string{"/pb", "/picklebot"}

// dryRunTokens are the recognized dry-run modifiers, checked in order. The
// first token found in the text is removed (every occurrence of it) and marks
// the command as a dry run.
var dryRunTokens = []string{"--dry-run", "--dry", "-n", "dry run", "dryrun"}

// dryRunPatterns anchors each token to whitespace (or string edges) so a
// token cannot fire inside an unrelated word: "-n" must not match "tennis",
// "dryrun" must not match a player name containing it.
var dryRunPatterns = func() []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, len(dryRunTokens))
	for i, tok := range dryRunTokens {
		patterns[i] = regexp.MustCompile(`(?i)(^|\s)` + regexp.QuoteMeta(tok) + `($|\s)`)
	}
	return patterns
}()

var whitespaceRe = regexp.MustCompile(`\s+`)

// Normalized is the output of Normalize: cleaned command text plus the
// dry-run flag derived from the text itself.
type Normalized struct {
	Text   string
	DryRun bool
}

// HasPrefix reports whether text starts with one of the recognized command
// prefixes. The raw-gateway webhook path uses this to ignore ordinary chat.
func HasPrefix(text string) bool {
	trimmed := strings.TrimSpace(text)
	lower := strings.ToLower(trimmed)
	for _, p := range Prefixes {
		if lower == p || strings.HasPrefix(lower, p+" ") {
			return true
		}
	}
	return false
}

// Normalize strips the first matching command prefix, removes the first
// matching dry-run token (all occurrences of that literal token), and
// collapses repeated whitespace. It never fails; absence of a prefix or
// token simply leaves the text unchanged.
func Normalize(raw string) Normalized {
	text := strings.TrimSpace(raw)
	text = stripPrefix(text)

	dryRun := false
	for _, re := range dryRunPatterns {
		if !re.MatchString(text) {
			continue
		}
		dryRun = true
		// Matches may share delimiting whitespace, so replace until the
		// token is gone rather than in a single pass.
		for {
			replaced := re.ReplaceAllString(text, " ")
			if replaced == text {
				break
			}
			text = replaced
		}
		break
	}

	text = strings.TrimSpace(whitespaceRe.ReplaceAllString(text, " "))
	return Normalized{Text: text, DryRun: dryRun}
}

// stripPrefix removes the first matching command prefix, case-insensitively.
func stripPrefix(text string) string {
	lower := strings.ToLower(text)
	for _, p := range Prefixes {
		if lower == p {
			return ""
		}
		if strings.HasPrefix(lower, p+" ") {
			return strings.TrimSpace(text[len(p):])
		}
	}
	return text
}
