// Package insight holds the prompt and normalization rules shared by
// the insight generator implementations.
package insight

import (
	"fmt"
	"strings"
)

const maxHeadlineLen = 140

// BuildPrompt renders the per-symbol prompt. Headlines, when present,
// are appended as grounding context.
func BuildPrompt(symbol string, headlines []string) string {
	var b strings.Builder
	fmt.Fprintf(&b,
		"Write a concise, investor-friendly ~30-word summary about recent news, developments or industry trends related to %s. "+
			"Keep it factual, neutral, and end with a period. Include citations if available.",
		symbol)

	if len(headlines) > 0 {
		b.WriteString("\nRecent headlines:")
		for _, h := range headlines {
			h = strings.TrimSpace(h)
			if h == "" {
				continue
			}
			if len(h) > maxHeadlineLen {
				h = h[:maxHeadlineLen]
			}
			b.WriteString("\n- ")
			b.WriteString(h)
		}
	}
	return b.String()
}

// Normalize collapses whitespace, caps the text at maxWords and makes
// sure the blurb ends with terminal punctuation. Returns "" when the
// input has no usable content.
func Normalize(text string, maxWords int) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}

	truncated := false
	if maxWords > 0 && len(words) > maxWords {
		words = words[:maxWords]
		truncated = true
	}

	out := strings.Join(words, " ")
	if truncated {
		return strings.TrimRight(out, ".,;:") + "…"
	}
	if !strings.HasSuffix(out, ".") && !strings.HasSuffix(out, "!") && !strings.HasSuffix(out, "?") {
		out += "."
	}
	return out
}
