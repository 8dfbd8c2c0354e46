package insight

import (
	"strings"
	"testing"
)

func TestNormalizeCollapsesWhitespace(t *testing.T) {
	got := Normalize("  TCS reported\n\tstrong   quarterly results  ", 40)
	want := "TCS reported strong quarterly results."
	if got != want {
		t.Errorf("Normalize = %q, want %q", got, want)
	}
}

func TestNormalizeKeepsExistingPunctuation(t *testing.T) {
	for _, text := range []string{"Growth continues.", "Will demand hold?", "Record quarter!"} {
		if got := Normalize(text, 40); got != text {
			t.Errorf("Normalize(%q) = %q, want unchanged", text, got)
		}
	}
}

func TestNormalizeTruncates(t *testing.T) {
	long := strings.Repeat("word ", 60) + "tail."
	got := Normalize(long, 10)

	if n := len(strings.Fields(got)); n != 10 {
		t.Errorf("got %d words, want 10", n)
	}
	if !strings.HasSuffix(got, "…") {
		t.Errorf("truncated text should end with ellipsis, got %q", got)
	}
}

func TestNormalizeEmpty(t *testing.T) {
	for _, text := range []string{"", "   ", "\n\t"} {
		if got := Normalize(text, 40); got != "" {
			t.Errorf("Normalize(%q) = %q, want empty", text, got)
		}
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	once := Normalize("TCS wins large cloud migration deal", 40)
	twice := Normalize(once, 40)
	if once != twice {
		t.Errorf("Normalize not idempotent: %q vs %q", once, twice)
	}
}

func TestBuildPrompt(t *testing.T) {
	prompt := BuildPrompt("TCS", nil)
	if !strings.Contains(prompt, "TCS") {
		t.Errorf("prompt missing symbol: %q", prompt)
	}
	if strings.Contains(prompt, "Recent headlines") {
		t.Errorf("plain prompt should not have a headlines section")
	}
}

func TestBuildPromptWithHeadlines(t *testing.T) {
	prompt := BuildPrompt("TCS", []string{"TCS bags mega deal", "", strings.Repeat("x", 500)})

	if !strings.Contains(prompt, "- TCS bags mega deal") {
		t.Errorf("prompt missing headline: %q", prompt)
	}
	for _, line := range strings.Split(prompt, "\n") {
		if strings.HasPrefix(line, "- ") && len(line) > maxHeadlineLen+2 {
			t.Errorf("headline line not capped: %d chars", len(line))
		}
	}
}
