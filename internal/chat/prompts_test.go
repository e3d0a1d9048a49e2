package chat

import (
	"strings"
	"testing"
	"time"
)

func TestComposeReplacesAllPlaceholders(t *testing.T) {
	t.Parallel()

	template := "mem={MEMORY_CONTEXT} facts={HARD_FACTS} now={CURRENT_TIME}"
	got := Compose(template, "MEM", "FACTS", "2024-01-01 10:00")

	for _, token := range []string{PlaceholderMemory, PlaceholderHardFacts, PlaceholderCurrentTime} {
		if strings.Contains(got, token) {
			t.Fatalf("placeholder %s left in %q", token, got)
		}
	}
	for _, value := range []string{"MEM", "FACTS", "2024-01-01 10:00"} {
		if !strings.Contains(got, value) {
			t.Fatalf("value %q missing from %q", value, got)
		}
	}
	if got != Compose(template, "MEM", "FACTS", "2024-01-01 10:00") {
		t.Fatalf("compose is not deterministic")
	}
}

func TestComposeUsesDefaultTemplate(t *testing.T) {
	t.Parallel()

	got := Compose("  ", "MEM", "FACTS", "NOW")
	if !strings.Contains(got, "Dayı") {
		t.Fatalf("expected default persona, got %q", got)
	}
	if strings.Contains(got, PlaceholderMemory) || strings.Contains(got, PlaceholderHardFacts) || strings.Contains(got, PlaceholderCurrentTime) {
		t.Fatalf("default template kept placeholders: %q", got)
	}
}

func TestComposeDoesNotReexpandValues(t *testing.T) {
	t.Parallel()

	got := Compose("{MEMORY_CONTEXT}|{HARD_FACTS}", "{HARD_FACTS}", "F", "")
	if got != "{HARD_FACTS}|F" {
		t.Fatalf("unexpected output: %q", got)
	}
}

func TestFormatTime(t *testing.T) {
	t.Parallel()

	ts := time.Date(2024, 1, 1, 7, 0, 30, 0, time.UTC)
	if got := FormatTime(ts, nil); got != "2024-01-01 07:00" {
		t.Fatalf("unexpected time: %s", got)
	}
	loc := time.FixedZone("TRT", 3*60*60)
	if got := FormatTime(ts, loc); got != "2024-01-01 10:00" {
		t.Fatalf("unexpected local time: %s", got)
	}
}
