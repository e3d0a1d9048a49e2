// Package prune fits long text into the size limits of messaging platforms.
package prune

import (
	"strings"
	"unicode/utf8"
)

const (
	DefaultMarker = "…(devamı kısaltıldı)"
	// WhatsAppMaxRunes is the Cloud API limit for a text message body.
	WhatsAppMaxRunes = 4096
	DefaultMaxLines  = 400
)

type Config struct {
	MaxRunes int
	MaxLines int
	Marker   string
}

func Exceeds(s string, maxRunes, maxLines int) bool {
	return utf8.RuneCountInString(s) > maxRunes || CountLines(s) > maxLines
}

func CountLines(s string) int {
	if s == "" {
		return 0
	}
	return strings.Count(s, "\n") + 1
}

// Fit returns s unchanged when it is within limits; otherwise it keeps the
// head and appends the marker so the result stays within limits.
func Fit(s string, cfg Config) string {
	cfg = normalizeConfig(cfg)
	if !Exceeds(s, cfg.MaxRunes, cfg.MaxLines) {
		return s
	}
	markerRunes := utf8.RuneCountInString(cfg.Marker) + 1
	budget := cfg.MaxRunes - markerRunes
	if budget <= 0 {
		return runePrefix(cfg.Marker, cfg.MaxRunes)
	}
	head := limitLinesPrefix(runePrefix(s, budget), cfg.MaxLines-1)
	head = strings.TrimRight(head, " \n\t")
	if head == "" {
		return cfg.Marker
	}
	return head + "\n" + cfg.Marker
}

func normalizeConfig(cfg Config) Config {
	if cfg.MaxRunes <= 0 {
		cfg.MaxRunes = WhatsAppMaxRunes
	}
	if cfg.MaxLines <= 1 {
		cfg.MaxLines = DefaultMaxLines
	}
	if cfg.Marker == "" {
		cfg.Marker = DefaultMarker
	}
	return cfg
}

func runePrefix(s string, maxRunes int) string {
	if maxRunes <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == maxRunes {
			return s[:i]
		}
		count++
	}
	return s
}

func limitLinesPrefix(s string, maxLines int) string {
	if maxLines <= 0 || s == "" {
		return ""
	}
	lines := strings.SplitN(s, "\n", maxLines+1)
	if len(lines) <= maxLines {
		return s
	}
	return strings.Join(lines[:maxLines], "\n")
}
