package inbound

import (
	"strings"
	"unicode"
)

// CommandPrefix marks an explicit command such as "!ping".
const CommandPrefix = "!"

// shouldReply reports whether a group message addresses the assistant:
// a leading command prefix, an "@name" mention, or any keyword as a whole word.
func shouldReply(text string, keywords, mentions []string) bool {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return false
	}
	if strings.HasPrefix(trimmed, CommandPrefix) {
		return true
	}
	value := []rune(strings.ToLower(trimmed))
	for _, name := range mentions {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(name), "@")))
		if name == "" {
			continue
		}
		if containsWord(value, []rune("@"+name)) {
			return true
		}
	}
	for _, keyword := range keywords {
		keyword = strings.ToLower(strings.TrimSpace(keyword))
		if keyword == "" {
			continue
		}
		if containsWord(value, []rune(keyword)) {
			return true
		}
	}
	return false
}

// containsWord reports whether token occurs in value bounded by non-word runes.
func containsWord(value, token []rune) bool {
	if len(token) == 0 || len(value) < len(token) {
		return false
	}
	for start := 0; start+len(token) <= len(value); start++ {
		if !hasTokenAt(value, token, start) {
			continue
		}
		if start > 0 && isWordChar(value[start-1]) && isWordChar(token[0]) {
			continue
		}
		end := start + len(token)
		if end < len(value) && isWordChar(value[end]) {
			continue
		}
		return true
	}
	return false
}

func hasTokenAt(value, token []rune, start int) bool {
	for i := range token {
		if value[start+i] != token[i] {
			return false
		}
	}
	return true
}

func isWordChar(value rune) bool {
	return value == '_' || unicode.IsLetter(value) || unicode.IsDigit(value)
}
