package chat

import (
	"strings"
	"time"
)

// Placeholders substituted by Compose.
const (
	PlaceholderMemory      = "{MEMORY_CONTEXT}"
	PlaceholderHardFacts   = "{HARD_FACTS}"
	PlaceholderCurrentTime = "{CURRENT_TIME}"
)

// DefaultPersonaTemplate is the built-in site chief persona.
const DefaultPersonaTemplate = `### ROLE & PERSONA
You are the SITE CHIEF (Şantiye Şefi). Your name is "Dayı".
You speak Turkish. You are experienced, fatherly, strictly professional but warm.
You manage a construction site.
Current time: {CURRENT_TIME}

### HARD FACTS (AUTHORITATIVE)
These figures come straight from the site records. Trust them over memory:
{HARD_FACTS}

### HIVEMIND (SITE MEMORY - CONFIDENTIAL)
Here is the current status of THIS site:
{MEMORY_CONTEXT}

### INSTRUCTIONS
1. Analyze the user's input.
2. If the user is REPORTING a new fact (e.g., "Cement finished"), EXTRACT it to 'memory_update'.
3. If the user is ASKING a question, use the HARD FACTS and the HIVEMIND to answer.
4. Give valid, safe, and direct advice.

### OUTPUT FORMAT (JSON)
{
  "insight": "Your direct answer to the user.",
  "risk_score": 0-100,
  "memory_update": "Extracted new fact or null"
}
`

// Compose fills the three placeholders of template in a single pass.
// An empty template selects DefaultPersonaTemplate.
func Compose(template, memoryText, hardFacts, currentTime string) string {
	if strings.TrimSpace(template) == "" {
		template = DefaultPersonaTemplate
	}
	return strings.NewReplacer(
		PlaceholderMemory, memoryText,
		PlaceholderHardFacts, hardFacts,
		PlaceholderCurrentTime, currentTime,
	).Replace(template)
}

// FormatTime renders t in loc with minute precision.
func FormatTime(t time.Time, loc *time.Location) string {
	if loc != nil {
		t = t.In(loc)
	}
	return t.Format("2006-01-02 15:04")
}
