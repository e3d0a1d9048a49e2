package chat

// Message represents a chat message
type Message struct {
	Role    string `json:"role"` // user, assistant, system
	Content string `json:"content"`
}

// Result is the structured answer parsed from a completion.
type Result struct {
	Insight      string  `json:"insight"`
	RiskScore    float64 `json:"risk_score"`
	MemoryUpdate *string `json:"memory_update,omitempty"`
}

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// FallbackInsight is sent when the completion could not be obtained or parsed.
const FallbackInsight = "Hat çekmiyor yeğenim. Tekrar et."

// FallbackResult returns the fixed result used on any completion failure.
func FallbackResult() Result {
	return Result{Insight: FallbackInsight, RiskScore: 0}
}
