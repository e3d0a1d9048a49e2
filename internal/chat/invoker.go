package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

var (
	ErrNoClient      = errors.New("completion client not configured")
	ErrEmptyResponse = errors.New("empty completion response")
	ErrMissingField  = errors.New("completion result missing required field")
)

// Completer is the chat completion call of an OpenAI-compatible client.
type Completer interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// InvokerConfig holds model parameters for the invoker.
type InvokerConfig struct {
	Model       string
	Temperature float32
	Timeout     time.Duration
}

// Invoker asks the completion model for a JSON result and absorbs every failure
// into FallbackResult.
type Invoker struct {
	client Completer
	cfg    InvokerConfig
	logger *slog.Logger
}

// NewInvoker creates an invoker. A nil client makes every call fall back.
func NewInvoker(log *slog.Logger, client Completer, cfg InvokerConfig) *Invoker {
	if log == nil {
		log = slog.Default()
	}
	return &Invoker{
		client: client,
		cfg:    cfg,
		logger: log.With(slog.String("service", "completion")),
	}
}

// Invoke sends system followed by turns and parses the reply. It never fails.
func (i *Invoker) Invoke(ctx context.Context, system string, turns []Message) Result {
	result, err := i.invoke(ctx, system, turns)
	if err != nil {
		i.logger.Warn("completion failed, using fallback", slog.Any("error", err))
		return FallbackResult()
	}
	return result
}

func (i *Invoker) invoke(ctx context.Context, system string, turns []Message) (Result, error) {
	if i.client == nil {
		return Result{}, ErrNoClient
	}
	if i.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, i.cfg.Timeout)
		defer cancel()
	}

	messages := make([]openai.ChatCompletionMessage, 0, len(turns)+1)
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: system})
	for _, turn := range turns {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    normalizeRole(turn.Role),
			Content: turn.Content,
		})
	}

	resp, err := i.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       i.cfg.Model,
		Messages:    messages,
		Temperature: i.cfg.Temperature,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return Result{}, fmt.Errorf("create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Result{}, ErrEmptyResponse
	}
	return ParseResult(resp.Choices[0].Message.Content)
}

type rawResult struct {
	Insight      *string  `json:"insight"`
	RiskScore    *float64 `json:"risk_score"`
	MemoryUpdate any      `json:"memory_update"`
}

// ParseResult decodes the three-field JSON answer. insight and risk_score are
// required; risk_score is clamped to [0,100].
func ParseResult(content string) (Result, error) {
	content = removeCodeBlocks(content)
	if content == "" {
		return Result{}, ErrEmptyResponse
	}
	var raw rawResult
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return Result{}, fmt.Errorf("decode completion result: %w", err)
	}
	if raw.Insight == nil || strings.TrimSpace(*raw.Insight) == "" {
		return Result{}, fmt.Errorf("%w: insight", ErrMissingField)
	}
	if raw.RiskScore == nil {
		return Result{}, fmt.Errorf("%w: risk_score", ErrMissingField)
	}
	score := *raw.RiskScore
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return Result{
		Insight:      strings.TrimSpace(*raw.Insight),
		RiskScore:    score,
		MemoryUpdate: memoryUpdate(raw.MemoryUpdate),
	}, nil
}

func memoryUpdate(v any) *string {
	s, ok := v.(string)
	if !ok {
		return nil
	}
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "null", "none":
		return nil
	}
	return &s
}

// removeCodeBlocks strips a surrounding markdown fence from model output.
func removeCodeBlocks(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}
	content = strings.TrimPrefix(content, "```")
	if idx := strings.Index(content, "\n"); idx >= 0 {
		content = content[idx+1:]
	}
	content = strings.TrimSuffix(strings.TrimSpace(content), "```")
	return strings.TrimSpace(content)
}

func normalizeRole(role string) string {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case RoleAssistant:
		return openai.ChatMessageRoleAssistant
	case RoleSystem:
		return openai.ChatMessageRoleSystem
	default:
		return openai.ChatMessageRoleUser
	}
}
