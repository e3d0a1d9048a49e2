// Package flow runs the shared chat path: context assembly, prompt
// composition, completion and memory write-back.
package flow

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/santiyeai/sitechief/internal/chat"
)

// MemoryCategory is the category stored for facts extracted from chat.
const MemoryCategory = "general"

// ContextStore provides per-tenant context and stores extracted facts.
type ContextStore interface {
	FetchMemory(ctx context.Context, tenantID string) string
	FetchHardFacts(ctx context.Context, tenantID string) string
	SaveMemory(ctx context.Context, tenantID, content, category string)
}

// Completion turns a system directive plus turns into a structured result.
type Completion interface {
	Invoke(ctx context.Context, system string, turns []chat.Message) chat.Result
}

// Input is one chat request.
type Input struct {
	TenantID string
	Turns    []chat.Message
	// Template overrides the default persona template when non-empty.
	Template string
}

// Pipeline is the chat path shared by the webhook dispatcher and the analyze endpoint.
type Pipeline struct {
	store      ContextStore
	completion Completion
	location   *time.Location
	now        func() time.Time
	logger     *slog.Logger
}

// NewPipeline creates a pipeline. A nil location renders times in UTC.
func NewPipeline(log *slog.Logger, store ContextStore, completion Completion, location *time.Location) *Pipeline {
	if log == nil {
		log = slog.Default()
	}
	if location == nil {
		location = time.UTC
	}
	return &Pipeline{
		store:      store,
		completion: completion,
		location:   location,
		now:        time.Now,
		logger:     log.With(slog.String("service", "chat_flow")),
	}
}

// Run executes the chat path and always returns a result.
func (p *Pipeline) Run(ctx context.Context, in Input) chat.Result {
	if p.completion == nil {
		return chat.FallbackResult()
	}
	memoryText, hardFacts := "", ""
	if p.store != nil {
		memoryText = p.store.FetchMemory(ctx, in.TenantID)
		hardFacts = p.store.FetchHardFacts(ctx, in.TenantID)
	}
	system := chat.Compose(in.Template, memoryText, hardFacts, chat.FormatTime(p.now(), p.location))
	result := p.completion.Invoke(ctx, system, in.Turns)

	if result.MemoryUpdate != nil && strings.TrimSpace(in.TenantID) != "" && p.store != nil {
		p.logger.Info("memory update detected", slog.String("tenant_id", in.TenantID))
		p.store.SaveMemory(ctx, in.TenantID, *result.MemoryUpdate, MemoryCategory)
	}
	return result
}

// LoadLocation resolves an IANA zone name, falling back to UTC.
func LoadLocation(name string) *time.Location {
	name = strings.TrimSpace(name)
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}
