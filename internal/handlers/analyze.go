package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/santiyeai/sitechief/internal/auth"
	"github.com/santiyeai/sitechief/internal/chat"
	"github.com/santiyeai/sitechief/internal/config"
	"github.com/santiyeai/sitechief/internal/conversation/flow"
	"github.com/santiyeai/sitechief/internal/personas"
	"github.com/santiyeai/sitechief/internal/tenants"
)

type analyzeProfileResolver interface {
	ResolveByUserID(ctx context.Context, userID string) (tenants.Profile, error)
}

type analyzeChatRunner interface {
	Run(ctx context.Context, in flow.Input) chat.Result
}

type analyzePersonaLibrary interface {
	Get(name string) (personas.Persona, error)
}

type analyzeMessage struct {
	Role    string `json:"role" validate:"required,oneof=system user assistant"`
	Content string `json:"content" validate:"required"`
}

type analyzePayload struct {
	Messages     []analyzeMessage `json:"messages" validate:"required,min=1,dive"`
	UserID       string           `json:"user_id,omitempty"`
	SystemPrompt string           `json:"system_prompt,omitempty"`
	Persona      string           `json:"persona,omitempty"`
}

// AnalyzeConfig controls template defaults and how callers are identified.
type AnalyzeConfig struct {
	// DefaultTemplate is used when a request names neither a system prompt nor a persona.
	DefaultTemplate string
	// TokenAuth identifies callers only by a verified token; the body user_id is ignored.
	TokenAuth bool
}

// AnalyzeHandler exposes the chat path to web clients.
type AnalyzeHandler struct {
	profiles analyzeProfileResolver
	chat     analyzeChatRunner
	personas analyzePersonaLibrary
	cfg      AnalyzeConfig
	validate *validator.Validate
	logger   *slog.Logger
}

// NewAnalyzeHandler creates an AnalyzeHandler.
func NewAnalyzeHandler(log *slog.Logger, profiles analyzeProfileResolver, runner analyzeChatRunner, library analyzePersonaLibrary, cfg AnalyzeConfig) *AnalyzeHandler {
	if log == nil {
		log = slog.Default()
	}
	return &AnalyzeHandler{
		profiles: profiles,
		chat:     runner,
		personas: library,
		cfg:      cfg,
		validate: validator.New(),
		logger:   log.With(slog.String("handler", "analyze")),
	}
}

// NewAnalyzeServerHandler is a DI-friendly constructor for fx. A configured
// JWT secret switches caller identification to tokens only.
func NewAnalyzeServerHandler(log *slog.Logger, cfg config.Config, profiles *tenants.Service, pipeline *flow.Pipeline, library *personas.Library) *AnalyzeHandler {
	return NewAnalyzeHandler(log, profiles, pipeline, library, AnalyzeConfig{
		DefaultTemplate: library.Template(cfg.Dispatcher.Persona),
		TokenAuth:       strings.TrimSpace(cfg.Auth.JWTSecret) != "",
	})
}

func (h *AnalyzeHandler) Register(e *echo.Echo) {
	e.POST("/analyze", h.Analyze)
}

// Analyze runs one chat request and returns the structured result.
func (h *AnalyzeHandler) Analyze(c echo.Context) error {
	if h.chat == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "chat service not available")
	}
	var payload analyzePayload
	if err := c.Bind(&payload); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.validate.Struct(payload); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	template, err := h.resolveTemplate(payload)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	tenantID := h.resolveTenant(ctx, c, payload.UserID)

	turns := make([]chat.Message, 0, len(payload.Messages))
	for _, m := range payload.Messages {
		turns = append(turns, chat.Message{Role: m.Role, Content: m.Content})
	}
	result := h.chat.Run(ctx, flow.Input{
		TenantID: tenantID,
		Turns:    turns,
		Template: template,
	})
	return c.JSON(http.StatusOK, result)
}

func (h *AnalyzeHandler) resolveTemplate(payload analyzePayload) (string, error) {
	if strings.TrimSpace(payload.SystemPrompt) != "" {
		return payload.SystemPrompt, nil
	}
	name := strings.TrimSpace(payload.Persona)
	if name == "" {
		return h.cfg.DefaultTemplate, nil
	}
	if h.personas == nil {
		return "", echo.NewHTTPError(http.StatusBadRequest, "unknown persona")
	}
	persona, err := h.personas.Get(name)
	if err != nil {
		if errors.Is(err, personas.ErrPersonaNotFound) {
			return "", echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return "", echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return persona.Template, nil
}

// resolveTenant prefers the authenticated user over the body field, which is
// only honoured without token auth. An unresolved user runs without a tenant.
func (h *AnalyzeHandler) resolveTenant(ctx context.Context, c echo.Context, bodyUserID string) string {
	userID, err := auth.UserIDFromContext(c)
	if err != nil && !h.cfg.TokenAuth {
		userID = strings.TrimSpace(bodyUserID)
	}
	if userID == "" || h.profiles == nil {
		return ""
	}
	profile, err := h.profiles.ResolveByUserID(ctx, userID)
	if err != nil {
		if !errors.Is(err, tenants.ErrProfileNotFound) {
			h.logger.Warn("resolve web profile failed", slog.String("user_id", userID), slog.Any("error", err))
		}
		return ""
	}
	return profile.TenantID
}
