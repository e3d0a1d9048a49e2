package whatsapp

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/santiyeai/sitechief/internal/channel"
	"github.com/santiyeai/sitechief/internal/channel/inbound"
)

type webhookDispatcher interface {
	Verify(mode, token, challenge string) (string, error)
	Dispatch(ctx context.Context, event channel.Event) inbound.Status
}

const webhookMaxBodyBytes int64 = 1 << 20 // 1 MiB

// WebhookHandler receives WhatsApp Cloud API verification and event callbacks.
type WebhookHandler struct {
	logger     *slog.Logger
	dispatcher webhookDispatcher
}

// NewWebhookHandler creates the public webhook handler.
func NewWebhookHandler(log *slog.Logger, dispatcher webhookDispatcher) *WebhookHandler {
	if log == nil {
		log = slog.Default()
	}
	return &WebhookHandler{
		logger:     log.With(slog.String("handler", "whatsapp_webhook")),
		dispatcher: dispatcher,
	}
}

// NewWebhookServerHandler is a DI-friendly constructor for fx.
func NewWebhookServerHandler(log *slog.Logger, dispatcher *inbound.Dispatcher) *WebhookHandler {
	return NewWebhookHandler(log, dispatcher)
}

// Register registers webhook routes.
func (h *WebhookHandler) Register(e *echo.Echo) {
	e.GET("/whatsapp", h.HandleVerify)
	e.POST("/whatsapp", h.Handle)
}

// HandleVerify answers the hub subscription handshake. Unless both mode and
// token are present the request gets a plain status document.
func (h *WebhookHandler) HandleVerify(c echo.Context) error {
	mode := c.QueryParam("hub.mode")
	token := c.QueryParam("hub.verify_token")
	challenge := c.QueryParam("hub.challenge")
	if mode == "" || token == "" {
		return c.JSON(http.StatusOK, map[string]string{"status": "Hello WhatsApp"})
	}
	if h.dispatcher == nil {
		return echo.NewHTTPError(http.StatusForbidden, "verification failed")
	}
	value, err := h.dispatcher.Verify(mode, token, challenge)
	if err != nil {
		if errors.Is(err, inbound.ErrVerificationFailed) {
			h.logger.Warn("webhook verification rejected", slog.String("mode", mode))
		}
		return echo.NewHTTPError(http.StatusForbidden, "verification failed")
	}
	return c.String(http.StatusOK, value)
}

// Handle processes one event delivery. The platform always gets HTTP 200.
func (h *WebhookHandler) Handle(c echo.Context) error {
	status := h.handle(c)
	return c.JSON(http.StatusOK, map[string]string{"status": string(status)})
}

func (h *WebhookHandler) handle(c echo.Context) inbound.Status {
	if h.dispatcher == nil {
		return inbound.StatusError
	}
	payload, err := io.ReadAll(io.LimitReader(c.Request().Body, webhookMaxBodyBytes+1))
	if err != nil {
		h.logger.Warn("read webhook body failed", slog.Any("error", err))
		return inbound.StatusError
	}
	if int64(len(payload)) > webhookMaxBodyBytes {
		h.logger.Warn("webhook payload too large", slog.Int("bytes", len(payload)))
		return inbound.StatusError
	}
	if strings.TrimSpace(string(payload)) == "" {
		return inbound.StatusIgnored
	}
	event, err := Parse(payload)
	if err != nil {
		h.logger.Warn("parse webhook payload failed", slog.Any("error", err))
		return inbound.StatusError
	}
	status := h.dispatcher.Dispatch(context.WithoutCancel(c.Request().Context()), event)
	h.logger.Debug("webhook dispatched", slog.String("status", string(status)))
	return status
}
