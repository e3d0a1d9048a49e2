// Package inbound routes normalized channel events through onboarding,
// media conversion and the chat pipeline, and sends the replies.
package inbound

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/santiyeai/sitechief/internal/audit"
	"github.com/santiyeai/sitechief/internal/channel"
	"github.com/santiyeai/sitechief/internal/chat"
	"github.com/santiyeai/sitechief/internal/conversation/flow"
	"github.com/santiyeai/sitechief/internal/media"
	"github.com/santiyeai/sitechief/internal/tenants"
)

// Status is the terminal outcome of one dispatched event.
type Status string

const (
	StatusProcessed      Status = "processed"
	StatusIgnored        Status = "ignored"
	StatusLoggedGroup    Status = "logged_group_msg"
	StatusFailedDownload Status = "failed_download"
	StatusError          Status = "error"
)

// SubscribeMode is the only hub mode accepted during verification.
const SubscribeMode = "subscribe"

var ErrVerificationFailed = errors.New("webhook verification failed")

// Fixed replies.
const (
	AudioAckText         = "🎤 Sesini dinliyorum..."
	AudioTranscriptTag   = "[🎤 Sesli Mesaj]: "
	ImageAckText         = "📸 Fotoğrafı aldım, inceliyorum yeğenim..."
	ImageResultPrefix    = "🔍 Dayı'nın Gözü:\n"
	SheetAckText         = "📊 Excel dosyasını aldım, işliyorum..."
	DownloadFailedText   = "Dosyayı indiremedim yeğenim. Tekrar gönder."
	UnsupportedText      = "Bu dosya türünü okuyamıyorum usta. Sadece Excel (.xlsx) gönderebilirsin."
	WelcomeTextFormat    = "Hoş geldin usta! %s için kaydın alındı. Şantiye Şefin ONAYLAYINCA girişin açılacak."
	InvalidCodeText      = "Hatalı şirket kodu yeğenim. Tekrar dene."
	CodePromptText       = "Selam yeğenim. Hangi şantiyedensin? Şirket kodunu yaz (Örn: #ABC)."
	NotApprovedText      = "Henüz onay almadın usta. Şefe bi görün istersen."
	OnboardingFailedText = "Kaydını şu an alamadım yeğenim. Biraz sonra tekrar dene."
)

// TenantResolver maps senders to profiles and performs onboarding.
type TenantResolver interface {
	Resolve(ctx context.Context, phone string) (tenants.Profile, error)
	Onboard(ctx context.Context, phone, code string) (tenants.Profile, tenants.Tenant, error)
}

// MediaConverter downloads and converts a media reference to text.
type MediaConverter interface {
	Convert(ctx context.Context, ref media.Reference, kind media.Kind, tenantID string) (string, error)
}

// ChatRunner runs the shared chat path.
type ChatRunner interface {
	Run(ctx context.Context, in flow.Input) chat.Result
}

// AuditRecorder appends group events to the audit trail.
type AuditRecorder interface {
	Record(ctx context.Context, entry audit.Entry) error
}

// Outbound sends a text reply on a channel.
type Outbound interface {
	Send(ctx context.Context, channelType channel.ChannelType, target, body string) error
}

// Config controls dispatch policy.
type Config struct {
	VerifyToken     string
	RequireApproval bool
	TriggerKeywords []string
	MentionNames    []string
	// Template is the persona template handed to the chat path; empty selects the default.
	Template string
}

// Deps groups the collaborators of a Dispatcher.
type Deps struct {
	Tenants  TenantResolver
	Media    MediaConverter
	Chat     ChatRunner
	Audit    AuditRecorder
	Outbound Outbound
}

// Dispatcher processes one inbound event end-to-end. It keeps no per-event state.
type Dispatcher struct {
	cfg    Config
	deps   Deps
	logger *slog.Logger
}

func NewDispatcher(log *slog.Logger, cfg Config, deps Deps) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}
	return &Dispatcher{
		cfg:    cfg,
		deps:   deps,
		logger: log.With(slog.String("service", "dispatcher")),
	}
}

// Verify answers the platform handshake. It returns the challenge when mode
// is subscribe and token matches the configured secret.
func (d *Dispatcher) Verify(mode, token, challenge string) (string, error) {
	secret := strings.TrimSpace(d.cfg.VerifyToken)
	if mode != SubscribeMode || secret == "" || token != secret {
		return "", ErrVerificationFailed
	}
	return challenge, nil
}

// Dispatch routes event and returns its terminal status. It never panics.
func (d *Dispatcher) Dispatch(ctx context.Context, event channel.Event) (status Status) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("dispatch panic", slog.Any("panic", r))
			status = StatusError
		}
	}()

	if event.Message == nil {
		return StatusIgnored
	}
	msg := *event.Message
	if msg.Channel == "" {
		msg.Channel = event.Channel
	}
	sender := strings.TrimSpace(msg.Sender.SubjectID)
	if sender == "" {
		return StatusIgnored
	}
	logger := d.logger.With(
		slog.String("channel", msg.Channel.String()),
		slog.String("sender", sender),
		slog.String("message_id", msg.Message.ID),
	)

	profile, known := d.resolveProfile(ctx, logger, sender)

	if msg.IsGroup() {
		d.recordGroupEvent(ctx, logger, msg, profile.TenantID, event)
	}

	text := strings.TrimSpace(msg.Message.Text)
	// triggerText is what the group rule inspects; it excludes the transcript tag.
	triggerText := text
	kind := media.Classify(msg.Message.Type, msg.Message.Media)
	switch kind {
	case media.KindImage, media.KindDocument:
		return d.handleMedia(ctx, logger, msg, kind, profile.TenantID)
	case media.KindAudio:
		// Groups stay silent until the transcript itself triggers a reply.
		if !msg.IsGroup() {
			d.reply(ctx, logger, msg, AudioAckText)
		}
		transcript, err := d.convert(ctx, msg, kind, profile.TenantID)
		if err != nil {
			logger.Warn("audio download failed", slog.Any("error", err))
			if !msg.IsGroup() {
				d.reply(ctx, logger, msg, DownloadFailedText)
			}
			return StatusFailedDownload
		}
		triggerText = strings.TrimSpace(transcript)
		text = AudioTranscriptTag + triggerText
	case media.KindUnsupported:
		if !msg.IsGroup() {
			d.reply(ctx, logger, msg, UnsupportedText)
		}
		return StatusIgnored
	}

	if text == "" {
		return StatusIgnored
	}

	if msg.IsGroup() {
		if !shouldReply(triggerText, d.cfg.TriggerKeywords, d.cfg.MentionNames) {
			return StatusLoggedGroup
		}
	} else {
		if !known {
			return d.handleUnknownSender(ctx, logger, msg, sender, text)
		}
		if d.cfg.RequireApproval && !profile.IsApproved {
			d.reply(ctx, logger, msg, NotApprovedText)
			return StatusProcessed
		}
	}

	result := d.runChat(ctx, profile.TenantID, text)
	d.reply(ctx, logger, msg, result.Insight)
	return StatusProcessed
}

func (d *Dispatcher) resolveProfile(ctx context.Context, logger *slog.Logger, sender string) (tenants.Profile, bool) {
	if d.deps.Tenants == nil {
		return tenants.Profile{}, false
	}
	profile, err := d.deps.Tenants.Resolve(ctx, sender)
	if err != nil {
		if !errors.Is(err, tenants.ErrProfileNotFound) {
			logger.Warn("resolve profile failed", slog.Any("error", err))
		}
		return tenants.Profile{}, false
	}
	return profile, true
}

func (d *Dispatcher) recordGroupEvent(ctx context.Context, logger *slog.Logger, msg channel.InboundMessage, tenantID string, event channel.Event) {
	if d.deps.Audit == nil {
		return
	}
	if err := d.deps.Audit.Record(ctx, audit.Entry{
		GroupID:  msg.Conversation.ID,
		Sender:   msg.Sender.SubjectID,
		TenantID: tenantID,
		Payload:  event.Raw,
	}); err != nil {
		logger.Warn("record group event failed", slog.Any("error", err))
	}
}

func (d *Dispatcher) handleMedia(ctx context.Context, logger *slog.Logger, msg channel.InboundMessage, kind media.Kind, tenantID string) Status {
	ack := ImageAckText
	if kind == media.KindDocument {
		ack = SheetAckText
	}
	d.reply(ctx, logger, msg, ack)

	text, err := d.convert(ctx, msg, kind, tenantID)
	if err != nil {
		logger.Warn("media download failed", slog.String("kind", string(kind)), slog.Any("error", err))
		d.reply(ctx, logger, msg, DownloadFailedText)
		return StatusFailedDownload
	}
	if kind == media.KindImage {
		text = ImageResultPrefix + text
	}
	d.reply(ctx, logger, msg, text)
	return StatusProcessed
}

func (d *Dispatcher) convert(ctx context.Context, msg channel.InboundMessage, kind media.Kind, tenantID string) (string, error) {
	if d.deps.Media == nil || msg.Message.Media == nil {
		return "", media.ErrDownloadFailed
	}
	return d.deps.Media.Convert(ctx, *msg.Message.Media, kind, tenantID)
}

func (d *Dispatcher) handleUnknownSender(ctx context.Context, logger *slog.Logger, msg channel.InboundMessage, sender, text string) Status {
	if !tenants.IsOnboardingCode(text) || d.deps.Tenants == nil {
		d.reply(ctx, logger, msg, CodePromptText)
		return StatusProcessed
	}
	_, tenant, err := d.deps.Tenants.Onboard(ctx, sender, text)
	switch {
	case err == nil:
		d.reply(ctx, logger, msg, fmt.Sprintf(WelcomeTextFormat, tenant.Name))
	case errors.Is(err, tenants.ErrInvalidCode):
		d.reply(ctx, logger, msg, InvalidCodeText)
	default:
		logger.Error("onboarding failed", slog.Any("error", err))
		d.reply(ctx, logger, msg, OnboardingFailedText)
	}
	return StatusProcessed
}

func (d *Dispatcher) runChat(ctx context.Context, tenantID, text string) chat.Result {
	if d.deps.Chat == nil {
		return chat.FallbackResult()
	}
	return d.deps.Chat.Run(ctx, flow.Input{
		TenantID: tenantID,
		Turns:    []chat.Message{{Role: chat.RoleUser, Content: text}},
		Template: d.cfg.Template,
	})
}

// reply sends body to the message's reply target. Failures are logged only.
func (d *Dispatcher) reply(ctx context.Context, logger *slog.Logger, msg channel.InboundMessage, body string) {
	if d.deps.Outbound == nil || strings.TrimSpace(body) == "" {
		return
	}
	target := msg.ReplyTarget()
	if err := d.deps.Outbound.Send(ctx, msg.Channel, target, body); err != nil {
		logger.Warn("send reply failed", slog.String("target", target), slog.Any("error", err))
	}
}
