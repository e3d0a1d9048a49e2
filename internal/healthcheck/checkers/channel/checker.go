package channelchecker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/santiyeai/sitechief/internal/channel"
	"github.com/santiyeai/sitechief/internal/healthcheck"
)

const checkTypeChannelCredentials = "channel.credentials"

// SenderSource lists the registered outbound channels.
type SenderSource interface {
	Types() []channel.ChannelType
	Get(channelType channel.ChannelType) (channel.Sender, bool)
}

type configurable interface {
	Configured() bool
}

// Checker reports whether each registered channel can send replies.
type Checker struct {
	logger *slog.Logger
	source SenderSource
}

// NewChecker creates a channel health checker.
func NewChecker(log *slog.Logger, source SenderSource) *Checker {
	if log == nil {
		log = slog.Default()
	}
	return &Checker{
		logger: log.With(slog.String("checker", "healthcheck_channel")),
		source: source,
	}
}

// ListChecks returns one item per registered channel.
func (c *Checker) ListChecks(ctx context.Context) []healthcheck.CheckResult {
	if err := ctx.Err(); err != nil {
		return []healthcheck.CheckResult{}
	}
	if c.source == nil {
		return []healthcheck.CheckResult{{
			ID:      checkTypeChannelCredentials + ".registry",
			Type:    checkTypeChannelCredentials,
			Status:  healthcheck.StatusWarn,
			Summary: "Channel registry is not available.",
		}}
	}
	types := c.source.Types()
	checks := make([]healthcheck.CheckResult, 0, len(types))
	for _, channelType := range types {
		item := healthcheck.CheckResult{
			ID:      checkTypeChannelCredentials + "." + channelType.String(),
			Type:    checkTypeChannelCredentials,
			Status:  healthcheck.StatusOK,
			Summary: fmt.Sprintf("Channel %s can send replies.", channelType),
		}
		sender, ok := c.source.Get(channelType)
		if cfg, isConfigurable := sender.(configurable); ok && isConfigurable && !cfg.Configured() {
			item.Status = healthcheck.StatusWarn
			item.Summary = fmt.Sprintf("Channel %s credentials are missing; replies are dropped.", channelType)
		}
		checks = append(checks, item)
	}
	return checks
}
