// Package keepalive periodically requests the service's public URL so that
// hosting platforms which idle inactive instances keep it warm.
package keepalive

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/santiyeai/sitechief/internal/config"
)

const requestTimeout = 10 * time.Second

// Pinger runs the keep-alive job.
type Pinger struct {
	url        string
	schedule   string
	httpClient *http.Client
	cron       *cron.Cron
	logger     *slog.Logger
}

func NewPinger(log *slog.Logger, cfg config.KeepAliveConfig) *Pinger {
	if log == nil {
		log = slog.Default()
	}
	schedule := strings.TrimSpace(cfg.Schedule)
	if schedule == "" {
		schedule = config.DefaultKeepAliveSpec
	}
	return &Pinger{
		url:        strings.TrimSpace(cfg.URL),
		schedule:   schedule,
		httpClient: &http.Client{Timeout: requestTimeout},
		logger:     log.With(slog.String("component", "keepalive")),
	}
}

// Start registers the job and starts the scheduler.
func (p *Pinger) Start() error {
	if p.url == "" {
		return fmt.Errorf("keepalive url is required")
	}
	c := cron.New()
	if _, err := c.AddFunc(p.schedule, func() {
		_ = p.Ping(context.Background())
	}); err != nil {
		return fmt.Errorf("invalid keepalive schedule %q: %w", p.schedule, err)
	}
	p.cron = c
	c.Start()
	p.logger.Info("keepalive started", slog.String("url", p.url), slog.String("schedule", p.schedule))
	return nil
}

// Stop stops the scheduler and waits for a running ping to finish or ctx to end.
func (p *Pinger) Stop(ctx context.Context) {
	if p.cron == nil {
		return
	}
	done := p.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}

// Ping requests the configured URL once and logs the outcome.
func (p *Pinger) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		p.logger.Warn("keepalive request invalid", slog.Any("error", err))
		return err
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		p.logger.Warn("keepalive ping failed", slog.Any("error", err))
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		p.logger.Warn("keepalive ping unexpected status", slog.Int("status", resp.StatusCode))
		return fmt.Errorf("keepalive status %d", resp.StatusCode)
	}
	p.logger.Debug("keepalive ping ok")
	return nil
}
