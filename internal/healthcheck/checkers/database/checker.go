package databasechecker

import (
	"context"
	"log/slog"
	"time"

	"github.com/santiyeai/sitechief/internal/healthcheck"
)

const (
	checkTypeDatabase = "database.connection"
	pingTimeout       = 3 * time.Second
)

// Pinger is satisfied by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Checker pings the database.
type Checker struct {
	logger *slog.Logger
	pinger Pinger
}

func NewChecker(log *slog.Logger, pinger Pinger) *Checker {
	if log == nil {
		log = slog.Default()
	}
	return &Checker{
		logger: log.With(slog.String("checker", "healthcheck_database")),
		pinger: pinger,
	}
}

func (c *Checker) ListChecks(ctx context.Context) []healthcheck.CheckResult {
	item := healthcheck.CheckResult{
		ID:      checkTypeDatabase + ".postgres",
		Type:    checkTypeDatabase,
		Status:  healthcheck.StatusOK,
		Summary: "Database is reachable.",
	}
	if c.pinger == nil {
		item.Status = healthcheck.StatusError
		item.Summary = "Database is not configured."
		return []healthcheck.CheckResult{item}
	}
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := c.pinger.Ping(ctx); err != nil {
		c.logger.Warn("database ping failed", slog.Any("error", err))
		item.Status = healthcheck.StatusError
		item.Summary = "Database ping failed."
		item.Detail = err.Error()
	}
	return []healthcheck.CheckResult{item}
}
