package handlers

import (
	"log/slog"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"

	"github.com/santiyeai/sitechief/internal/channel"
	"github.com/santiyeai/sitechief/internal/healthcheck"
	channelchecker "github.com/santiyeai/sitechief/internal/healthcheck/checkers/channel"
	databasechecker "github.com/santiyeai/sitechief/internal/healthcheck/checkers/database"
)

// HealthHandler reports dependency checks.
type HealthHandler struct {
	checkers []healthcheck.Checker
	logger   *slog.Logger
}

func NewHealthHandler(log *slog.Logger, checkers ...healthcheck.Checker) *HealthHandler {
	if log == nil {
		log = slog.Default()
	}
	return &HealthHandler{
		checkers: checkers,
		logger:   log.With(slog.String("handler", "health")),
	}
}

// NewHealthServerHandler is a DI-friendly constructor for fx.
func NewHealthServerHandler(log *slog.Logger, conn *pgxpool.Pool, registry *channel.Registry) *HealthHandler {
	return NewHealthHandler(log,
		databasechecker.NewChecker(log, conn),
		channelchecker.NewChecker(log, registry),
	)
}

func (h *HealthHandler) Register(e *echo.Echo) {
	e.GET("/health", h.Health)
}

// Health returns 200 unless a check reports an error.
func (h *HealthHandler) Health(c echo.Context) error {
	report := healthcheck.Run(c.Request().Context(), h.checkers...)
	status := http.StatusOK
	if report.Status == healthcheck.StatusError {
		status = http.StatusServiceUnavailable
		h.logger.Warn("health check failed", slog.Int("checks", len(report.Checks)))
	}
	return c.JSON(status, report)
}
