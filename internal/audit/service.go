// Package audit appends group chat events to the group audit trail.
package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/santiyeai/sitechief/internal/db"
	"github.com/santiyeai/sitechief/internal/db/sqlc"
)

var ErrGroupRequired = errors.New("group id is required")

// Entry is one audited group event. TenantID is empty when the sender is unknown.
type Entry struct {
	GroupID  string
	Sender   string
	TenantID string
	Payload  json.RawMessage
}

// Queries is the subset of sqlc queries used by the audit service.
type Queries interface {
	CreateGroupAuditLog(ctx context.Context, arg sqlc.CreateGroupAuditLogParams) (sqlc.GroupAuditLog, error)
}

type Service struct {
	queries Queries
	logger  *slog.Logger
}

func NewService(log *slog.Logger, queries Queries) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		queries: queries,
		logger:  log.With(slog.String("service", "audit")),
	}
}

// Record appends entry. Records are never updated or deleted.
func (s *Service) Record(ctx context.Context, entry Entry) error {
	if s.queries == nil {
		return fmt.Errorf("audit queries not configured")
	}
	groupID := strings.TrimSpace(entry.GroupID)
	if groupID == "" {
		return ErrGroupRequired
	}
	var companyID pgtype.UUID
	if strings.TrimSpace(entry.TenantID) != "" {
		parsed, err := db.ParseUUID(entry.TenantID)
		if err != nil {
			s.logger.Warn("audit tenant id ignored", slog.String("tenant_id", entry.TenantID), slog.Any("error", err))
		} else {
			companyID = parsed
		}
	}
	payload := []byte(entry.Payload)
	if len(payload) == 0 || !json.Valid(payload) {
		payload = []byte("{}")
	}
	if _, err := s.queries.CreateGroupAuditLog(ctx, sqlc.CreateGroupAuditLogParams{
		GroupID:   groupID,
		Sender:    strings.TrimSpace(entry.Sender),
		CompanyID: companyID,
		Payload:   payload,
	}); err != nil {
		return fmt.Errorf("create group audit log: %w", err)
	}
	return nil
}
