package memory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"
	"golang.org/x/sync/errgroup"

	"github.com/santiyeai/sitechief/internal/db"
	"github.com/santiyeai/sitechief/internal/db/sqlc"
	"github.com/santiyeai/sitechief/internal/sheets"
)

var ErrTenantRequired = errors.New("tenant id is required")

// Queries is the subset of sqlc queries used by the memory service.
type Queries interface {
	ListSiteMemory(ctx context.Context, arg sqlc.ListSiteMemoryParams) ([]sqlc.SiteMemory, error)
	CreateSiteMemory(ctx context.Context, arg sqlc.CreateSiteMemoryParams) (sqlc.SiteMemory, error)
	SumBudgetByCompany(ctx context.Context, companyID pgtype.UUID) (float64, error)
	ListProgressRecordsByStatus(ctx context.Context, arg sqlc.ListProgressRecordsByStatusParams) ([]sqlc.ProgressRecord, error)
}

// Service assembles per-tenant context for prompts and stores extracted facts.
// Every read and write is scoped by a single tenant id.
type Service struct {
	queries Queries
	logger  *slog.Logger
}

// NewService creates a memory service.
func NewService(log *slog.Logger, queries Queries) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		queries: queries,
		logger:  log.With(slog.String("service", "memory")),
	}
}

// FetchMemory renders the tenant's most recent facts, one "- [time] content"
// line each. It never fails: missing tenants and query errors map to fixed text.
func (s *Service) FetchMemory(ctx context.Context, tenantID string) string {
	tenantID = strings.TrimSpace(tenantID)
	if tenantID == "" {
		return TenantMissingText
	}
	facts, err := s.Recent(ctx, tenantID, RecentLimit)
	if err != nil {
		s.logger.Warn("fetch memory failed", slog.String("tenant_id", tenantID), slog.Any("error", err))
		return UnavailableText
	}
	if len(facts) == 0 {
		return NoRecordsText
	}
	lines := make([]string, 0, len(facts))
	for _, fact := range facts {
		lines = append(lines, fmt.Sprintf("- [%s] %s", fact.CreatedAt.UTC().Format(timestampLayout), fact.Content))
	}
	return strings.Join(lines, "\n")
}

// Recent returns up to limit facts for the tenant, newest first.
func (s *Service) Recent(ctx context.Context, tenantID string, limit int) ([]Fact, error) {
	if s.queries == nil {
		return nil, fmt.Errorf("memory queries not configured")
	}
	pgID, err := db.ParseUUID(tenantID)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = RecentLimit
	}
	rows, err := s.queries.ListSiteMemory(ctx, sqlc.ListSiteMemoryParams{
		CompanyID: pgID,
		Limit:     int32(limit),
	})
	if err != nil {
		return nil, err
	}
	facts := make([]Fact, 0, len(rows))
	for _, row := range rows {
		fact := Fact{
			ID:       db.UUIDString(row.ID),
			TenantID: db.UUIDString(row.CompanyID),
			Content:  row.Content,
			Category: row.Category,
		}
		if row.CreatedAt.Valid {
			fact.CreatedAt = row.CreatedAt.Time
		}
		facts = append(facts, fact)
	}
	return facts, nil
}

// FetchHardFacts renders the budget total and completed progress for a tenant.
// The two parts are computed independently; a failing part is left out.
func (s *Service) FetchHardFacts(ctx context.Context, tenantID string) string {
	tenantID = strings.TrimSpace(tenantID)
	if tenantID == "" || s.queries == nil {
		return ""
	}
	pgID, err := db.ParseUUID(tenantID)
	if err != nil {
		s.logger.Warn("hard facts: bad tenant id", slog.String("tenant_id", tenantID), slog.Any("error", err))
		return ""
	}

	var budgetLine, progressLine string
	var g errgroup.Group
	g.Go(func() error {
		total, err := s.queries.SumBudgetByCompany(ctx, pgID)
		if err != nil {
			s.logger.Warn("hard facts: budget query failed", slog.String("tenant_id", tenantID), slog.Any("error", err))
			return nil
		}
		budgetLine = "Toplam Bütçe: " + sheets.FormatMoney(total) + " TL"
		return nil
	})
	g.Go(func() error {
		rows, err := s.queries.ListProgressRecordsByStatus(ctx, sqlc.ListProgressRecordsByStatusParams{
			CompanyID: pgID,
			Status:    ProgressStatusCompleted,
		})
		if err != nil {
			s.logger.Warn("hard facts: progress query failed", slog.String("tenant_id", tenantID), slog.Any("error", err))
			return nil
		}
		progressLine = formatProgress(rows)
		return nil
	})
	_ = g.Wait()

	parts := make([]string, 0, 2)
	if budgetLine != "" {
		parts = append(parts, budgetLine)
	}
	if progressLine != "" {
		parts = append(parts, progressLine)
	}
	return strings.Join(parts, "\n")
}

// SaveMemory appends one fact for the tenant. It is a no-op without a tenant
// and only logs on failure.
func (s *Service) SaveMemory(ctx context.Context, tenantID, content, category string) {
	if err := s.Add(ctx, tenantID, content, category); err != nil {
		if errors.Is(err, ErrTenantRequired) {
			return
		}
		s.logger.Warn("save memory failed", slog.String("tenant_id", tenantID), slog.Any("error", err))
	}
}

// Add appends one fact and reports errors to the caller.
func (s *Service) Add(ctx context.Context, tenantID, content, category string) error {
	tenantID = strings.TrimSpace(tenantID)
	if tenantID == "" {
		return ErrTenantRequired
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return fmt.Errorf("content is required")
	}
	if s.queries == nil {
		return fmt.Errorf("memory queries not configured")
	}
	category = strings.TrimSpace(category)
	if category == "" {
		category = DefaultCategory
	}
	pgID, err := db.ParseUUID(tenantID)
	if err != nil {
		return err
	}
	if _, err := s.queries.CreateSiteMemory(ctx, sqlc.CreateSiteMemoryParams{
		CompanyID: pgID,
		Content:   content,
		Category:  category,
	}); err != nil {
		return fmt.Errorf("create site memory: %w", err)
	}
	return nil
}

func formatProgress(rows []sqlc.ProgressRecord) string {
	var points float64
	names := make([]string, 0, len(rows))
	for _, row := range rows {
		points += row.WeightPoints
		if name := strings.TrimSpace(row.TaskName); name != "" {
			names = append(names, name)
		}
	}
	line := fmt.Sprintf("Tamamlanan İlerleme: %%%.1f (%.0f/%.0f puan)", points/ProgressDenominator*100, points, ProgressDenominator)
	if len(names) > 0 {
		line += " - Biten işler: " + strings.Join(names, ", ")
	}
	return line
}
