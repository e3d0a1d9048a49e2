package tenants

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/santiyeai/sitechief/internal/db"
	"github.com/santiyeai/sitechief/internal/db/sqlc"
)

var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrInvalidCode     = errors.New("invalid onboarding code")
)

// Queries is the subset of sqlc queries used by the tenant service.
type Queries interface {
	GetCompanyByCode(ctx context.Context, code string) (sqlc.Company, error)
	GetCompanyByID(ctx context.Context, id pgtype.UUID) (sqlc.Company, error)
	ListCompanies(ctx context.Context) ([]sqlc.Company, error)
	GetProfileByPhone(ctx context.Context, phone pgtype.Text) (sqlc.Profile, error)
	GetProfileByUserID(ctx context.Context, userID pgtype.UUID) (sqlc.Profile, error)
	CreateProfile(ctx context.Context, arg sqlc.CreateProfileParams) (sqlc.Profile, error)
}

// Service maps sender identifiers to tenants and profiles.
type Service struct {
	queries Queries
	logger  *slog.Logger
}

// NewService creates a tenant service.
func NewService(log *slog.Logger, queries Queries) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		queries: queries,
		logger:  log.With(slog.String("service", "tenants")),
	}
}

// Resolve returns the profile registered for a phone identifier.
func (s *Service) Resolve(ctx context.Context, phone string) (Profile, error) {
	if s.queries == nil {
		return Profile{}, fmt.Errorf("tenant queries not configured")
	}
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return Profile{}, ErrProfileNotFound
	}
	row, err := s.queries.GetProfileByPhone(ctx, db.TextValue(phone))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Profile{}, ErrProfileNotFound
		}
		return Profile{}, fmt.Errorf("get profile by phone: %w", err)
	}
	return toProfile(row), nil
}

// ResolveByUserID returns the profile linked to a web account.
func (s *Service) ResolveByUserID(ctx context.Context, userID string) (Profile, error) {
	if s.queries == nil {
		return Profile{}, fmt.Errorf("tenant queries not configured")
	}
	if strings.TrimSpace(userID) == "" {
		return Profile{}, ErrProfileNotFound
	}
	pgUserID, err := db.ParseUUID(userID)
	if err != nil {
		return Profile{}, ErrProfileNotFound
	}
	row, err := s.queries.GetProfileByUserID(ctx, pgUserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Profile{}, ErrProfileNotFound
		}
		return Profile{}, fmt.Errorf("get profile by user: %w", err)
	}
	return toProfile(row), nil
}

// Onboard registers phone under the tenant whose code matches exactly.
// An unknown code returns ErrInvalidCode and writes nothing.
func (s *Service) Onboard(ctx context.Context, phone, code string) (Profile, Tenant, error) {
	if s.queries == nil {
		return Profile{}, Tenant{}, fmt.Errorf("tenant queries not configured")
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return Profile{}, Tenant{}, ErrInvalidCode
	}
	company, err := s.queries.GetCompanyByCode(ctx, code)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Profile{}, Tenant{}, ErrInvalidCode
		}
		return Profile{}, Tenant{}, fmt.Errorf("get company by code: %w", err)
	}
	row, err := s.queries.CreateProfile(ctx, sqlc.CreateProfileParams{
		Phone:      db.TextValue(phone),
		CompanyID:  company.ID,
		Role:       RoleWorker,
		IsApproved: false,
	})
	if err != nil {
		return Profile{}, Tenant{}, fmt.Errorf("create profile: %w", err)
	}
	tenant := toTenant(company)
	s.logger.Info("profile onboarded",
		slog.String("phone", strings.TrimSpace(phone)),
		slog.String("tenant_id", tenant.ID),
	)
	return toProfile(row), tenant, nil
}

// Get returns a tenant by id.
func (s *Service) Get(ctx context.Context, tenantID string) (Tenant, error) {
	if s.queries == nil {
		return Tenant{}, fmt.Errorf("tenant queries not configured")
	}
	pgID, err := db.ParseUUID(tenantID)
	if err != nil {
		return Tenant{}, err
	}
	row, err := s.queries.GetCompanyByID(ctx, pgID)
	if err != nil {
		return Tenant{}, err
	}
	return toTenant(row), nil
}

// List returns every tenant ordered by name.
func (s *Service) List(ctx context.Context) ([]Tenant, error) {
	if s.queries == nil {
		return nil, fmt.Errorf("tenant queries not configured")
	}
	rows, err := s.queries.ListCompanies(ctx)
	if err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}
	items := make([]Tenant, 0, len(rows))
	for _, row := range rows {
		items = append(items, toTenant(row))
	}
	return items, nil
}

// IsOnboardingCode reports whether text looks like a company code.
func IsOnboardingCode(text string) bool {
	return strings.HasPrefix(strings.TrimSpace(text), CodePrefix)
}

func toTenant(row sqlc.Company) Tenant {
	return Tenant{
		ID:   db.UUIDString(row.ID),
		Name: row.Name,
		Code: row.Code,
	}
}

func toProfile(row sqlc.Profile) Profile {
	p := Profile{
		ID:         db.UUIDString(row.ID),
		UserID:     db.UUIDString(row.UserID),
		TenantID:   db.UUIDString(row.CompanyID),
		Role:       row.Role,
		IsApproved: row.IsApproved,
	}
	if row.Phone.Valid {
		p.Phone = row.Phone.String
	}
	if row.CreatedAt.Valid {
		p.CreatedAt = row.CreatedAt.Time
	}
	return p
}
