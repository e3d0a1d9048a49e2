package sqlc

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const getProfileByPhone = `-- name: GetProfileByPhone :one
SELECT id, phone, user_id, company_id, role, is_approved, created_at FROM profiles WHERE phone = $1
`

func (q *Queries) GetProfileByPhone(ctx context.Context, phone pgtype.Text) (Profile, error) {
	row := q.db.QueryRow(ctx, getProfileByPhone, phone)
	var i Profile
	err := row.Scan(
		&i.ID,
		&i.Phone,
		&i.UserID,
		&i.CompanyID,
		&i.Role,
		&i.IsApproved,
		&i.CreatedAt,
	)
	return i, err
}

const getProfileByUserID = `-- name: GetProfileByUserID :one
SELECT id, phone, user_id, company_id, role, is_approved, created_at FROM profiles WHERE user_id = $1
`

func (q *Queries) GetProfileByUserID(ctx context.Context, userID pgtype.UUID) (Profile, error) {
	row := q.db.QueryRow(ctx, getProfileByUserID, userID)
	var i Profile
	err := row.Scan(
		&i.ID,
		&i.Phone,
		&i.UserID,
		&i.CompanyID,
		&i.Role,
		&i.IsApproved,
		&i.CreatedAt,
	)
	return i, err
}

const createProfile = `-- name: CreateProfile :one
INSERT INTO profiles (phone, company_id, role, is_approved)
VALUES ($1, $2, $3, $4)
RETURNING id, phone, user_id, company_id, role, is_approved, created_at
`

type CreateProfileParams struct {
	Phone      pgtype.Text `json:"phone"`
	CompanyID  pgtype.UUID `json:"company_id"`
	Role       string      `json:"role"`
	IsApproved bool        `json:"is_approved"`
}

func (q *Queries) CreateProfile(ctx context.Context, arg CreateProfileParams) (Profile, error) {
	row := q.db.QueryRow(ctx, createProfile,
		arg.Phone,
		arg.CompanyID,
		arg.Role,
		arg.IsApproved,
	)
	var i Profile
	err := row.Scan(
		&i.ID,
		&i.Phone,
		&i.UserID,
		&i.CompanyID,
		&i.Role,
		&i.IsApproved,
		&i.CreatedAt,
	)
	return i, err
}
