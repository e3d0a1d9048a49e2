package sqlc

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const listSiteMemory = `-- name: ListSiteMemory :many
SELECT id, company_id, content, category, created_at
FROM site_memory
WHERE company_id = $1
ORDER BY created_at DESC
LIMIT $2
`

type ListSiteMemoryParams struct {
	CompanyID pgtype.UUID `json:"company_id"`
	Limit     int32       `json:"limit"`
}

func (q *Queries) ListSiteMemory(ctx context.Context, arg ListSiteMemoryParams) ([]SiteMemory, error) {
	rows, err := q.db.Query(ctx, listSiteMemory, arg.CompanyID, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []SiteMemory
	for rows.Next() {
		var i SiteMemory
		if err := rows.Scan(
			&i.ID,
			&i.CompanyID,
			&i.Content,
			&i.Category,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const createSiteMemory = `-- name: CreateSiteMemory :one
INSERT INTO site_memory (company_id, content, category)
VALUES ($1, $2, $3)
RETURNING id, company_id, content, category, created_at
`

type CreateSiteMemoryParams struct {
	CompanyID pgtype.UUID `json:"company_id"`
	Content   string      `json:"content"`
	Category  string      `json:"category"`
}

func (q *Queries) CreateSiteMemory(ctx context.Context, arg CreateSiteMemoryParams) (SiteMemory, error) {
	row := q.db.QueryRow(ctx, createSiteMemory, arg.CompanyID, arg.Content, arg.Category)
	var i SiteMemory
	err := row.Scan(
		&i.ID,
		&i.CompanyID,
		&i.Content,
		&i.Category,
		&i.CreatedAt,
	)
	return i, err
}
