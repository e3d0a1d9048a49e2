package sqlc

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const createGroupAuditLog = `-- name: CreateGroupAuditLog :one
INSERT INTO group_audit_log (group_id, sender, company_id, payload)
VALUES ($1, $2, $3, $4)
RETURNING id, group_id, sender, company_id, payload, created_at
`

type CreateGroupAuditLogParams struct {
	GroupID   string      `json:"group_id"`
	Sender    string      `json:"sender"`
	CompanyID pgtype.UUID `json:"company_id"`
	Payload   []byte      `json:"payload"`
}

func (q *Queries) CreateGroupAuditLog(ctx context.Context, arg CreateGroupAuditLogParams) (GroupAuditLog, error) {
	row := q.db.QueryRow(ctx, createGroupAuditLog,
		arg.GroupID,
		arg.Sender,
		arg.CompanyID,
		arg.Payload,
	)
	var i GroupAuditLog
	err := row.Scan(
		&i.ID,
		&i.GroupID,
		&i.Sender,
		&i.CompanyID,
		&i.Payload,
		&i.CreatedAt,
	)
	return i, err
}
