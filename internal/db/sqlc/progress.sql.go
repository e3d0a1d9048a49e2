package sqlc

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const listProgressRecordsByStatus = `-- name: ListProgressRecordsByStatus :many
SELECT id, company_id, task_name, status, weight_points, created_at
FROM progress_records
WHERE company_id = $1 AND status = $2
ORDER BY created_at
`

type ListProgressRecordsByStatusParams struct {
	CompanyID pgtype.UUID `json:"company_id"`
	Status    string      `json:"status"`
}

func (q *Queries) ListProgressRecordsByStatus(ctx context.Context, arg ListProgressRecordsByStatusParams) ([]ProgressRecord, error) {
	rows, err := q.db.Query(ctx, listProgressRecordsByStatus, arg.CompanyID, arg.Status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ProgressRecord
	for rows.Next() {
		var i ProgressRecord
		if err := rows.Scan(
			&i.ID,
			&i.CompanyID,
			&i.TaskName,
			&i.Status,
			&i.WeightPoints,
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
