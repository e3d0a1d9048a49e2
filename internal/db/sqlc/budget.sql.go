package sqlc

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const sumBudgetByCompany = `-- name: SumBudgetByCompany :one
SELECT COALESCE(SUM(unit_price * planned_quantity), 0)::double precision AS total
FROM budget_items
WHERE company_id = $1
`

func (q *Queries) SumBudgetByCompany(ctx context.Context, companyID pgtype.UUID) (float64, error) {
	row := q.db.QueryRow(ctx, sumBudgetByCompany, companyID)
	var total float64
	err := row.Scan(&total)
	return total, err
}

const listBudgetItems = `-- name: ListBudgetItems :many
SELECT id, company_id, item_name, unit, unit_price, planned_quantity, used_quantity, created_at
FROM budget_items
WHERE company_id = $1
ORDER BY created_at
`

func (q *Queries) ListBudgetItems(ctx context.Context, companyID pgtype.UUID) ([]BudgetItem, error) {
	rows, err := q.db.Query(ctx, listBudgetItems, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []BudgetItem
	for rows.Next() {
		var i BudgetItem
		if err := rows.Scan(
			&i.ID,
			&i.CompanyID,
			&i.ItemName,
			&i.Unit,
			&i.UnitPrice,
			&i.PlannedQuantity,
			&i.UsedQuantity,
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

type CreateBudgetItemsParams struct {
	CompanyID       pgtype.UUID `json:"company_id"`
	ItemName        string      `json:"item_name"`
	Unit            string      `json:"unit"`
	UnitPrice       float64     `json:"unit_price"`
	PlannedQuantity float64     `json:"planned_quantity"`
	UsedQuantity    float64     `json:"used_quantity"`
}

// iteratorForCreateBudgetItems implements pgx.CopyFromSource.
type iteratorForCreateBudgetItems struct {
	rows                 []CreateBudgetItemsParams
	skippedFirstNextCall bool
}

func (r *iteratorForCreateBudgetItems) Next() bool {
	if len(r.rows) == 0 {
		return false
	}
	if !r.skippedFirstNextCall {
		r.skippedFirstNextCall = true
		return true
	}
	r.rows = r.rows[1:]
	return len(r.rows) > 0
}

func (r iteratorForCreateBudgetItems) Values() ([]interface{}, error) {
	return []interface{}{
		r.rows[0].CompanyID,
		r.rows[0].ItemName,
		r.rows[0].Unit,
		r.rows[0].UnitPrice,
		r.rows[0].PlannedQuantity,
		r.rows[0].UsedQuantity,
	}, nil
}

func (r iteratorForCreateBudgetItems) Err() error {
	return nil
}

func (q *Queries) CreateBudgetItems(ctx context.Context, arg []CreateBudgetItemsParams) (int64, error) {
	return q.db.CopyFrom(ctx, []string{"budget_items"}, []string{"company_id", "item_name", "unit", "unit_price", "planned_quantity", "used_quantity"}, &iteratorForCreateBudgetItems{rows: arg})
}
