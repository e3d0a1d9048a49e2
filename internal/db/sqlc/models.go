package sqlc

import (
	"github.com/jackc/pgx/v5/pgtype"
)

type BudgetItem struct {
	ID              pgtype.UUID        `json:"id"`
	CompanyID       pgtype.UUID        `json:"company_id"`
	ItemName        string             `json:"item_name"`
	Unit            string             `json:"unit"`
	UnitPrice       float64            `json:"unit_price"`
	PlannedQuantity float64            `json:"planned_quantity"`
	UsedQuantity    float64            `json:"used_quantity"`
	CreatedAt       pgtype.Timestamptz `json:"created_at"`
}

type Company struct {
	ID        pgtype.UUID        `json:"id"`
	Name      string             `json:"name"`
	Code      string             `json:"code"`
	CreatedAt pgtype.Timestamptz `json:"created_at"`
}

type GroupAuditLog struct {
	ID        pgtype.UUID        `json:"id"`
	GroupID   string             `json:"group_id"`
	Sender    string             `json:"sender"`
	CompanyID pgtype.UUID        `json:"company_id"`
	Payload   []byte             `json:"payload"`
	CreatedAt pgtype.Timestamptz `json:"created_at"`
}

type Profile struct {
	ID         pgtype.UUID        `json:"id"`
	Phone      pgtype.Text        `json:"phone"`
	UserID     pgtype.UUID        `json:"user_id"`
	CompanyID  pgtype.UUID        `json:"company_id"`
	Role       string             `json:"role"`
	IsApproved bool               `json:"is_approved"`
	CreatedAt  pgtype.Timestamptz `json:"created_at"`
}

type ProgressRecord struct {
	ID           pgtype.UUID        `json:"id"`
	CompanyID    pgtype.UUID        `json:"company_id"`
	TaskName     string             `json:"task_name"`
	Status       string             `json:"status"`
	WeightPoints float64            `json:"weight_points"`
	CreatedAt    pgtype.Timestamptz `json:"created_at"`
}

type SiteMemory struct {
	ID        pgtype.UUID        `json:"id"`
	CompanyID pgtype.UUID        `json:"company_id"`
	Content   string             `json:"content"`
	Category  string             `json:"category"`
	CreatedAt pgtype.Timestamptz `json:"created_at"`
}
