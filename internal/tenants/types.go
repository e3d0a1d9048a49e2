package tenants

import "time"

const (
	// RoleWorker is assigned to every profile created by onboarding.
	RoleWorker = "worker"
	// CodePrefix marks text that should be treated as an onboarding code.
	CodePrefix = "#"
)

// Tenant is an onboarded company.
type Tenant struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Code string `json:"code"`
}

// Profile is a sender's membership in a tenant.
type Profile struct {
	ID         string    `json:"id"`
	Phone      string    `json:"phone,omitempty"`
	UserID     string    `json:"user_id,omitempty"`
	TenantID   string    `json:"tenant_id"`
	Role       string    `json:"role"`
	IsApproved bool      `json:"is_approved"`
	CreatedAt  time.Time `json:"created_at"`
}
