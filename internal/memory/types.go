package memory

import "time"

const (
	// RecentLimit is how many facts FetchMemory renders, newest first.
	RecentLimit = 15
	// DefaultCategory is stored when SaveMemory gets no category.
	DefaultCategory = "general"
	// ProgressDenominator is the total point budget of a site's milestones.
	ProgressDenominator = 1000.0
	// ProgressStatusCompleted marks milestones counted toward progress.
	ProgressStatusCompleted = "completed"

	timestampLayout = "2006-01-02T15:04"
)

// Fixed strings returned in place of a memory block.
const (
	TenantMissingText = "Şirket kaydı bulunamadı. Hafıza kapalı."
	NoRecordsText     = "Henüz bir kayıt yok."
	UnavailableText   = "Hafıza alınamadı."
)

// Fact is one stored site memory entry.
type Fact struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenant_id"`
	Content   string    `json:"content"`
	Category  string    `json:"category"`
	CreatedAt time.Time `json:"created_at"`
}
