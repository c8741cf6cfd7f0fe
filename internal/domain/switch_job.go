package domain

import (
	"time"

	"github.com/google/uuid"
)

type SwitchJobStatus string

const (
	SwitchJobStatusSent       SwitchJobStatus = "sent"
	SwitchJobStatusProcessing SwitchJobStatus = "processing"
	SwitchJobStatusCompleted  SwitchJobStatus = "completed"
	SwitchJobStatusFailed     SwitchJobStatus = "failed"
)

// SwitchJob records one outbound dispatch and its external correlation
// identifier. Log is append-only; every dispatch attempt and every callback
// adds a line.
type SwitchJob struct {
	ID        uuid.UUID       `db:"id" json:"id"`
	OrderID   *int64          `db:"order_id" json:"order_id,omitempty"`
	ItemID    *int64          `db:"item_id" json:"item_id,omitempty"`
	Phase     Phase           `db:"phase" json:"phase"`
	JobID     string          `db:"job_id" json:"job_id"`
	Status    SwitchJobStatus `db:"status" json:"status"`
	Log       string          `db:"log" json:"log"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`
}
