package ports

import (
	"context"

	"github.com/widegest/printflow/internal/domain"
)

// SwitchJobUpsert carries one dispatch or callback event to record against
// the (item, phase) job row, creating it if absent.
type SwitchJobUpsert struct {
	OrderID *int64
	ItemID  *int64
	Phase   domain.Phase
	JobID   string
	Status  domain.SwitchJobStatus
	LogLine string
}

type SwitchJobRepository interface {
	Upsert(ctx context.Context, ev SwitchJobUpsert) (*domain.SwitchJob, error)
	FindByItemAndPhase(ctx context.Context, itemID int64, phase domain.Phase) (*domain.SwitchJob, error)
}
