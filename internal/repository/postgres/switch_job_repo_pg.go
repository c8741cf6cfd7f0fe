package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/widegest/printflow/internal/domain"
	"github.com/widegest/printflow/internal/repository/ports"
)

type SwitchJobRepository struct {
	db *sqlx.DB
}

func NewSwitchJobRepo(db *sqlx.DB) *SwitchJobRepository {
	return &SwitchJobRepository{db: db}
}

const switchJobColumns = `id, order_id, item_id, phase, job_id, status, log, created_at, updated_at`

// Upsert creates the (item, phase) job row on first dispatch and updates
// status/identifier on every later dispatch or callback. The log column only
// ever grows: the new line is concatenated, never replaced.
func (r *SwitchJobRepository) Upsert(ctx context.Context, ev ports.SwitchJobUpsert) (*domain.SwitchJob, error) {
	const query = `
		INSERT INTO switch_jobs (id, order_id, item_id, phase, job_id, status, log)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (item_id, phase) DO UPDATE
		SET job_id = CASE WHEN EXCLUDED.job_id <> '' THEN EXCLUDED.job_id ELSE switch_jobs.job_id END,
		    status = EXCLUDED.status,
		    order_id = COALESCE(EXCLUDED.order_id, switch_jobs.order_id),
		    log = switch_jobs.log || EXCLUDED.log,
		    updated_at = now()
		RETURNING ` + switchJobColumns

	var job domain.SwitchJob
	if err := r.db.GetContext(ctx, &job, query,
		uuid.New(), ev.OrderID, ev.ItemID, ev.Phase, ev.JobID, ev.Status, ev.LogLine,
	); err != nil {
		return nil, err
	}
	return &job, nil
}

func (r *SwitchJobRepository) FindByItemAndPhase(ctx context.Context, itemID int64, phase domain.Phase) (*domain.SwitchJob, error) {
	const query = `SELECT ` + switchJobColumns + ` FROM switch_jobs WHERE item_id = $1 AND phase = $2`

	var job domain.SwitchJob
	if err := r.db.GetContext(ctx, &job, query, itemID, phase); err != nil {
		return nil, err
	}
	return &job, nil
}
