package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/widegest/printflow/internal/domain"
)

type ImportErrorRepository struct {
	db *sqlx.DB
}

func NewImportErrorRepo(db *sqlx.DB) *ImportErrorRepository {
	return &ImportErrorRepository{db: db}
}

func (r *ImportErrorRepository) Create(ctx context.Context, filename, reason string) error {
	const query = `INSERT INTO import_errors (id, filename, reason) VALUES ($1, $2, $3)`

	_, err := r.db.ExecContext(ctx, query, uuid.New(), filename, reason)
	return err
}

func (r *ImportErrorRepository) List(ctx context.Context, limit, offset int) ([]domain.ImportError, error) {
	const query = `
		SELECT id, filename, reason, created_at
		FROM import_errors
		ORDER BY created_at DESC, id
		LIMIT $1 OFFSET $2`

	errorsList := []domain.ImportError{}
	if err := r.db.SelectContext(ctx, &errorsList, query, limit, offset); err != nil {
		return nil, err
	}
	return errorsList, nil
}

func (r *ImportErrorRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM import_errors`); err != nil {
		return 0, err
	}
	return total, nil
}
