package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/widegest/printflow/internal/domain"
)

type AssetRepository struct {
	db *sqlx.DB
}

func NewAssetRepo(db *sqlx.DB) *AssetRepository {
	return &AssetRepository{db: db}
}

const assetColumns = `id, item_id, role, source_url, object_key, size_bytes, position, created_at`

func (r *AssetRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Asset, error) {
	const query = `SELECT ` + assetColumns + ` FROM assets WHERE id = $1`

	var asset domain.Asset
	if err := r.db.GetContext(ctx, &asset, query, id); err != nil {
		return nil, err
	}
	return &asset, nil
}

func (r *AssetRepository) ListByItem(ctx context.Context, itemID int64) ([]domain.Asset, error) {
	const query = `SELECT ` + assetColumns + ` FROM assets WHERE item_id = $1 ORDER BY position, created_at`

	assets := []domain.Asset{}
	if err := r.db.SelectContext(ctx, &assets, query, itemID); err != nil {
		return nil, err
	}
	return assets, nil
}

func (r *AssetRepository) SetObject(ctx context.Context, id uuid.UUID, objectKey string, sizeBytes int64) error {
	const query = `UPDATE assets SET object_key = $2, size_bytes = $3 WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id, objectKey, sizeBytes)
	if err != nil {
		return err
	}
	return requireRow(res)
}
