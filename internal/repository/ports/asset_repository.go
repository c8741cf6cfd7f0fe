package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/widegest/printflow/internal/domain"
)

type AssetRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Asset, error)
	ListByItem(ctx context.Context, itemID int64) ([]domain.Asset, error)
	// SetObject records the local object key and size after retrieval.
	// Re-retrieval overwrites identically, so repeated calls are harmless.
	SetObject(ctx context.Context, id uuid.UUID, objectKey string, sizeBytes int64) error
}
