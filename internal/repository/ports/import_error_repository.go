package ports

import (
	"context"

	"github.com/widegest/printflow/internal/domain"
)

type ImportErrorRepository interface {
	Create(ctx context.Context, filename, reason string) error
	List(ctx context.Context, limit, offset int) ([]domain.ImportError, error)
	Count(ctx context.Context) (int64, error)
}
