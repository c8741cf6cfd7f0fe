package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/widegest/printflow/internal/domain"
)

type StoreRepository interface {
	FindByCode(ctx context.Context, code string) (*domain.Store, error)
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Store, error)
	List(ctx context.Context) ([]domain.Store, error)
}

type ProductRepository interface {
	FindBySKU(ctx context.Context, sku string) (*domain.Product, error)
	List(ctx context.Context) ([]domain.Product, error)
}

type MachineRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Machine, error)
	List(ctx context.Context) ([]domain.Machine, error)
}
