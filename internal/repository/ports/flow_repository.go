package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/widegest/printflow/internal/domain"
)

type FlowRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Flow, error)
	List(ctx context.Context) ([]domain.Flow, error)
}

type EndpointRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Endpoint, error)
	List(ctx context.Context) ([]domain.Endpoint, error)
}
