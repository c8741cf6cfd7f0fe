package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/widegest/printflow/internal/domain"
)

type FlowRepository struct {
	db *sqlx.DB
}

func NewFlowRepo(db *sqlx.DB) *FlowRepository {
	return &FlowRepository{db: db}
}

const flowColumns = `id, name, preprint_endpoint_id, print_endpoint_id, label_endpoint_id, created_at, updated_at`

func (r *FlowRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Flow, error) {
	const query = `SELECT ` + flowColumns + ` FROM flows WHERE id = $1`

	var flow domain.Flow
	if err := r.db.GetContext(ctx, &flow, query, id); err != nil {
		return nil, err
	}
	return &flow, nil
}

func (r *FlowRepository) List(ctx context.Context) ([]domain.Flow, error) {
	const query = `SELECT ` + flowColumns + ` FROM flows ORDER BY name`

	flows := []domain.Flow{}
	if err := r.db.SelectContext(ctx, &flows, query); err != nil {
		return nil, err
	}
	return flows, nil
}

type EndpointRepository struct {
	db *sqlx.DB
}

func NewEndpointRepo(db *sqlx.DB) *EndpointRepository {
	return &EndpointRepository{db: db}
}

const endpointColumns = `id, name, url, store_id, created_at, updated_at`

func (r *EndpointRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Endpoint, error) {
	const query = `SELECT ` + endpointColumns + ` FROM endpoints WHERE id = $1`

	var endpoint domain.Endpoint
	if err := r.db.GetContext(ctx, &endpoint, query, id); err != nil {
		return nil, err
	}
	return &endpoint, nil
}

func (r *EndpointRepository) List(ctx context.Context) ([]domain.Endpoint, error) {
	const query = `SELECT ` + endpointColumns + ` FROM endpoints ORDER BY name`

	endpoints := []domain.Endpoint{}
	if err := r.db.SelectContext(ctx, &endpoints, query); err != nil {
		return nil, err
	}
	return endpoints, nil
}
