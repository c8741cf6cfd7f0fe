package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/widegest/printflow/internal/domain"
)

type StoreRepository struct {
	db *sqlx.DB
}

func NewStoreRepo(db *sqlx.DB) *StoreRepository {
	return &StoreRepository{db: db}
}

const storeColumns = `id, code, name, active, widegest_base_url, created_at, updated_at`

func (r *StoreRepository) FindByCode(ctx context.Context, code string) (*domain.Store, error) {
	const query = `SELECT ` + storeColumns + ` FROM stores WHERE code = $1`

	var store domain.Store
	if err := r.db.GetContext(ctx, &store, query, code); err != nil {
		return nil, err
	}
	return &store, nil
}

func (r *StoreRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Store, error) {
	const query = `SELECT ` + storeColumns + ` FROM stores WHERE id = $1`

	var store domain.Store
	if err := r.db.GetContext(ctx, &store, query, id); err != nil {
		return nil, err
	}
	return &store, nil
}

func (r *StoreRepository) List(ctx context.Context) ([]domain.Store, error) {
	const query = `SELECT ` + storeColumns + ` FROM stores ORDER BY name`

	stores := []domain.Store{}
	if err := r.db.SelectContext(ctx, &stores, query); err != nil {
		return nil, err
	}
	return stores, nil
}

type ProductRepository struct {
	db *sqlx.DB
}

func NewProductRepo(db *sqlx.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

const productColumns = `id, sku, name, default_flow_id, material, print_options, created_at, updated_at`

func (r *ProductRepository) FindBySKU(ctx context.Context, sku string) (*domain.Product, error) {
	const query = `SELECT ` + productColumns + ` FROM products WHERE sku = $1`

	var product domain.Product
	if err := r.db.GetContext(ctx, &product, query, sku); err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *ProductRepository) List(ctx context.Context) ([]domain.Product, error) {
	const query = `SELECT ` + productColumns + ` FROM products ORDER BY sku`

	products := []domain.Product{}
	if err := r.db.SelectContext(ctx, &products, query); err != nil {
		return nil, err
	}
	return products, nil
}

type MachineRepository struct {
	db *sqlx.DB
}

func NewMachineRepo(db *sqlx.DB) *MachineRepository {
	return &MachineRepository{db: db}
}

func (r *MachineRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Machine, error) {
	const query = `SELECT id, name, created_at, updated_at FROM machines WHERE id = $1`

	var machine domain.Machine
	if err := r.db.GetContext(ctx, &machine, query, id); err != nil {
		return nil, err
	}
	return &machine, nil
}

func (r *MachineRepository) List(ctx context.Context) ([]domain.Machine, error) {
	const query = `SELECT id, name, created_at, updated_at FROM machines ORDER BY name`

	machines := []domain.Machine{}
	if err := r.db.SelectContext(ctx, &machines, query); err != nil {
		return nil, err
	}
	return machines, nil
}
