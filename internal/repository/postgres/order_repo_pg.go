package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/widegest/printflow/internal/domain"
)

type OrderRepository struct {
	db *sqlx.DB
}

func NewOrderRepo(db *sqlx.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

const orderColumns = `id, store_id, code, status, customer_name, customer_email, created_at, updated_at`

const itemColumns = `id, order_id, sku, product_name, quantity, position, raw,
	       preprint_status, print_status, flow_id, machine_id,
	       preprint_job_id, print_job_id, preprint_completed_at, print_completed_at,
	       custom_fields, webhook_fields, scale, created_at, updated_at`

func (r *OrderRepository) CreateWithItems(ctx context.Context, order *domain.Order) (_ *domain.Order, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const orderQuery = `
		INSERT INTO orders (store_id, code, status, customer_name, customer_email)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + orderColumns

	var inserted domain.Order
	if err = tx.GetContext(ctx, &inserted, orderQuery,
		order.StoreID, order.Code, order.Status, order.CustomerName, order.CustomerEmail,
	); err != nil {
		return nil, err
	}

	const itemQuery = `
		INSERT INTO order_items (
			order_id, sku, product_name, quantity, position, raw,
			preprint_status, print_status, flow_id, machine_id,
			custom_fields, webhook_fields, scale
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING ` + itemColumns

	const assetQuery = `
		INSERT INTO assets (id, item_id, role, source_url, object_key, size_bytes, position)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, item_id, role, source_url, object_key, size_bytes, position, created_at`

	for idx := range order.Items {
		item := &order.Items[idx]
		var insertedItem domain.OrderItem
		if err = tx.GetContext(ctx, &insertedItem, itemQuery,
			inserted.ID, item.SKU, item.ProductName, item.Quantity, item.Position, item.Raw,
			item.PreprintStatus, item.PrintStatus, item.FlowID, item.MachineID,
			item.CustomFields, item.WebhookFields, item.Scale,
		); err != nil {
			return nil, err
		}

		for aidx := range item.Assets {
			asset := &item.Assets[aidx]
			if asset.ID == uuid.Nil {
				asset.ID = uuid.New()
			}
			var insertedAsset domain.Asset
			if err = tx.GetContext(ctx, &insertedAsset, assetQuery,
				asset.ID, insertedItem.ID, asset.Role, asset.SourceURL,
				asset.ObjectKey, asset.SizeBytes, asset.Position,
			); err != nil {
				return nil, err
			}
			insertedItem.Assets = append(insertedItem.Assets, insertedAsset)
		}
		inserted.Items = append(inserted.Items, insertedItem)
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}
	return &inserted, nil
}

func (r *OrderRepository) FindByID(ctx context.Context, id int64) (*domain.Order, error) {
	const query = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	var order domain.Order
	if err := r.db.GetContext(ctx, &order, query, id); err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *OrderRepository) FindByCode(ctx context.Context, code string) (*domain.Order, error) {
	const query = `SELECT ` + orderColumns + ` FROM orders WHERE code = $1 ORDER BY created_at DESC LIMIT 1`

	var order domain.Order
	if err := r.db.GetContext(ctx, &order, query, code); err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *OrderRepository) List(ctx context.Context, limit, offset int) ([]domain.Order, error) {
	const query = `SELECT ` + orderColumns + ` FROM orders ORDER BY created_at DESC, id DESC LIMIT $1 OFFSET $2`

	orders := []domain.Order{}
	if err := r.db.SelectContext(ctx, &orders, query, limit, offset); err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *OrderRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM orders`); err != nil {
		return 0, err
	}
	return total, nil
}

func (r *OrderRepository) UpdateStatus(ctx context.Context, id int64, status domain.OrderStatus) error {
	const query = `UPDATE orders SET status = $2, updated_at = now() WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id, status)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *OrderRepository) FindItem(ctx context.Context, itemID int64) (*domain.OrderItem, error) {
	const query = `SELECT ` + itemColumns + ` FROM order_items WHERE id = $1`

	var item domain.OrderItem
	if err := r.db.GetContext(ctx, &item, query, itemID); err != nil {
		return nil, err
	}
	if err := r.attachAssets(ctx, []*domain.OrderItem{&item}); err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *OrderRepository) ItemsByOrder(ctx context.Context, orderID int64) ([]domain.OrderItem, error) {
	const query = `SELECT ` + itemColumns + ` FROM order_items WHERE order_id = $1 ORDER BY position, id`

	items := []domain.OrderItem{}
	if err := r.db.SelectContext(ctx, &items, query, orderID); err != nil {
		return nil, err
	}
	refs := make([]*domain.OrderItem, len(items))
	for i := range items {
		refs[i] = &items[i]
	}
	if err := r.attachAssets(ctx, refs); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *OrderRepository) attachAssets(ctx context.Context, items []*domain.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	ids := make([]int64, len(items))
	byID := make(map[int64]*domain.OrderItem, len(items))
	for i, item := range items {
		ids[i] = item.ID
		byID[item.ID] = item
	}

	const query = `
		SELECT id, item_id, role, source_url, object_key, size_bytes, position, created_at
		FROM assets
		WHERE item_id = ANY($1)
		ORDER BY position, created_at`

	assets := []domain.Asset{}
	if err := r.db.SelectContext(ctx, &assets, query, pq.Array(ids)); err != nil {
		return err
	}
	for _, asset := range assets {
		if item, ok := byID[asset.ItemID]; ok {
			item.Assets = append(item.Assets, asset)
		}
	}
	return nil
}

func (r *OrderRepository) SetPreprintStatus(ctx context.Context, itemID int64, status domain.PreprintStatus, completedAt *time.Time) error {
	const query = `
		UPDATE order_items
		SET preprint_status = $2,
		    preprint_completed_at = CASE
		        WHEN $2 = 'completed' THEN COALESCE(preprint_completed_at, $3)
		        ELSE preprint_completed_at
		    END,
		    updated_at = now()
		WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, itemID, status, completedAt)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *OrderRepository) SetPrintStatus(ctx context.Context, itemID int64, status domain.PrintStatus, completedAt *time.Time) error {
	const query = `
		UPDATE order_items
		SET print_status = $2,
		    print_completed_at = CASE
		        WHEN $2 = 'completed' THEN COALESCE(print_completed_at, $3)
		        ELSE print_completed_at
		    END,
		    updated_at = now()
		WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, itemID, status, completedAt)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *OrderRepository) SetItemJobRecord(ctx context.Context, itemID int64, phase domain.Phase, jobRecordID uuid.UUID) error {
	var column string
	switch phase {
	case domain.PhasePreprint:
		column = "preprint_job_id"
	case domain.PhasePrint:
		column = "print_job_id"
	default:
		// Label jobs live only in switch_jobs; the item carries no reference.
		return nil
	}

	query := `UPDATE order_items SET ` + column + ` = $2, updated_at = now() WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, itemID, jobRecordID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *OrderRepository) SetItemMachine(ctx context.Context, itemID int64, machineID *uuid.UUID) error {
	const query = `UPDATE order_items SET machine_id = $2, updated_at = now() WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, itemID, machineID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *OrderRepository) SetItemFlow(ctx context.Context, itemID int64, flowID *uuid.UUID) error {
	const query = `UPDATE order_items SET flow_id = $2, updated_at = now() WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, itemID, flowID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *OrderRepository) ResetItem(ctx context.Context, itemID int64) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const resetQuery = `
		UPDATE order_items
		SET preprint_status = 'pending',
		    print_status = 'pending',
		    preprint_job_id = NULL,
		    print_job_id = NULL,
		    preprint_completed_at = NULL,
		    print_completed_at = NULL,
		    updated_at = now()
		WHERE id = $1`

	res, err := tx.ExecContext(ctx, resetQuery, itemID)
	if err != nil {
		return err
	}
	if err = requireRow(res); err != nil {
		return err
	}

	const dropOutputs = `DELETE FROM assets WHERE item_id = $1 AND role IN ('output', 'label')`
	if _, err = tx.ExecContext(ctx, dropOutputs, itemID); err != nil {
		return err
	}

	return tx.Commit()
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
