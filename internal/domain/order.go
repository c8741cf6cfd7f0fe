package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx/types"
)

// Order is one imported print order. (store_id, code) is unique: re-importing
// the same feed file after a restart aborts on the constraint instead of
// duplicating the order.
type Order struct {
	ID            int64       `db:"id" json:"id"`
	StoreID       uuid.UUID   `db:"store_id" json:"store_id"`
	Code          string      `db:"code" json:"code"`
	Status        OrderStatus `db:"status" json:"status"`
	CustomerName  *string     `db:"customer_name" json:"customer_name,omitempty"`
	CustomerEmail *string     `db:"customer_email" json:"customer_email,omitempty"`
	CreatedAt     time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time   `db:"updated_at" json:"updated_at"`

	Items []OrderItem `db:"-" json:"items,omitempty"`
}

// OrderItem is one SKU/quantity line within an Order and the unit of phase
// tracking. Position is the stable 1-based line number used in external
// filenames; the database id is never exposed in filenames.
type OrderItem struct {
	ID          int64          `db:"id" json:"id"`
	OrderID     int64          `db:"order_id" json:"order_id"`
	SKU         string         `db:"sku" json:"sku"`
	ProductName string         `db:"product_name" json:"product_name"`
	Quantity    int            `db:"quantity" json:"quantity"`
	Position    int            `db:"position" json:"position"`
	Raw         types.JSONText `db:"raw" json:"raw,omitempty"`

	PreprintStatus PreprintStatus `db:"preprint_status" json:"preprint_status"`
	PrintStatus    PrintStatus    `db:"print_status" json:"print_status"`

	FlowID    *uuid.UUID `db:"flow_id" json:"flow_id,omitempty"`
	MachineID *uuid.UUID `db:"machine_id" json:"machine_id,omitempty"`

	PreprintJobID *uuid.UUID `db:"preprint_job_id" json:"preprint_job_id,omitempty"`
	PrintJobID    *uuid.UUID `db:"print_job_id" json:"print_job_id,omitempty"`

	PreprintCompletedAt *time.Time `db:"preprint_completed_at" json:"preprint_completed_at,omitempty"`
	PrintCompletedAt    *time.Time `db:"print_completed_at" json:"print_completed_at,omitempty"`

	CustomFields  JSONMap  `db:"custom_fields" json:"custom_fields,omitempty"`
	WebhookFields JSONMap  `db:"webhook_fields" json:"webhook_fields,omitempty"`
	Scale         *float64 `db:"scale" json:"scale,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`

	Assets []Asset `db:"-" json:"assets,omitempty"`
}

// Stage derives the workflow stage for this item.
func (i OrderItem) Stage() WorkflowStage {
	return Stage(i.PreprintStatus, i.PrintStatus)
}

// PrintAssets returns the item's print-role assets in position order,
// assuming Assets is already position-sorted by the repository.
func (i OrderItem) PrintAssets() []Asset {
	out := make([]Asset, 0, 2)
	for _, a := range i.Assets {
		if a.Role == AssetRolePrint {
			out = append(out, a)
		}
	}
	return out
}

// PhaseStatus reports the item's status for a phase as a plain string. The
// label phase has no tracked status of its own and reports the print status.
func (i OrderItem) PhaseStatus(phase Phase) string {
	if phase == PhasePreprint {
		return string(i.PreprintStatus)
	}
	return string(i.PrintStatus)
}
