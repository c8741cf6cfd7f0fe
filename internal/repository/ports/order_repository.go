package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/widegest/printflow/internal/domain"
)

type OrderRepository interface {
	// CreateWithItems persists the order, its items and their assets in one
	// transaction. Items and assets are taken from order.Items.
	CreateWithItems(ctx context.Context, order *domain.Order) (*domain.Order, error)
	FindByID(ctx context.Context, id int64) (*domain.Order, error)
	FindByCode(ctx context.Context, code string) (*domain.Order, error)
	List(ctx context.Context, limit, offset int) ([]domain.Order, error)
	Count(ctx context.Context) (int64, error)
	UpdateStatus(ctx context.Context, id int64, status domain.OrderStatus) error

	FindItem(ctx context.Context, itemID int64) (*domain.OrderItem, error)
	ItemsByOrder(ctx context.Context, orderID int64) ([]domain.OrderItem, error)
	SetPreprintStatus(ctx context.Context, itemID int64, status domain.PreprintStatus, completedAt *time.Time) error
	SetPrintStatus(ctx context.Context, itemID int64, status domain.PrintStatus, completedAt *time.Time) error
	SetItemJobRecord(ctx context.Context, itemID int64, phase domain.Phase, jobRecordID uuid.UUID) error
	SetItemMachine(ctx context.Context, itemID int64, machineID *uuid.UUID) error
	SetItemFlow(ctx context.Context, itemID int64, flowID *uuid.UUID) error

	// ResetItem returns both phase statuses to pending, clears job record
	// references and completion timestamps, and deletes generated output
	// assets, all in one transaction.
	ResetItem(ctx context.Context, itemID int64) error
}
