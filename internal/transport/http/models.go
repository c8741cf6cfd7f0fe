package http

import (
	"github.com/widegest/printflow/internal/domain"
)

type orderView struct {
	domain.Order
	Items []itemView `json:"items"`
}

type itemView struct {
	domain.OrderItem
	Stage domain.WorkflowStage `json:"stage"`
}

// buildOrder attaches the derived workflow stage to every item. The stage is
// recomputed on every read and never persisted.
func buildOrder(order *domain.Order) orderView {
	view := orderView{Order: *order, Items: make([]itemView, 0, len(order.Items))}
	for _, item := range order.Items {
		view.Items = append(view.Items, itemView{OrderItem: item, Stage: item.Stage()})
	}
	view.Order.Items = nil
	return view
}
