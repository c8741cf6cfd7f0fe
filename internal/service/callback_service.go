package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/widegest/printflow/internal/domain"
	"github.com/widegest/printflow/internal/repository/ports"
)

var ErrMalformedJobID = errors.New("malformed job_id")

// SwitchCallback is the identifier-addressed completion signal (endpoint A).
type SwitchCallback struct {
	JobID            string `json:"job_id"`
	Status           string `json:"status"`
	ResultPreviewURL string `json:"result_preview_url,omitempty"`
	JobOperationID   string `json:"job_operation_id,omitempty"`
	ErrorMessage     string `json:"error_message,omitempty"`
}

// WidegestCallback is the natural-key-addressed signal (endpoint B). It
// carries the order's external code and the line id, never a job reference.
type WidegestCallback struct {
	CodiceOrdine   string `json:"codice_ordine"`
	IDRiga         int64  `json:"id_riga"`
	JobOperationID string `json:"job_operation_id,omitempty"`
}

type CallbackResult struct {
	OrderID   int64  `json:"order_id"`
	ItemID    int64  `json:"item_id"`
	Phase     string `json:"phase"`
	NewStatus string `json:"new_status"`
}

// CallbackService resolves asynchronous completion signals back onto the
// line and phase that produced them. Both contracts are idempotent under
// re-delivery: re-applying a terminal status is a repeated no-op write.
type CallbackService struct {
	orders ports.OrderRepository
	jobs   ports.SwitchJobRepository
	lines  *LineService
}

func NewCallbackService(orders ports.OrderRepository, jobs ports.SwitchJobRepository, lines *LineService) *CallbackService {
	return &CallbackService{orders: orders, jobs: jobs, lines: lines}
}

// ApplySwitch handles endpoint A: decode the correlation identifier, map the
// reported status and apply it to the matching phase.
func (s *CallbackService) ApplySwitch(ctx context.Context, cb SwitchCallback) (*CallbackResult, error) {
	phase, orderID, itemID, ok := ParseJobRef(cb.JobID)
	if !ok {
		return nil, ErrMalformedJobID
	}

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	item, err := s.lines.Item(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.OrderID != order.ID {
		return nil, ErrItemNotFound
	}

	status := mapExternalStatus(cb.Status)
	if err := s.lines.ApplyPhaseStatus(ctx, item, phase, status); err != nil {
		return nil, err
	}

	logLine := fmt.Sprintf("callback %s reported %q -> %s", cb.JobID, cb.Status, status)
	if cb.ErrorMessage != "" {
		logLine += ": " + cb.ErrorMessage
	}
	if _, err := s.jobs.Upsert(ctx, ports.SwitchJobUpsert{
		OrderID: &order.ID,
		ItemID:  &item.ID,
		Phase:   phase,
		JobID:   cb.JobID,
		Status:  domain.SwitchJobStatus(status),
		LogLine: logLine + "\n",
	}); err != nil {
		return nil, err
	}

	return &CallbackResult{
		OrderID:   order.ID,
		ItemID:    item.ID,
		Phase:     phase.Name(),
		NewStatus: status,
	}, nil
}

// ApplyWidegest handles endpoint B: locate the line by the order's external
// code and the line id and mark the print phase completed. This contract has
// no failure branch and must stay that way.
func (s *CallbackService) ApplyWidegest(ctx context.Context, cb WidegestCallback) (*CallbackResult, error) {
	order, err := s.orders.FindByCode(ctx, cb.CodiceOrdine)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	item, err := s.lines.Item(ctx, cb.IDRiga)
	if err != nil {
		return nil, err
	}
	if item.OrderID != order.ID {
		return nil, ErrItemNotFound
	}

	if err := s.lines.ApplyPhaseStatus(ctx, item, domain.PhasePrint, string(domain.PrintStatusCompleted)); err != nil {
		return nil, err
	}

	logLine := fmt.Sprintf("widegest callback completed order %s item %d", order.Code, item.ID)
	if _, err := s.jobs.Upsert(ctx, ports.SwitchJobUpsert{
		OrderID: &order.ID,
		ItemID:  &item.ID,
		Phase:   domain.PhasePrint,
		JobID:   cb.JobOperationID,
		Status:  domain.SwitchJobStatusCompleted,
		LogLine: logLine + "\n",
	}); err != nil {
		return nil, err
	}

	return &CallbackResult{
		OrderID:   order.ID,
		ItemID:    item.ID,
		Phase:     domain.PhasePrint.Name(),
		NewStatus: string(domain.PrintStatusCompleted),
	}, nil
}

// mapExternalStatus folds the finishing system's vocabulary into the
// internal three-way status. Unknown values mean the job is still running.
func mapExternalStatus(external string) string {
	switch strings.ToLower(strings.TrimSpace(external)) {
	case "completed", "success":
		return "completed"
	case "failed", "error":
		return "failed"
	default:
		return "processing"
	}
}
