package service

import (
	"context"
	"errors"
	"time"

	"github.com/widegest/printflow/internal/domain"
	"github.com/widegest/printflow/internal/repository/ports"
)

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrItemNotFound      = errors.New("order item not found")
	ErrAssetsNotReady    = errors.New("print files not retrieved yet")
	ErrNoFlow            = errors.New("no processing flow selected")
	ErrNoEndpoint        = errors.New("flow has no endpoint for this phase")
	ErrNoMachine         = errors.New("no machine selected")
	ErrPreprintNotDone   = errors.New("preprint phase not completed")
	ErrInvalidTransition = errors.New("status transition not allowed")
)

// DelayCanceller invalidates a pending delayed dispatch for an item.
type DelayCanceller interface {
	Cancel(itemID int64)
}

// LineService owns the per-line two-phase state machine: transition guards,
// manual confirmations, resets and the order-status rollup.
type LineService struct {
	orders    ports.OrderRepository
	flows     ports.FlowRepository
	endpoints ports.EndpointRepository
	delays    DelayCanceller
	now       func() time.Time
}

func NewLineService(orders ports.OrderRepository, flows ports.FlowRepository, endpoints ports.EndpointRepository) *LineService {
	return &LineService{
		orders:    orders,
		flows:     flows,
		endpoints: endpoints,
		now:       time.Now,
	}
}

// SetDelayCanceller wires the delayed-dispatch scheduler so a reset can
// invalidate a pending automatic send.
func (s *LineService) SetDelayCanceller(c DelayCanceller) {
	s.delays = c
}

func (s *LineService) Item(ctx context.Context, itemID int64) (*domain.OrderItem, error) {
	item, err := s.orders.FindItem(ctx, itemID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrItemNotFound
		}
		return nil, err
	}
	return item, nil
}

// ResolveEndpoint returns the finishing endpoint configured for the item's
// flow and the given phase.
func (s *LineService) ResolveEndpoint(ctx context.Context, item *domain.OrderItem, phase domain.Phase) (*domain.Endpoint, error) {
	if item.FlowID == nil {
		return nil, ErrNoFlow
	}
	flow, err := s.flows.FindByID(ctx, *item.FlowID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrNoFlow
		}
		return nil, err
	}
	endpointID := flow.EndpointID(phase)
	if endpointID == nil {
		return nil, ErrNoEndpoint
	}
	endpoint, err := s.endpoints.FindByID(ctx, *endpointID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrNoEndpoint
		}
		return nil, err
	}
	return endpoint, nil
}

// CheckDispatchable enforces the precondition gates for sending a phase.
// Preprint needs its print files locally retrieved (or none at all); print
// additionally needs a completed preprint phase and a selected machine.
func (s *LineService) CheckDispatchable(ctx context.Context, item *domain.OrderItem, phase domain.Phase) error {
	switch phase {
	case domain.PhasePreprint:
		if item.PreprintStatus != domain.PreprintStatusPending && item.PreprintStatus != domain.PreprintStatusFailed {
			return ErrInvalidTransition
		}
		prints := item.PrintAssets()
		if len(prints) > 0 {
			retrieved := false
			for _, a := range prints {
				if a.Retrieved() {
					retrieved = true
					break
				}
			}
			if !retrieved {
				return ErrAssetsNotReady
			}
		}
	case domain.PhasePrint:
		if item.PreprintStatus != domain.PreprintStatusCompleted {
			return ErrPreprintNotDone
		}
		if item.PrintStatus != domain.PrintStatusPending && item.PrintStatus != domain.PrintStatusFailed {
			return ErrInvalidTransition
		}
		if item.MachineID == nil {
			return ErrNoMachine
		}
	case domain.PhaseLabel:
		// Labels have no tracked status; the endpoint check below is the
		// only gate.
	default:
		return ErrInvalidTransition
	}

	if _, err := s.ResolveEndpoint(ctx, item, phase); err != nil {
		return err
	}
	return nil
}

// ApplyPhaseStatus writes a phase status reported by a callback or dispatch
// outcome. Re-applying the status an item already holds is a harmless
// repeated write, which keeps callback re-delivery safe.
func (s *LineService) ApplyPhaseStatus(ctx context.Context, item *domain.OrderItem, phase domain.Phase, status string) error {
	now := s.now()
	var err error
	switch phase {
	case domain.PhasePreprint:
		err = s.orders.SetPreprintStatus(ctx, item.ID, domain.PreprintStatus(status), &now)
	case domain.PhasePrint:
		err = s.orders.SetPrintStatus(ctx, item.ID, domain.PrintStatus(status), &now)
	case domain.PhaseLabel:
		// Labels carry no tracked status; the switch-job record is the
		// only bookkeeping for phase 3.
		return nil
	default:
		return ErrInvalidTransition
	}
	if err != nil {
		if isNotFound(err) {
			return ErrItemNotFound
		}
		return err
	}
	return s.RecomputeOrderStatus(ctx, item.OrderID)
}

// ConfirmPreprint is the manual operator confirmation for phase 1. Only
// valid while the phase is in flight.
func (s *LineService) ConfirmPreprint(ctx context.Context, itemID int64) error {
	item, err := s.Item(ctx, itemID)
	if err != nil {
		return err
	}
	if item.PreprintStatus != domain.PreprintStatusProcessing {
		return ErrInvalidTransition
	}
	return s.ApplyPhaseStatus(ctx, item, domain.PhasePreprint, string(domain.PreprintStatusCompleted))
}

// ConfirmPrint accepts processing or ripped: the finishing system reports
// the intermediate ripped state out-of-band of the callback protocol.
func (s *LineService) ConfirmPrint(ctx context.Context, itemID int64) error {
	item, err := s.Item(ctx, itemID)
	if err != nil {
		return err
	}
	if item.PrintStatus != domain.PrintStatusProcessing && item.PrintStatus != domain.PrintStatusRipped {
		return ErrInvalidTransition
	}
	return s.ApplyPhaseStatus(ctx, item, domain.PhasePrint, string(domain.PrintStatusCompleted))
}

// Reset returns both phases to pending, clears correlation bookkeeping,
// drops generated output assets and cancels any pending delayed dispatch.
// Available from any state; it cannot recall an already-sent job.
func (s *LineService) Reset(ctx context.Context, itemID int64) error {
	item, err := s.Item(ctx, itemID)
	if err != nil {
		return err
	}
	if err := s.orders.ResetItem(ctx, itemID); err != nil {
		if isNotFound(err) {
			return ErrItemNotFound
		}
		return err
	}
	if s.delays != nil {
		s.delays.Cancel(itemID)
	}
	return s.RecomputeOrderStatus(ctx, item.OrderID)
}

// RecomputeOrderStatus rolls the item phase statuses up into the order
// lifecycle status.
func (s *LineService) RecomputeOrderStatus(ctx context.Context, orderID int64) error {
	items, err := s.orders.ItemsByOrder(ctx, orderID)
	if err != nil {
		return err
	}

	status := domain.OrderStatusNew
	if len(items) > 0 {
		allDone := true
		anyFailed := false
		anyActive := false
		for _, item := range items {
			if item.PrintStatus != domain.PrintStatusCompleted {
				allDone = false
			}
			if item.PreprintStatus == domain.PreprintStatusFailed || item.PrintStatus == domain.PrintStatusFailed {
				anyFailed = true
			}
			if item.Stage() != domain.StageNuovo {
				anyActive = true
			}
		}
		switch {
		case anyFailed:
			status = domain.OrderStatusError
		case allDone:
			status = domain.OrderStatusDone
		case anyActive:
			status = domain.OrderStatusProcessing
		}
	}

	if err := s.orders.UpdateStatus(ctx, orderID, status); err != nil {
		if isNotFound(err) {
			return ErrOrderNotFound
		}
		return err
	}
	return nil
}
