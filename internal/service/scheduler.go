package service

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/widegest/printflow/internal/domain"
)

// DispatchScheduler runs delayed automatic sends. One pending send per item;
// scheduling again replaces the previous timer, and Cancel (called on reset)
// invalidates a pending send before it fires.
type DispatchScheduler struct {
	dispatcher *DispatchService
	timeout    time.Duration

	mu      sync.Mutex
	pending map[int64]*time.Timer
}

func NewDispatchScheduler(dispatcher *DispatchService, timeout time.Duration) *DispatchScheduler {
	if timeout <= 0 {
		timeout = time.Minute
	}
	return &DispatchScheduler{
		dispatcher: dispatcher,
		timeout:    timeout,
		pending:    map[int64]*time.Timer{},
	}
}

// Schedule arranges a dispatch of phase for the item after delay without
// blocking the caller.
func (s *DispatchScheduler) Schedule(itemID int64, phase domain.Phase, delay time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if timer, ok := s.pending[itemID]; ok {
		timer.Stop()
	}
	s.pending[itemID] = time.AfterFunc(delay, func() {
		s.mu.Lock()
		delete(s.pending, itemID)
		s.mu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		if _, err := s.dispatcher.Dispatch(ctx, itemID, phase); err != nil {
			log.Printf("scheduler: delayed dispatch of item %d phase %d: %v", itemID, phase, err)
		}
	})
}

// Cancel drops the pending delayed send for an item, if any.
func (s *DispatchScheduler) Cancel(itemID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if timer, ok := s.pending[itemID]; ok {
		timer.Stop()
		delete(s.pending, itemID)
	}
}
