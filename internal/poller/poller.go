package poller

import (
	"context"
	"log"
	"time"

	"github.com/widegest/printflow/internal/domain"
	"github.com/widegest/printflow/internal/repository/ports"
)

// Importer runs the per-file import pipeline.
type Importer interface {
	ImportFile(ctx context.Context, filename string, data []byte) (*domain.Order, error)
}

// Scheduler arranges delayed automatic dispatches for freshly imported
// lines.
type Scheduler interface {
	Schedule(itemID int64, phase domain.Phase, delay time.Duration)
}

// Poller drains the ingestion feed on a fixed interval. The seen set lives
// only in this process: a file left behind by a failed triage move is
// reprocessed after a restart, and the (store, code) uniqueness constraint
// absorbs the re-import.
type Poller struct {
	feed      ports.Feed
	ingest    Importer
	scheduler Scheduler

	interval  time.Duration
	autoDelay time.Duration
	seen      map[string]struct{}
}

func New(feed ports.Feed, ingest Importer, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Poller{
		feed:     feed,
		ingest:   ingest,
		interval: interval,
		seen:     map[string]struct{}{},
	}
}

// EnableAutoDispatch makes the poller schedule a phase-1 send for every
// imported line after the given delay.
func (p *Poller) EnableAutoDispatch(s Scheduler, delay time.Duration) {
	p.scheduler = s
	p.autoDelay = delay
}

// Run blocks until ctx is cancelled. A failing cycle is logged and the loop
// keeps going; no single file or cycle can stop ingestion.
func (p *Poller) Run(ctx context.Context) {
	log.Printf("poller: starting, interval %s", p.interval)
	p.cycle(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Printf("poller: stopping")
			return
		case <-ticker.C:
			p.cycle(ctx)
		}
	}
}

func (p *Poller) cycle(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("poller: cycle panicked: %v", r)
		}
	}()

	objects, err := p.feed.List(ctx)
	if err != nil {
		log.Printf("poller: listing feed: %v", err)
		return
	}

	for _, obj := range objects {
		if ctx.Err() != nil {
			return
		}
		if _, handled := p.seen[obj.Key]; handled {
			continue
		}
		p.processFile(ctx, obj.Key)
	}
}

func (p *Poller) processFile(ctx context.Context, key string) {
	data, err := p.feed.Fetch(ctx, key)
	if err != nil {
		// Transient: leave the file unseen so the next cycle retries it.
		log.Printf("poller: fetching %s: %v", key, err)
		return
	}

	order, err := p.ingest.ImportFile(ctx, key, data)
	p.seen[key] = struct{}{}

	if err != nil {
		log.Printf("poller: importing %s: %v", key, err)
		if moveErr := p.feed.MoveToFailed(ctx, key); moveErr != nil {
			log.Printf("poller: triaging %s to failed: %v", key, moveErr)
		}
		return
	}

	log.Printf("poller: imported %s as order %s (%d lines)", key, order.Code, len(order.Items))
	if moveErr := p.feed.MoveToProcessed(ctx, key); moveErr != nil {
		log.Printf("poller: triaging %s to processed: %v", key, moveErr)
	}

	if p.scheduler != nil && p.autoDelay > 0 {
		for _, item := range order.Items {
			p.scheduler.Schedule(item.ID, domain.PhasePreprint, p.autoDelay)
		}
	}
}
