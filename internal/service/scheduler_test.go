package service

import (
	"context"
	"testing"
	"time"

	"github.com/widegest/printflow/internal/domain"
)

func waitForStatus(t *testing.T, f *dispatchFixture, want domain.PreprintStatus) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if f.reload(t).PreprintStatus == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for preprint status %s, still %s", want, f.reload(t).PreprintStatus)
}

func TestSchedulerFiresDelayedDispatch(t *testing.T) {
	f := newDispatchFixture(t, nil)
	svc := f.service(DispatchConfig{Simulate: true})
	scheduler := NewDispatchScheduler(svc, time.Second)

	scheduler.Schedule(f.item.ID, domain.PhasePreprint, 20*time.Millisecond)
	waitForStatus(t, f, domain.PreprintStatusProcessing)

	if _, err := f.jobs.FindByItemAndPhase(context.Background(), f.item.ID, domain.PhasePreprint); err != nil {
		t.Fatalf("delayed dispatch left no job record: %v", err)
	}
}

func TestSchedulerCancelPreventsDispatch(t *testing.T) {
	f := newDispatchFixture(t, nil)
	svc := f.service(DispatchConfig{Simulate: true})
	scheduler := NewDispatchScheduler(svc, time.Second)

	scheduler.Schedule(f.item.ID, domain.PhasePreprint, 50*time.Millisecond)
	scheduler.Cancel(f.item.ID)

	time.Sleep(150 * time.Millisecond)
	if got := f.reload(t).PreprintStatus; got != domain.PreprintStatusPending {
		t.Fatalf("cancelled dispatch still fired: %s", got)
	}
	if len(f.jobs.jobs) != 0 {
		t.Fatal("cancelled dispatch left a job record")
	}
}

func TestSchedulerReplacesPendingTimer(t *testing.T) {
	f := newDispatchFixture(t, nil)
	svc := f.service(DispatchConfig{Simulate: true})
	scheduler := NewDispatchScheduler(svc, time.Second)

	// Re-scheduling supersedes the first timer; only one send happens.
	scheduler.Schedule(f.item.ID, domain.PhasePreprint, 30*time.Millisecond)
	scheduler.Schedule(f.item.ID, domain.PhasePreprint, 60*time.Millisecond)
	waitForStatus(t, f, domain.PreprintStatusProcessing)

	time.Sleep(100 * time.Millisecond)
	if len(f.jobs.jobs) != 1 {
		t.Fatalf("expected a single job record, got %d", len(f.jobs.jobs))
	}
	if got := f.jobs.jobs[0]; got.Status != domain.SwitchJobStatusSent {
		t.Fatalf("unexpected job status: %s", got.Status)
	}
}
