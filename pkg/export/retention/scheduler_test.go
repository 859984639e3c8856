package retention

import (
	"context"
	"testing"
	"time"

	"clearcourse-hq/exhibit/pkg/config"
	"clearcourse-hq/exhibit/pkg/export/storage"
)

func schedulerPruner(t *testing.T, schedule string) *Pruner {
	t.Helper()
	st := storage.NewMemoryStorage()
	t.Cleanup(func() { st.Close() })
	return NewPruner(st, config.RetentionConfig{
		Enabled:  true,
		Days:     90,
		Schedule: schedule,
	}, nil)
}

func TestScheduler_StartAndStop(t *testing.T) {
	p := schedulerPruner(t, "0 3 * * *")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := p.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !p.scheduler.IsRunning() {
		t.Error("scheduler not running after Start")
	}
	next := p.NextPruning()
	if next == nil {
		t.Fatal("NextPruning returned nil while running")
	}
	if !next.After(time.Now()) {
		t.Errorf("next run %v is in the past", next)
	}

	p.Stop()
	if p.scheduler.IsRunning() {
		t.Error("scheduler still running after Stop")
	}
}

func TestScheduler_InvalidSchedule(t *testing.T) {
	p := schedulerPruner(t, "not a cron expression")
	if err := p.Start(context.Background()); err == nil {
		p.Stop()
		t.Fatal("expected error for invalid schedule")
	}
}

func TestScheduler_EmptyScheduleStaysIdle(t *testing.T) {
	p := schedulerPruner(t, "")
	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if p.scheduler.IsRunning() {
		t.Error("scheduler running without a schedule")
	}
}

func TestScheduler_ContextCancellationStops(t *testing.T) {
	p := schedulerPruner(t, "0 3 * * *")
	ctx, cancel := context.WithCancel(context.Background())

	if err := p.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	cancel()

	deadline := time.Now().Add(2 * time.Second)
	for p.scheduler.IsRunning() {
		if time.Now().After(deadline) {
			t.Fatal("scheduler did not stop after context cancellation")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
