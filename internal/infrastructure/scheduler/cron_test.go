package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestIntervalSchedulerRunsImmediatelyAndOnTicks(t *testing.T) {
	t.Parallel()

	var runs atomic.Int32
	s := NewIntervalScheduler(10*time.Millisecond, nil)
	if err := s.Start(context.Background(), func(time.Time) { runs.Add(1) }); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	if err := s.Start(context.Background(), func(time.Time) { runs.Add(100) }); err != nil {
		t.Fatalf("second Start returned error: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for runs.Load() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("Stop returned error: %v", err)
	}
	got := runs.Load()
	if got < 3 || got >= 100 {
		t.Fatalf("unexpected run count %d", got)
	}

	time.Sleep(30 * time.Millisecond)
	if runs.Load() != got {
		t.Fatal("job ran after Stop")
	}
	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("second Stop returned error: %v", err)
	}
}

func TestIntervalSchedulerDefaults(t *testing.T) {
	t.Parallel()

	if s := NewIntervalScheduler(0, nil); s.interval != defaultInterval {
		t.Fatalf("expected default interval, got %s", s.interval)
	}
}

func TestIntervalSchedulerReportsTriggerInLocation(t *testing.T) {
	t.Parallel()

	loc := time.FixedZone("UTC+3", 3*60*60)
	got := make(chan *time.Location, 1)
	s := NewIntervalScheduler(time.Hour, loc)
	if err := s.Start(context.Background(), func(at time.Time) {
		select {
		case got <- at.Location():
		default:
		}
	}); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	defer s.Stop(context.Background())

	select {
	case l := <-got:
		if l != loc {
			t.Fatalf("trigger location = %v, want %v", l, loc)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("job did not run")
	}
}
