package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"svend/internal/amqp"
)

// stubRequester records recompute requests and signals each one on a
// channel so tests can wait without sleeping.
type stubRequester struct {
	mu       sync.Mutex
	reasons  []string
	requests chan string
}

var _ RecomputeRequester = (*stubRequester)(nil)

func newStubRequester() *stubRequester {
	return &stubRequester{requests: make(chan string, 16)}
}

func (r *stubRequester) RequestRecompute(_ context.Context, reason string) (string, error) {
	r.mu.Lock()
	r.reasons = append(r.reasons, reason)
	r.mu.Unlock()
	select {
	case r.requests <- reason:
	default:
	}
	return "req-stub", nil
}

func (r *stubRequester) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.reasons)
}

func TestNewRecomputeScheduler(t *testing.T) {
	scheduler := NewRecomputeScheduler(newStubRequester(), DefaultRecomputeSchedulerConfig())
	if scheduler == nil {
		t.Fatal("NewRecomputeScheduler returned nil")
	}
	if scheduler.IsRunning() {
		t.Error("a new scheduler should not be running")
	}
}

func TestDefaultRecomputeSchedulerConfig(t *testing.T) {
	config := DefaultRecomputeSchedulerConfig()

	if config.Interval != 6*time.Hour {
		t.Errorf("expected interval 6h, got %v", config.Interval)
	}
	if !config.RunOnStart {
		t.Error("expected RunOnStart to default to true")
	}
}

func TestRecomputeSchedulerConfig_CustomValues(t *testing.T) {
	config := RecomputeSchedulerConfig{
		Interval:   30 * time.Minute,
		RunOnStart: false,
	}
	scheduler := NewRecomputeScheduler(newStubRequester(), config)

	if scheduler.config.Interval != 30*time.Minute {
		t.Errorf("expected interval 30m, got %v", scheduler.config.Interval)
	}
	if scheduler.config.RunOnStart {
		t.Error("expected RunOnStart false")
	}
}

func TestRecomputeScheduler_StartTwice(t *testing.T) {
	scheduler := NewRecomputeScheduler(newStubRequester(), DefaultRecomputeSchedulerConfig())
	scheduler.running = true

	err := scheduler.Start(context.Background())
	if err == nil {
		t.Fatal("expected an error when starting twice")
	}
	if err.Error() != "recompute scheduler is already running" {
		t.Errorf("unexpected error message: %v", err)
	}
}

func TestRecomputeScheduler_StopNotRunning(t *testing.T) {
	scheduler := NewRecomputeScheduler(newStubRequester(), DefaultRecomputeSchedulerConfig())

	if err := scheduler.Stop(context.Background()); err != nil {
		t.Errorf("stopping a stopped scheduler should be a no-op, got %v", err)
	}
}

func TestRecomputeScheduler_RunOnStart(t *testing.T) {
	requester := newStubRequester()
	scheduler := NewRecomputeScheduler(requester, RecomputeSchedulerConfig{
		Interval:   time.Hour,
		RunOnStart: true,
	})

	if err := scheduler.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	select {
	case reason := <-requester.requests:
		if reason != amqp.ReasonScheduled {
			t.Errorf("expected reason %q, got %q", amqp.ReasonScheduled, reason)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("expected an immediate recompute request on start")
	}

	if !scheduler.IsRunning() {
		t.Error("scheduler should report running after Start")
	}

	if err := scheduler.Stop(context.Background()); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
}

func TestRecomputeScheduler_Ticks(t *testing.T) {
	requester := newStubRequester()
	scheduler := NewRecomputeScheduler(requester, RecomputeSchedulerConfig{
		Interval:   20 * time.Millisecond,
		RunOnStart: false,
	})

	if err := scheduler.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	for i := 0; i < 2; i++ {
		select {
		case <-requester.requests:
		case <-time.After(2 * time.Second):
			t.Fatal("expected periodic recompute requests")
		}
	}

	if err := scheduler.Stop(context.Background()); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if scheduler.IsRunning() {
		t.Error("scheduler should not report running after Stop")
	}
	if requester.count() < 2 {
		t.Errorf("expected at least 2 requests, got %d", requester.count())
	}
}

func TestRecomputeScheduler_Restart(t *testing.T) {
	requester := newStubRequester()
	scheduler := NewRecomputeScheduler(requester, RecomputeSchedulerConfig{
		Interval:   time.Hour,
		RunOnStart: true,
	})

	for i := 0; i < 2; i++ {
		if err := scheduler.Start(context.Background()); err != nil {
			t.Fatalf("Start %d failed: %v", i+1, err)
		}
		select {
		case <-requester.requests:
		case <-time.After(2 * time.Second):
			t.Fatalf("expected a recompute request after start %d", i+1)
		}
		if err := scheduler.Stop(context.Background()); err != nil {
			t.Fatalf("Stop %d failed: %v", i+1, err)
		}
	}

	if got := requester.count(); got != 2 {
		t.Errorf("expected 2 requests across restarts, got %d", got)
	}
}
