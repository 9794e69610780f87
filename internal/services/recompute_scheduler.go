package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"svend/internal/amqp"
)

// RecomputeSchedulerConfig holds configuration for the scheduler
type RecomputeSchedulerConfig struct {
	// Interval is how often to request a recompute (default: 6h)
	Interval time.Duration

	// RunOnStart requests a recompute immediately when the scheduler
	// starts, so a freshly booted instance serves a current plan
	RunOnStart bool
}

// DefaultRecomputeSchedulerConfig returns sensible defaults
func DefaultRecomputeSchedulerConfig() RecomputeSchedulerConfig {
	return RecomputeSchedulerConfig{
		Interval:   6 * time.Hour,
		RunOnStart: true,
	}
}

// RecomputeRequester queues or runs a plan recompute.
type RecomputeRequester interface {
	RequestRecompute(ctx context.Context, reason string) (string, error)
}

// RecomputeScheduler periodically queues recompute requests so the plan
// tracks the calendar even when nobody is writing: goal schedules start
// from the current month and drift as months pass.
type RecomputeScheduler struct {
	service RecomputeRequester
	config  RecomputeSchedulerConfig

	// Lifecycle management
	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewRecomputeScheduler creates a new scheduler
func NewRecomputeScheduler(service RecomputeRequester, config RecomputeSchedulerConfig) *RecomputeScheduler {
	return &RecomputeScheduler{
		service: service,
		config:  config,
	}
}

// Start begins the scheduling loop. Returns an error if already running.
func (s *RecomputeScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("recompute scheduler is already running")
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	s.mu.Unlock()

	go s.runLoop(ctx)

	slog.InfoContext(ctx, "Recompute scheduler started",
		"interval", s.config.Interval,
		"run_on_start", s.config.RunOnStart)

	return nil
}

// Stop gracefully stops the scheduler and waits for completion.
func (s *RecomputeScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	// Signal stop
	close(s.stopCh)

	// Wait for completion or context cancellation
	select {
	case <-s.doneCh:
		slog.InfoContext(ctx, "Recompute scheduler stopped gracefully")
	case <-ctx.Done():
		slog.WarnContext(ctx, "Recompute scheduler stop timed out")
		return ctx.Err()
	}

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()

	return nil
}

// IsRunning returns whether the scheduler is currently running
func (s *RecomputeScheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// runLoop is the main scheduling loop
func (s *RecomputeScheduler) runLoop(ctx context.Context) {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	if s.config.RunOnStart {
		s.requestRecompute(ctx)
	}

	for {
		select {
		case <-s.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.requestRecompute(ctx)
		}
	}
}

func (s *RecomputeScheduler) requestRecompute(ctx context.Context) {
	id, err := s.service.RequestRecompute(ctx, amqp.ReasonScheduled)
	if err != nil {
		slog.ErrorContext(ctx, "Scheduled recompute request failed", "error", err)
		return
	}

	slog.InfoContext(ctx, "Scheduled recompute requested", "request_id", id)
}
