package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"svend/internal/amqp"
	"svend/internal/core"
	"svend/internal/planner"
	"svend/internal/storage"
)

// PlanStorage is the slice of the repository the recommendation service
// works against.
type PlanStorage interface {
	CreateTransaction(ctx context.Context, t core.Transaction) error
	ListTransactions(ctx context.Context) ([]core.Transaction, error)
	DeleteTransaction(ctx context.Context, id string) error
	CreateGoal(ctx context.Context, goal core.Goal, schedule []core.MonthlyAllocation) error
	GetGoal(ctx context.Context, id string) (core.Goal, error)
	ListGoals(ctx context.Context) ([]core.Goal, error)
	DeleteGoal(ctx context.Context, id string) error
	GetGoalSchedule(ctx context.Context, goalID string) ([]core.MonthlyAllocation, error)
	Taxonomy(ctx context.Context) (core.Taxonomy, error)
	SavePlanSnapshot(ctx context.Context, bundle *core.Bundle) (int64, error)
	LatestPlanSnapshot(ctx context.Context) (*core.Bundle, error)
	Close() error
}

// RecomputePublisher queues recompute requests on the broker.
type RecomputePublisher interface {
	PublishRecompute(ctx context.Context, reason string) (string, error)
	Close() error
}

// RecommendationService orchestrates plan computation across storage,
// the planner and AMQP
type RecommendationService struct {
	storage    PlanStorage
	planner    *planner.Planner
	amqpClient RecomputePublisher
}

func NewRecommendationService(storage PlanStorage, pl *planner.Planner, amqpClient RecomputePublisher) *RecommendationService {
	if pl == nil {
		pl = planner.New(nil)
	}
	return &RecommendationService{
		storage:    storage,
		planner:    pl,
		amqpClient: amqpClient,
	}
}

// Recompute loads the full ledger, goals and taxonomy, runs the planner
// and persists the result as the newest snapshot. A snapshot write
// failure is logged, not returned: the computed plan is still good.
func (s *RecommendationService) Recompute(ctx context.Context) (*core.Bundle, error) {
	transactions, err := s.storage.ListTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}

	goals, err := s.storage.ListGoals(ctx)
	if err != nil {
		return nil, fmt.Errorf("load goals: %w", err)
	}

	taxonomy, err := s.storage.Taxonomy(ctx)
	if err != nil {
		return nil, fmt.Errorf("load taxonomy: %w", err)
	}

	bundle := s.planner.Compute(transactions, goals, taxonomy, time.Now())

	if _, err := s.storage.SavePlanSnapshot(ctx, bundle); err != nil {
		slog.ErrorContext(ctx, "Failed to persist plan snapshot", "error", err)
	}

	return bundle, nil
}

// LatestPlan returns the most recent persisted snapshot, computing a
// fresh one when nothing has been stored yet.
func (s *RecommendationService) LatestPlan(ctx context.Context) (*core.Bundle, error) {
	bundle, err := s.storage.LatestPlanSnapshot(ctx)
	if errors.Is(err, storage.ErrNotFound) {
		return s.Recompute(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("load latest plan: %w", err)
	}
	return bundle, nil
}

// RequestRecompute queues an asynchronous recompute and returns the
// request ID. Without an AMQP client the recompute runs inline and the
// ID is empty.
func (s *RecommendationService) RequestRecompute(ctx context.Context, reason string) (string, error) {
	if s.amqpClient == nil {
		slog.InfoContext(ctx, "AMQP client not available, recomputing inline", "reason", reason)
		if _, err := s.Recompute(ctx); err != nil {
			return "", fmt.Errorf("inline recompute: %w", err)
		}
		return "", nil
	}

	id, err := s.amqpClient.PublishRecompute(ctx, reason)
	if err != nil {
		return "", fmt.Errorf("publish recompute request: %w", err)
	}
	return id, nil
}

// CreateTransaction validates and saves a ledger entry, then nudges the
// worker so the plan catches up.
func (s *RecommendationService) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, fmt.Errorf("validate transaction: %w", err)
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}

	// Save to SQLite first (fast, reliable)
	if err := s.storage.CreateTransaction(ctx, t); err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}

	// Publish async recompute request (non-blocking)
	if err := s.publishRecompute(ctx, amqp.ReasonTransactionCreated); err != nil {
		slog.ErrorContext(ctx, "Failed to publish recompute request",
			"transaction_id", t.ID, "error", err)
		// Don't fail the request - the transaction is saved locally
	}

	return t, nil
}

// ListTransactions returns the stored ledger in date order.
func (s *RecommendationService) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	transactions, err := s.storage.ListTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return transactions, nil
}

// DeleteTransaction removes a ledger entry and queues a recompute.
func (s *RecommendationService) DeleteTransaction(ctx context.Context, id string) error {
	if err := s.storage.DeleteTransaction(ctx, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}

	if err := s.publishRecompute(ctx, amqp.ReasonTransactionDeleted); err != nil {
		slog.ErrorContext(ctx, "Failed to publish recompute request",
			"transaction_id", id, "error", err)
	}
	return nil
}

// CreateGoal validates a goal, generates its initial contribution
// schedule and persists both atomically. The first installment becomes
// the goal's fixed base monthly contribution.
func (s *RecommendationService) CreateGoal(ctx context.Context, goal core.Goal) (core.Goal, []core.MonthlyAllocation, error) {
	if err := goal.Validate(); err != nil {
		return core.Goal{}, nil, fmt.Errorf("validate goal: %w", err)
	}
	if goal.ID == "" {
		goal.ID = uuid.NewString()
	}

	schedule := s.planner.NewSchedule(goal, time.Now())
	if goal.MonthlyAmount.IsZero() && len(schedule) > 0 {
		goal.MonthlyAmount = schedule[0].Planned
	}

	if err := s.storage.CreateGoal(ctx, goal, schedule); err != nil {
		return core.Goal{}, nil, fmt.Errorf("save goal: %w", err)
	}

	if err := s.publishRecompute(ctx, amqp.ReasonGoalCreated); err != nil {
		slog.ErrorContext(ctx, "Failed to publish recompute request",
			"goal_id", goal.ID, "error", err)
	}

	return goal, schedule, nil
}

// ListGoals returns every stored goal.
func (s *RecommendationService) ListGoals(ctx context.Context) ([]core.Goal, error) {
	goals, err := s.storage.ListGoals(ctx)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	return goals, nil
}

// DeleteGoal removes a goal with its schedule and queues a recompute.
func (s *RecommendationService) DeleteGoal(ctx context.Context, id string) error {
	if err := s.storage.DeleteGoal(ctx, id); err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}

	if err := s.publishRecompute(ctx, amqp.ReasonGoalDeleted); err != nil {
		slog.ErrorContext(ctx, "Failed to publish recompute request",
			"goal_id", id, "error", err)
	}
	return nil
}

// GoalSchedule returns the stored allocation schedule of one goal.
func (s *RecommendationService) GoalSchedule(ctx context.Context, goalID string) ([]core.MonthlyAllocation, error) {
	if _, err := s.storage.GetGoal(ctx, goalID); err != nil {
		return nil, fmt.Errorf("load goal: %w", err)
	}

	schedule, err := s.storage.GetGoalSchedule(ctx, goalID)
	if err != nil {
		return nil, fmt.Errorf("load goal schedule: %w", err)
	}
	return schedule, nil
}

// Taxonomy returns the stored category grouping.
func (s *RecommendationService) Taxonomy(ctx context.Context) (core.Taxonomy, error) {
	taxonomy, err := s.storage.Taxonomy(ctx)
	if err != nil {
		return nil, fmt.Errorf("load taxonomy: %w", err)
	}
	return taxonomy, nil
}

func (s *RecommendationService) publishRecompute(ctx context.Context, reason string) error {
	if s.amqpClient == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping recompute request")
		return nil
	}

	_, err := s.amqpClient.PublishRecompute(ctx, reason)
	return err
}

// Close closes both storage and AMQP connections
func (s *RecommendationService) Close() error {
	var errs []error

	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if s.amqpClient != nil {
		if err := s.amqpClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close recommendation service: %v", errs)
	}

	return nil
}
