package worker

import (
	"context"
	"fmt"
	"log/slog"

	"svend/internal/amqp"
	"svend/internal/core"
	"svend/internal/sheets"
)

// PlanComputer rebuilds the full recommendation bundle from storage.
type PlanComputer interface {
	Recompute(ctx context.Context) (*core.Bundle, error)
}

// RecomputeWorker consumes recompute requests, rebuilds the plan and
// pushes the result to the configured export surface.
type RecomputeWorker struct {
	service  PlanComputer
	exporter sheets.PlanExporter
}

func NewRecomputeWorker(service PlanComputer, exporter sheets.PlanExporter) *RecomputeWorker {
	return &RecomputeWorker{
		service:  service,
		exporter: exporter,
	}
}

// HandleRecomputeMessage processes a single recompute request from AMQP
func (w *RecomputeWorker) HandleRecomputeMessage(ctx context.Context, msg *amqp.RecommendationRecomputeMessage) error {
	slog.InfoContext(ctx, "Processing recompute request",
		"request_id", msg.RequestID,
		"reason", msg.Reason)

	bundle, err := w.service.Recompute(ctx)
	if err != nil {
		return fmt.Errorf("recompute plan: %w", err)
	}

	w.exportPlan(ctx, msg.RequestID, bundle)
	return nil
}

// StartupRecompute rebuilds the plan once at worker startup. This is
// useful to recover from missed AMQP messages or worker downtime.
func (w *RecomputeWorker) StartupRecompute(ctx context.Context) error {
	slog.InfoContext(ctx, "Running startup recompute")

	bundle, err := w.service.Recompute(ctx)
	if err != nil {
		return fmt.Errorf("startup recompute: %w", err)
	}

	w.exportPlan(ctx, "startup", bundle)
	return nil
}

// exportPlan pushes the bundle to the export surface. Export failures
// are logged, never returned: the snapshot is already persisted and a
// requeue would recompute for nothing.
func (w *RecomputeWorker) exportPlan(ctx context.Context, requestID string, bundle *core.Bundle) {
	if w.exporter == nil {
		return
	}

	if err := w.exporter.Export(ctx, bundle); err != nil {
		slog.ErrorContext(ctx, "Failed to export plan",
			"request_id", requestID,
			"error", err)
		return
	}

	slog.InfoContext(ctx, "Plan exported",
		"request_id", requestID,
		"survival_mode", bundle.SurvivalMode)
}
