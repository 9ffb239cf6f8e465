package events

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"talentinsight/common/events"
	"talentinsight/services/processing/internal/pipeline"

	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Runner interface {
	Run(ctx context.Context) (*pipeline.Report, error)
}

// Handler triggers a pipeline run whenever the ingestion service reports a
// finished cycle. Cycles that stored nothing new are acknowledged and
// skipped.
type Handler struct {
	logger  *zap.Logger
	nc      *nats.Conn
	tracer  trace.Tracer
	runner  Runner
	timeout time.Duration
	sub     *nats.Subscription

	runs    atomic.Int64
	skipped atomic.Int64
}

func NewHandler(logger *zap.Logger, nc *nats.Conn, tracer trace.Tracer, runner Runner, timeout time.Duration) *Handler {
	return &Handler{
		logger:  logger,
		nc:      nc,
		tracer:  tracer,
		runner:  runner,
		timeout: timeout,
	}
}

func (h *Handler) RegisterSubscriptions(lc fx.Lifecycle) error {
	sub, err := h.nc.QueueSubscribe(events.RawBatchIngestedSubject, events.ProcessingQueueGroup, h.handleBatchIngested)
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", events.RawBatchIngestedSubject, err)
	}

	h.sub = sub
	h.logger.Info("Registered NATS subscriptions", zap.String("subject", events.RawBatchIngestedSubject))

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return h.sub.Unsubscribe()
		},
	})

	return nil
}

func (h *Handler) handleBatchIngested(msg *nats.Msg) {
	ctx, span := h.tracer.Start(context.Background(), "handleBatchIngested")
	defer span.End()

	var event events.RawBatchIngested
	if err := event.UnmarshalBinary(msg.Data); err != nil {
		h.logger.Error("Failed to decode ingestion event",
			zap.Error(err),
			zap.String("subject", msg.Subject),
		)
		return
	}

	if event.StoredTotal() == 0 {
		h.skipped.Add(1)
		h.logger.Info("Ingestion cycle stored no new documents, skipping run",
			zap.String("cycle_id", event.CycleID),
			zap.Strings("failed_sources", event.Failed),
		)
		return
	}

	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	h.runs.Add(1)
	report, err := h.runner.Run(ctx)
	if err != nil {
		h.logger.Error("Pipeline run failed",
			zap.Error(err),
			zap.String("cycle_id", event.CycleID),
		)
		return
	}

	h.logger.Info("Pipeline run triggered by ingestion cycle",
		zap.String("cycle_id", event.CycleID),
		zap.String("run_id", report.RunID),
		zap.Int("stored", event.StoredTotal()),
	)
}

// Stats returns how many events started a run and how many were skipped.
func (h *Handler) Stats() (runs, skipped int64) {
	return h.runs.Load(), h.skipped.Load()
}
