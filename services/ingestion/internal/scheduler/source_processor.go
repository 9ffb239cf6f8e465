package scheduler

import (
	"context"

	"talentinsight/common/telemetry"
	"talentinsight/services/ingestion/internal/api"

	"go.uber.org/zap"
)

type sourceProcessor struct {
	scheduler *JobScheduler
	logger    *zap.Logger
}

func newSourceProcessor(scheduler *JobScheduler, logger *zap.Logger) *sourceProcessor {
	return &sourceProcessor{
		scheduler: scheduler,
		logger:    logger,
	}
}

func (p *sourceProcessor) processSource(ctx context.Context, f api.Fetcher, stats *cycleStats) error {
	ctx, span := tracer.Start(ctx, "JobScheduler.processSource")
	defer span.End()
	span.SetAttributes(telemetry.String("source", f.Name()))

	docs, err := f.Fetch(ctx)
	if err != nil {
		span.RecordError(err)
		return err
	}
	p.logger.Info("fetched source",
		zap.String("source", f.Name()),
		zap.Int("documents", len(docs)))

	res, err := p.scheduler.ingestor.IngestDocuments(ctx, f.Name(), docs)
	stats.add(f.Name(), res)
	if err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

func (p *sourceProcessor) feedSources(ctx context.Context, fetcherChan chan<- api.Fetcher) {
	defer close(fetcherChan)
	for _, f := range p.scheduler.fetchers {
		select {
		case fetcherChan <- f:
		case <-ctx.Done():
			return
		}
	}
}
