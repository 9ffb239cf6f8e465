package scheduler

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"talentinsight/common/events"
	"talentinsight/common/telemetry"
	"talentinsight/services/ingestion/internal/api"
	"talentinsight/services/ingestion/internal/config"
	"talentinsight/services/ingestion/internal/feeder"
	"talentinsight/services/ingestion/internal/ingestor"
	"talentinsight/services/ingestion/internal/messaging"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

var tracer = telemetry.GetTracer("talentinsight/ingestion/scheduler")

// Feeder lands the files of the raw directory.
type Feeder interface {
	Feed(ctx context.Context) (feeder.Result, error)
}

type Stats struct {
	Cycles        int64
	FailedCycles  int64
	Stored        int64
	FailedSources int64
}

// JobScheduler runs an ingestion cycle on every tick: fetch every source,
// land the raw directory, then announce the batch.
type JobScheduler struct {
	fetchers  []api.Fetcher
	ingestor  *ingestor.Ingestor
	feeder    Feeder
	publisher messaging.Publisher
	logger    *zap.Logger
	config    *config.Config

	mutex    sync.Mutex
	isActive bool
	cycle    sync.Mutex

	workerManager   *workerManager
	sourceProcessor *sourceProcessor

	cycles        atomic.Int64
	failedCycles  atomic.Int64
	stored        atomic.Int64
	failedSources atomic.Int64

	now func() time.Time
}

// NewJobScheduler wires a scheduler. feeder may be nil when no raw directory
// is configured.
func NewJobScheduler(fetchers []api.Fetcher, ing *ingestor.Ingestor, fd Feeder, publisher messaging.Publisher, logger *zap.Logger, config *config.Config) *JobScheduler {
	scheduler := &JobScheduler{
		fetchers:  fetchers,
		ingestor:  ing,
		feeder:    fd,
		publisher: publisher,
		logger:    logger,
		config:    config,
		now:       time.Now,
	}
	scheduler.workerManager = newWorkerManager(scheduler, logger)
	scheduler.sourceProcessor = newSourceProcessor(scheduler, logger)
	return scheduler
}

func (s *JobScheduler) Start(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "JobScheduler.Start")
	defer span.End()

	s.mutex.Lock()
	if s.isActive {
		s.mutex.Unlock()
		return nil
	}
	s.isActive = true
	s.mutex.Unlock()

	ticker := time.NewTicker(s.config.PollingInterval)
	defer ticker.Stop()

	if _, err := s.RunCycle(ctx); err != nil {
		s.logger.Error("initial cycle failed", zap.Error(err))
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if !s.active() {
				return nil
			}
			if _, err := s.RunCycle(ctx); err != nil {
				s.logger.Error("periodic cycle failed", zap.Error(err))
			}
		}
	}
}

func (s *JobScheduler) Stop() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.isActive = false
}

func (s *JobScheduler) active() bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.isActive
}

func (s *JobScheduler) Stats() Stats {
	return Stats{
		Cycles:        s.cycles.Load(),
		FailedCycles:  s.failedCycles.Load(),
		Stored:        s.stored.Load(),
		FailedSources: s.failedSources.Load(),
	}
}

// cycleStats collects per-source outcomes from concurrent workers.
type cycleStats struct {
	mu      sync.Mutex
	sources map[string]events.SourceCounts
	failed  []string
}

func newCycleStats() *cycleStats {
	return &cycleStats{sources: make(map[string]events.SourceCounts)}
}

func (c *cycleStats) add(source string, r ingestor.BatchResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	prev := c.sources[source]
	prev.Stored += r.Stored
	prev.Duplicates += r.Duplicates
	prev.Rejected += r.Rejected
	c.sources[source] = prev
}

func (c *cycleStats) fail(source string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failed = append(c.failed, source)
}

// RunCycle fetches and lands every source once and publishes the resulting
// batch. A source whose fetch gives up is listed in Failed; the cycle only
// fails when the raw store or the publisher does.
func (s *JobScheduler) RunCycle(ctx context.Context) (events.RawBatchIngested, error) {
	s.cycle.Lock()
	defer s.cycle.Unlock()

	ctx, span := tracer.Start(ctx, "JobScheduler.RunCycle")
	defer span.End()

	cycleID := uuid.NewString()
	span.SetAttributes(telemetry.String("cycle.id", cycleID), telemetry.Int("fetchers", len(s.fetchers)))
	s.logger.Info("starting ingestion cycle", zap.String("cycle_id", cycleID), zap.Int("fetchers", len(s.fetchers)))
	s.cycles.Add(1)

	stats := newCycleStats()
	if err := s.workerManager.run(ctx, stats); err != nil {
		return s.failCycle(span, cycleID, err)
	}

	if s.feeder != nil {
		res, err := s.feeder.Feed(ctx)
		for source, r := range res.Sources {
			stats.add(source, r)
		}
		if err != nil {
			return s.failCycle(span, cycleID, err)
		}
		if res.Failed > 0 {
			s.logger.Warn("raw files skipped", zap.Int("count", res.Failed))
		}
	}

	sort.Strings(stats.failed)
	ev := events.RawBatchIngested{
		CycleID:    cycleID,
		FinishedAt: s.now().UTC(),
		Sources:    stats.sources,
		Failed:     stats.failed,
	}
	s.stored.Add(int64(ev.StoredTotal()))
	s.failedSources.Add(int64(len(ev.Failed)))

	if err := s.publisher.PublishBatchIngested(ctx, ev); err != nil {
		return s.failCycle(span, cycleID, err)
	}

	span.SetAttributes(
		telemetry.Int("documents.stored", ev.StoredTotal()),
		telemetry.Int("sources.failed", len(ev.Failed)),
	)
	s.logger.Info("completed ingestion cycle",
		zap.String("cycle_id", cycleID),
		zap.Int("stored", ev.StoredTotal()),
		zap.Strings("failed_sources", ev.Failed))
	return ev, nil
}

func (s *JobScheduler) failCycle(span trace.Span, cycleID string, err error) (events.RawBatchIngested, error) {
	s.failedCycles.Add(1)
	span.RecordError(err)
	s.logger.Error("ingestion cycle failed", zap.String("cycle_id", cycleID), zap.Error(err))
	return events.RawBatchIngested{}, err
}
