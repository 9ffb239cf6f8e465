// Package pipeline runs the clean and load phases over the raw store.
package pipeline

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"talentinsight/common/rawstore"
	"talentinsight/common/telemetry"
	"talentinsight/services/processing/internal/cleaner"
	"talentinsight/services/processing/internal/models"
	"talentinsight/services/processing/internal/warehouse"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var tracer = telemetry.GetTracer("talentinsight/processing/pipeline")

type Options struct {
	// Concurrency bounds the number of sources cleaned at once.
	Concurrency int
}

// Pipeline reads every raw source, cleans them concurrently and loads the
// merged result. Loading starts only after every source has been cleaned.
type Pipeline struct {
	store   rawstore.Store
	cleaner *cleaner.Cleaner
	loader  *warehouse.Loader
	logger  *zap.Logger
	opts    Options

	// one run at a time: the warehouse has a single writer
	mu  sync.Mutex
	now func() time.Time
}

func New(store rawstore.Store, c *cleaner.Cleaner, loader *warehouse.Loader, opts Options, logger *zap.Logger) *Pipeline {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	return &Pipeline{
		store:   store,
		cleaner: c,
		loader:  loader,
		logger:  logger,
		opts:    opts,
		now:     time.Now,
	}
}

// Run executes one full pipeline run. The returned report is non-nil even
// when err is set.
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	ctx, span := tracer.Start(ctx, "Pipeline.Run")
	defer span.End()

	report := &Report{
		RunID:     uuid.NewString(),
		StartedAt: p.now().UTC(),
		Status:    warehouse.RunRunning,
		Sources:   make(map[string]models.SourceStats),
	}
	span.SetAttributes(telemetry.String("run.id", report.RunID))
	logger := p.logger.With(zap.String("run_id", report.RunID))
	logger.Info("pipeline run started")

	if err := p.loader.StartRun(ctx, report.RunID, report.StartedAt); err != nil {
		return p.finish(ctx, report, err, false)
	}

	cur, err := p.clean(ctx, report, logger)
	if err != nil {
		return p.finish(ctx, report, err, true)
	}

	res, err := p.loader.Load(ctx, cur)
	if err != nil {
		return p.finish(ctx, report, err, true)
	}

	for _, b := range cur.Batches {
		stats := report.Sources[b.RawSource]
		load := res.Sources[b.RawSource]
		stats.Loaded = load.Loaded
		stats.Sentinel = load.Sentinel
		report.Sources[b.RawSource] = stats
	}
	report.Rows = res.Rows
	report.Misses = make(map[string]int, len(res.Misses))
	for dim, n := range res.Misses {
		report.Misses[string(dim)] = n
	}

	return p.finish(ctx, report, nil, true)
}

// clean reads and cleans every known raw source. Sources are processed in
// name order so the curated batches, and therefore fact ids, are stable.
func (p *Pipeline) clean(ctx context.Context, report *Report, logger *zap.Logger) (*models.Curated, error) {
	counts, err := p.store.Counts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list raw sources: %w", err)
	}

	var sources []string
	for name := range counts {
		if _, ok := cleaner.SourceName(name); !ok {
			report.Skipped = append(report.Skipped, name)
			logger.Warn("no cleaning routine for raw source, skipping", zap.String("source", name))
			continue
		}
		sources = append(sources, name)
	}
	sort.Strings(sources)
	sort.Strings(report.Skipped)

	batches := make([]models.Batch, len(sources))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Concurrency)

	for i, name := range sources {
		i, name := i, name
		g.Go(func() error {
			b, err := p.cleanSource(gctx, name, logger)
			if err != nil {
				return err
			}
			batches[i] = b
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	cur := &models.Curated{Batches: batches}
	for _, b := range batches {
		report.Sources[b.RawSource] = b.Stats
	}
	return cur, nil
}

func (p *Pipeline) cleanSource(ctx context.Context, source string, logger *zap.Logger) (models.Batch, error) {
	var (
		docs     []cleaner.Document
		rejected int
	)
	err := p.store.Scan(ctx, source, func(rec rawstore.RawRecord) error {
		doc, err := rec.Document()
		if err != nil {
			rejected++
			logger.Warn("undecodable raw document",
				zap.String("source", source),
				zap.String("id", rec.ID),
				zap.Error(err))
			return nil
		}
		docs = append(docs, doc)
		return nil
	})
	if err != nil {
		return models.Batch{}, fmt.Errorf("read raw source %s: %w", source, err)
	}

	b, err := p.cleaner.Clean(ctx, source, docs)
	if err != nil {
		return models.Batch{}, err
	}
	b.Stats.Raw += rejected
	b.Stats.Rejected = rejected
	return b, nil
}

func (p *Pipeline) finish(ctx context.Context, report *Report, runErr error, started bool) (*Report, error) {
	report.FinishedAt = p.now().UTC()
	report.Status = warehouse.RunSucceeded
	if runErr != nil {
		report.Status = warehouse.RunFailed
		report.Error = runErr.Error()
	}
	report.log(p.logger)

	if started {
		// the run context may be cancelled already; the audit row is still written
		auditCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := p.loader.FinishRun(auditCtx, report.RunID, report.FinishedAt, runErr, report.JSON()); err != nil {
			p.logger.Error("failed to record run", zap.String("run_id", report.RunID), zap.Error(err))
		}
	}

	return report, runErr
}
