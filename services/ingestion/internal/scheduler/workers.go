package scheduler

import (
	"context"
	"sync"

	"talentinsight/common/errors"
	"talentinsight/services/ingestion/internal/api"

	"go.uber.org/zap"
)

const defaultSourceWorkers = 4

type workerManager struct {
	scheduler *JobScheduler
	logger    *zap.Logger
	workers   int
}

func newWorkerManager(scheduler *JobScheduler, logger *zap.Logger) *workerManager {
	return &workerManager{
		scheduler: scheduler,
		logger:    logger,
		workers:   defaultSourceWorkers,
	}
}

// run fans the fetchers out to a fixed pool. A source that fails to fetch is
// recorded and skipped; the first raw store failure is returned once every
// worker has drained.
func (w *workerManager) run(ctx context.Context, stats *cycleStats) error {
	if len(w.scheduler.fetchers) == 0 {
		return nil
	}
	fetcherChan := make(chan api.Fetcher)

	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	for i := 0; i < min(w.workers, len(w.scheduler.fetchers)); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for f := range fetcherChan {
				err := w.scheduler.sourceProcessor.processSource(ctx, f, stats)
				switch {
				case err == nil:
				case errors.IsType(err, errors.ErrTypeFetch):
					stats.fail(f.Name())
					w.logger.Error("source skipped for this cycle",
						zap.String("source", f.Name()),
						zap.Error(err))
				default:
					errOnce.Do(func() {
						firstErr = err
						cancel()
					})
				}
			}
		}()
	}

	w.scheduler.sourceProcessor.feedSources(ctx, fetcherChan)
	wg.Wait()

	if firstErr != nil {
		return firstErr
	}
	return ctx.Err()
}
