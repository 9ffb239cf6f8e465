package pipeline

import (
	"encoding/json"
	"sort"
	"time"

	"talentinsight/services/processing/internal/models"

	"go.uber.org/zap"
)

// Report summarizes one pipeline run. It is logged at the end of every run
// and stored with the run in load_runs.
type Report struct {
	RunID      string                        `json:"run_id"`
	StartedAt  time.Time                     `json:"started_at"`
	FinishedAt time.Time                     `json:"finished_at"`
	Status     string                        `json:"status"`
	Error      string                        `json:"error,omitempty"`
	Sources    map[string]models.SourceStats `json:"sources"`
	// Skipped lists raw sources that no cleaning routine handles.
	Skipped []string       `json:"skipped,omitempty"`
	Misses  map[string]int `json:"dimension_misses,omitempty"`
	Rows    map[string]int `json:"rows,omitempty"`
}

func (r *Report) JSON() []byte {
	data, err := json.Marshal(r)
	if err != nil {
		return nil
	}
	return data
}

func (r *Report) log(logger *zap.Logger) {
	names := make([]string, 0, len(r.Sources))
	for name := range r.Sources {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		s := r.Sources[name]
		logger.Info("source summary",
			zap.String("run_id", r.RunID),
			zap.String("source", name),
			zap.Int("raw", s.Raw),
			zap.Int("rejected", s.Rejected),
			zap.Int("duplicates", s.Duplicates),
			zap.Int("cleaned", s.Cleaned),
			zap.Int("dropped", s.Dropped),
			zap.Int("transform_errors", s.TransformErrors),
			zap.Int("loaded", s.Loaded),
			zap.Int("sentinel", s.Sentinel),
			zap.Int("salary_imputed", s.SalaryImputed))
	}

	fields := []zap.Field{
		zap.String("run_id", r.RunID),
		zap.String("status", r.Status),
		zap.Duration("elapsed", r.FinishedAt.Sub(r.StartedAt)),
		zap.Any("dimension_misses", r.Misses),
		zap.Strings("skipped", r.Skipped),
	}
	if r.Error != "" {
		logger.Error("pipeline run failed", append(fields, zap.String("error", r.Error))...)
		return
	}
	logger.Info("pipeline run finished", fields...)
}
