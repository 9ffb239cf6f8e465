package events

import (
	"encoding/json"
	"time"
)

const (
	// RawBatchIngestedSubject is published once per ingestion cycle after
	// every source has been landed in the raw store.
	RawBatchIngestedSubject = "raw.batch.ingested"
	ProcessingQueueGroup    = "processing-service"
)

type SourceCounts struct {
	Stored     int `json:"stored"`
	Duplicates int `json:"duplicates"`
	Rejected   int `json:"rejected"`
}

type RawBatchIngested struct {
	CycleID    string                  `json:"cycle_id"`
	FinishedAt time.Time               `json:"finished_at"`
	Sources    map[string]SourceCounts `json:"sources"`
	// Failed lists sources skipped this cycle after their fetch gave up.
	Failed []string `json:"failed,omitempty"`
}

// StoredTotal is the number of new raw documents across all sources.
func (e RawBatchIngested) StoredTotal() int {
	total := 0
	for _, c := range e.Sources {
		total += c.Stored
	}
	return total
}

func (e RawBatchIngested) MarshalBinary() ([]byte, error) {
	return json.Marshal(e)
}

func (e *RawBatchIngested) UnmarshalBinary(data []byte) error {
	return json.Unmarshal(data, e)
}
