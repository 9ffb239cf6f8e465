package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRawBatchIngestedStoredTotal(t *testing.T) {
	e := RawBatchIngested{
		CycleID:    "c1",
		FinishedAt: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Sources: map[string]SourceCounts{
			"adzuna_jobs":   {Stored: 3, Duplicates: 2},
			"github_trends": {Stored: 4, Rejected: 1},
		},
		Failed: []string{"google_trends"},
	}
	assert.Equal(t, 7, e.StoredTotal())

	data, err := e.MarshalBinary()
	require.NoError(t, err)

	var decoded RawBatchIngested
	require.NoError(t, decoded.UnmarshalBinary(data))
	assert.Equal(t, e, decoded)
}
