package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitTracerWithoutCollector(t *testing.T) {
	shutdown, err := InitTracer(context.Background(), "talentinsight-test", "")
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	shutdown()

	_, span := GetTracer("talentinsight-test").Start(context.Background(), "noop")
	span.SetAttributes(String("k", "v"), Int("n", 1), Int64("m", 2), Bool("b", true))
	span.End()
	assert.False(t, span.SpanContext().IsValid())
}
