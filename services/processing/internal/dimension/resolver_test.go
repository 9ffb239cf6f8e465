package dimension

import (
	"testing"

	"talentinsight/common/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestResolverAssignsSequentialIds(t *testing.T) {
	r := NewResolver(zap.NewNop())
	assert.Equal(t, SentinelID, r.RegisterSentinel(Country, "ZZ"))
	assert.Equal(t, int64(2), r.Register(Country, "FR"))
	assert.Equal(t, int64(3), r.Register(Country, "DE"))
	assert.Equal(t, int64(2), r.Register(Country, "fr"))
	assert.Equal(t, 3, r.Size(Country))

	// dimensions are independent
	assert.Equal(t, int64(2), r.Register(Skill, "Python"))
}

func TestResolveIsDeterministic(t *testing.T) {
	r := NewResolver(zap.NewNop())
	r.RegisterSentinel(Skill, Unknown)
	r.Register(Skill, "Python")
	r.Register(Skill, "Java")

	first, err := r.Resolve(Skill, "Java")
	require.NoError(t, err)
	second, err := r.Resolve(Skill, " java ")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, int64(3), first)

	id, err := r.Resolve(Skill, Unknown)
	require.NoError(t, err)
	assert.Equal(t, SentinelID, id)
}

func TestResolveMissReturnsSentinel(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	r := NewResolver(zap.New(core))
	r.RegisterSentinel(Country, "ZZ")
	r.Register(Country, "FR")

	id, err := r.Resolve(Country, "XX")
	assert.Equal(t, SentinelID, id)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeResolutionMiss))

	_, err2 := r.Resolve(Country, "xx")
	assert.Same(t, err, err2)

	assert.Equal(t, 1, logs.Len(), "one warning per distinct key")
	assert.Equal(t, map[Dimension]int{Country: 2}, r.Misses())
	assert.Equal(t, map[string]int{"xx": 2}, r.MissedKeys(Country))
}

func TestResolveDate(t *testing.T) {
	r := NewResolver(zap.NewNop())
	h := DefaultHorizon()
	require.NoError(t, r.RegisterDates(GenerateDates(h.Start, h.End()), h.Fallback))

	key, err := r.ResolveDate("2025-03-14")
	require.NoError(t, err)
	assert.Equal(t, "2025-03-14", key)

	key, err = r.ResolveDate("2019-01-01")
	assert.Equal(t, "2024-06-30", key)
	assert.True(t, errors.IsType(err, errors.ErrTypeResolutionMiss))

	key, err = r.ResolveDate("")
	assert.Equal(t, "2024-06-30", key)
	assert.Error(t, err)

	assert.Equal(t, 2, r.Misses()[DateDim])
}

func TestRegisterDatesRejectsFallbackOutsideDimension(t *testing.T) {
	r := NewResolver(zap.NewNop())
	h := DefaultHorizon()
	assert.Error(t, r.RegisterDates(GenerateDates(h.Start, h.End()), "2031-01-01"))
}
