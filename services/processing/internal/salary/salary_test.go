package salary

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(v int64) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.NewFromInt(v))
}

func TestMidpointIsExact(t *testing.T) {
	avg := Midpoint(d(40000), d(60000))
	require.True(t, avg.Valid)
	assert.True(t, avg.Decimal.Equal(decimal.NewFromInt(50000)), avg.Decimal.String())

	odd := Midpoint(d(40001), d(60000))
	assert.Equal(t, "50000.5", odd.Decimal.String())

	assert.False(t, Midpoint(d(40000), decimal.NullDecimal{}).Valid)
}

func TestNormalizeNoImputationWhenBothPresent(t *testing.T) {
	out, stats := Normalize([]Bounds{
		{Min: d(40000), Max: d(60000)},
		{Min: d(30000), Max: d(90000)},
	})
	for _, n := range out {
		assert.False(t, n.Imputed)
	}
	assert.True(t, out[0].Avg.Decimal.Equal(decimal.NewFromInt(50000)))
	assert.Zero(t, stats.ImputedMin+stats.ImputedMax)
}

func TestNormalizeImputesWithBatchMedian(t *testing.T) {
	out, stats := Normalize([]Bounds{
		{Min: d(40000), Max: d(60000)},
		{Min: d(50000), Max: d(80000)},
		{Min: d(45000)},
		{Max: d(70000)},
	})

	// valid mins 40000, 50000, 45000 -> 45000; valid maxes 60000, 80000, 70000 -> 70000
	assert.True(t, stats.MedianMin.Decimal.Equal(decimal.NewFromInt(45000)))
	assert.True(t, stats.MedianMax.Decimal.Equal(decimal.NewFromInt(70000)))

	assert.True(t, out[2].Imputed)
	assert.True(t, out[2].Max.Decimal.Equal(decimal.NewFromInt(70000)))
	assert.Equal(t, "57500", out[2].Avg.Decimal.String())

	assert.True(t, out[3].Imputed)
	assert.True(t, out[3].Min.Decimal.Equal(decimal.NewFromInt(45000)))

	assert.False(t, out[0].Imputed)
	assert.False(t, out[1].Imputed)
	assert.Equal(t, 1, stats.ImputedMin)
	assert.Equal(t, 1, stats.ImputedMax)
}

func TestNormalizeDropsValuesBelowFloor(t *testing.T) {
	out, stats := Normalize([]Bounds{
		{Min: d(35), Max: d(60000)},
		{Min: d(40000), Max: d(50000)},
	})
	assert.Equal(t, 1, stats.BelowFloor)
	assert.True(t, out[0].Imputed)
	assert.True(t, out[0].Min.Decimal.Equal(decimal.NewFromInt(40000)))
	assert.Equal(t, "50000", out[0].Avg.Decimal.String())
}

func TestNormalizeWithoutAnyValidBound(t *testing.T) {
	out, _ := Normalize([]Bounds{{}, {Min: d(5)}})
	for _, n := range out {
		assert.False(t, n.Min.Valid)
		assert.False(t, n.Max.Valid)
		assert.False(t, n.Avg.Valid)
		assert.False(t, n.Imputed)
	}
}

func TestMedianEvenCount(t *testing.T) {
	m := Median([]decimal.Decimal{decimal.NewFromInt(4), decimal.NewFromInt(1), decimal.NewFromInt(3), decimal.NewFromInt(2)})
	assert.Equal(t, "2.5", m.Decimal.String())
	assert.False(t, Median(nil).Valid)
}

func TestParse(t *testing.T) {
	v, err := Parse(json.Number("42000.50"))
	require.NoError(t, err)
	assert.Equal(t, "42000.5", v.Decimal.String())

	v, err = Parse(" 55000 ")
	require.NoError(t, err)
	assert.True(t, v.Valid)

	for _, empty := range []any{nil, "", "NaN", "null"} {
		v, err = Parse(empty)
		require.NoError(t, err)
		assert.False(t, v.Valid)
	}

	_, err = Parse("fifty thousand")
	assert.Error(t, err)
	_, err = Parse([]string{"x"})
	assert.Error(t, err)
}

func TestInRange(t *testing.T) {
	lo, hi := decimal.NewFromInt(10000), decimal.NewFromInt(500000)
	assert.True(t, InRange(d(60000), lo, hi))
	assert.False(t, InRange(d(10000), lo, hi))
	assert.False(t, InRange(d(500000), lo, hi))
	assert.False(t, InRange(decimal.NullDecimal{}, lo, hi))
}
