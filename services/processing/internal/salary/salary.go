// Package salary normalizes salary bounds for one batch of postings.
//
// A missing bound is imputed with the median of the valid bounds of the same
// batch, so a row's imputed value depends on every other row cleaned in the
// run. Re-running with a different input population changes imputed values;
// affected rows carry Imputed so consumers can filter them.
package salary

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Floor is the plausibility floor in the source currency unit. Smaller
// values are treated as data-entry noise.
var Floor = decimal.NewFromInt(10000)

var half = decimal.New(5, -1)

type Bounds struct {
	Min decimal.NullDecimal
	Max decimal.NullDecimal
}

type Normalized struct {
	Min     decimal.NullDecimal
	Max     decimal.NullDecimal
	Avg     decimal.NullDecimal
	Imputed bool
}

type Stats struct {
	BelowFloor int
	ImputedMin int
	ImputedMax int
	MedianMin  decimal.NullDecimal
	MedianMax  decimal.NullDecimal
}

// Parse reads a salary bound from a decoded document value. Empty values
// give an invalid NullDecimal with no error; unparseable ones return an error.
func Parse(v any) (decimal.NullDecimal, error) {
	switch x := v.(type) {
	case nil:
		return decimal.NullDecimal{}, nil
	case json.Number:
		return parseString(x.String())
	case string:
		return parseString(x)
	case float64:
		return decimal.NewNullDecimal(decimal.NewFromFloat(x)), nil
	case int:
		return decimal.NewNullDecimal(decimal.NewFromInt(int64(x))), nil
	case int64:
		return decimal.NewNullDecimal(decimal.NewFromInt(x)), nil
	case decimal.Decimal:
		return decimal.NewNullDecimal(x), nil
	default:
		return decimal.NullDecimal{}, fmt.Errorf("unsupported salary value %T", v)
	}
}

func parseString(s string) (decimal.NullDecimal, error) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "nan", "null", "none", "na", "n/a":
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}, fmt.Errorf("parse salary %q: %w", s, err)
	}
	return decimal.NewNullDecimal(d), nil
}

// Normalize applies the floor, imputes missing bounds with the batch medians
// and computes the exact midpoint. Rows with both bounds valid are never
// imputed. A bound stays null when the batch has no valid value for it.
func Normalize(rows []Bounds) ([]Normalized, Stats) {
	var stats Stats
	out := make([]Normalized, len(rows))

	var mins, maxs []decimal.Decimal
	for i, r := range rows {
		out[i].Min = applyFloor(r.Min, &stats)
		out[i].Max = applyFloor(r.Max, &stats)
		if out[i].Min.Valid {
			mins = append(mins, out[i].Min.Decimal)
		}
		if out[i].Max.Valid {
			maxs = append(maxs, out[i].Max.Decimal)
		}
	}

	stats.MedianMin = Median(mins)
	stats.MedianMax = Median(maxs)

	for i := range out {
		n := &out[i]
		if !n.Min.Valid && stats.MedianMin.Valid {
			n.Min = stats.MedianMin
			n.Imputed = true
			stats.ImputedMin++
		}
		if !n.Max.Valid && stats.MedianMax.Valid {
			n.Max = stats.MedianMax
			n.Imputed = true
			stats.ImputedMax++
		}
		n.Avg = Midpoint(n.Min, n.Max)
	}

	return out, stats
}

// Midpoint is (min+max)/2, or null if either bound is null.
func Midpoint(min, max decimal.NullDecimal) decimal.NullDecimal {
	if !min.Valid || !max.Valid {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(min.Decimal.Add(max.Decimal).Mul(half))
}

// Median follows the usual convention: the middle value, or the midpoint of
// the two middle values for an even count.
func Median(values []decimal.Decimal) decimal.NullDecimal {
	if len(values) == 0 {
		return decimal.NullDecimal{}
	}
	sorted := make([]decimal.Decimal, len(values))
	copy(sorted, values)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].LessThan(sorted[j]) })

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return decimal.NewNullDecimal(sorted[mid])
	}
	return decimal.NewNullDecimal(sorted[mid-1].Add(sorted[mid]).Mul(half))
}

func applyFloor(v decimal.NullDecimal, stats *Stats) decimal.NullDecimal {
	if v.Valid && v.Decimal.LessThan(Floor) {
		stats.BelowFloor++
		return decimal.NullDecimal{}
	}
	return v
}

// InRange reports whether v lies strictly between lo and hi.
func InRange(v decimal.NullDecimal, lo, hi decimal.Decimal) bool {
	return v.Valid && v.Decimal.GreaterThan(lo) && v.Decimal.LessThan(hi)
}
