package cleaner

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"talentinsight/common/errors"
	"talentinsight/services/processing/internal/dimension"
	"talentinsight/services/processing/internal/models"
	"talentinsight/services/processing/internal/salary"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// fields reads typed values from one document. Unparseable values become
// null, are counted as transform errors and never drop the row.
type fields struct {
	doc    Document
	stats  *models.SourceStats
	logger *zap.Logger
}

func (c *Cleaner) fields(b *models.Batch, doc Document) fields {
	return fields{doc: doc, stats: &b.Stats, logger: c.logger}
}

func (f fields) transformError(field string, value any, err error) {
	f.stats.TransformErrors++
	f.logger.Debug("coerced unparseable field to null",
		zap.String("field", field),
		zap.Any("value", value),
		zap.Error(errors.Transform(field, err)))
}

// text returns a trimmed, whitespace-collapsed string. Nested objects with a
// display_name (Adzuna's company/location) yield that name.
func (f fields) text(key string) string {
	return textValue(f.doc[key])
}

func textValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.Join(strings.Fields(x), " ")
	case json.Number:
		return x.String()
	case float64:
		if math.IsNaN(x) {
			return ""
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case map[string]any:
		return textValue(x["display_name"])
	default:
		return ""
	}
}

// first returns the first non-empty text among keys.
func (f fields) first(keys ...string) string {
	for _, k := range keys {
		if v := f.text(k); v != "" {
			return v
		}
	}
	return ""
}

func (f fields) date(key string) string {
	raw := f.text(key)
	d, err := dimension.ParseDateKey(raw)
	if err != nil {
		f.transformError(key, raw, err)
		return ""
	}
	return d
}

func (f fields) salary(key string) decimal.NullDecimal {
	v, err := salary.Parse(f.doc[key])
	if err != nil {
		f.transformError(key, f.doc[key], err)
		return decimal.NullDecimal{}
	}
	return v
}

// count reads a non-negative integer; missing or unparseable values are 0.
func (f fields) count(key string) int64 {
	n, ok := f.integer(key)
	if !ok || n < 0 {
		return 0
	}
	return n
}

// integer accepts integral JSON numbers and numeric strings ("12", "12.0").
func (f fields) integer(key string) (int64, bool) {
	v := f.doc[key]
	raw := f.text(key)
	if v == nil || raw == "" || strings.EqualFold(raw, "nan") {
		return 0, false
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return n, true
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		f.transformError(key, v, err)
		return 0, false
	}
	return d.Truncate(0).IntPart(), true
}

func missing(values ...string) bool {
	for _, v := range values {
		if v == "" {
			return true
		}
	}
	return false
}
