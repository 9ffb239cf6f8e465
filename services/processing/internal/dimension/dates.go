package dimension

import (
	"fmt"
	"strings"
	"time"
)

const DateLayout = "2006-01-02"

type Date struct {
	Key     string
	Day     int
	Month   int
	Quarter int
	Year    int
	// Weekday is ISO-8601: Monday=1 ... Sunday=7.
	Weekday int
}

// Horizon is the calendar span of the date dimension. Fact dates outside it
// resolve to Fallback.
type Horizon struct {
	Start    time.Time
	Years    int
	Fallback string
}

func DefaultHorizon() Horizon {
	return Horizon{
		Start:    time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		Years:    2,
		Fallback: "2024-06-30",
	}
}

// End is the last day inside the horizon.
func (h Horizon) End() time.Time {
	return h.Start.AddDate(h.Years, 0, -1)
}

func (h Horizon) Validate() error {
	if h.Years <= 0 {
		return fmt.Errorf("date horizon must span at least one year")
	}
	fb, err := time.Parse(DateLayout, h.Fallback)
	if err != nil {
		return fmt.Errorf("fallback date %q: %w", h.Fallback, err)
	}
	start := truncate(h.Start)
	if fb.Before(start) || fb.After(h.End()) {
		return fmt.Errorf("fallback date %s outside horizon %s..%s",
			h.Fallback, start.Format(DateLayout), h.End().Format(DateLayout))
	}
	return nil
}

// GenerateDates emits one row per calendar day in [start, end].
func GenerateDates(start, end time.Time) []Date {
	start, end = truncate(start), truncate(end)
	if end.Before(start) {
		return nil
	}

	dates := make([]Date, 0, int(end.Sub(start).Hours()/24)+1)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		dates = append(dates, NewDate(d))
	}
	return dates
}

func NewDate(t time.Time) Date {
	month := int(t.Month())
	weekday := int(t.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	return Date{
		Key:     t.Format(DateLayout),
		Day:     t.Day(),
		Month:   month,
		Quarter: (month-1)/3 + 1,
		Year:    t.Year(),
		Weekday: weekday,
	}
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05",
	DateLayout,
	"2006/01/02",
	"02/01/2006",
}

// ParseDateKey normalizes a timestamp or date string to YYYY-MM-DD. The
// calendar date is taken as written, without converting time zones.
func ParseDateKey(value string) (string, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return "", nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t.Format(DateLayout), nil
		}
	}
	return "", fmt.Errorf("unrecognized date %q", value)
}

func truncate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
