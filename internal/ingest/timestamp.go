package ingest

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	dps "github.com/markusmobius/go-dateparser"
)

// millisThreshold separates unix seconds from unix milliseconds.
const millisThreshold = 1e12

var layouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05,999",
}

// ParseTimestamp parses RFC3339 and common log layouts, unix seconds or
// milliseconds, and finally anything go-dateparser understands ("yesterday
// 10:00", "March 3 2026 14:05", ...). Layouts without a zone are UTC.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrEmptyTimestamp
	}

	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return FromUnix(f), nil
	}

	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}

	parser := dps.Parser{}
	cfg := &dps.Configuration{
		PreferredDateSource: dps.CurrentPeriod,
	}
	parsed, err := parser.Parse(cfg, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("unrecognized timestamp %q: %w", s, err)
	}
	if parsed.IsZero() {
		return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
	}
	return parsed.Time.UTC(), nil
}

// FromUnix converts unix seconds (or milliseconds, for values beyond
// year 33658) with an optional fractional part.
func FromUnix(v float64) time.Time {
	if math.Abs(v) >= millisThreshold {
		v /= 1000
	}
	sec, frac := math.Modf(v)
	return time.Unix(int64(sec), int64(math.Round(frac*1e9))).UTC()
}
