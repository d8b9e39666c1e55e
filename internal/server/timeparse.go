package server

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// isoLayouts are the accepted ISO-8601 shapes for start_time/end_time, tried
// in order after raw-timestamp parsing fails.
var isoLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseTimeParam normalizes a time query parameter to epoch seconds. Raw
// timestamps (integer or fractional) are taken as-is; otherwise the value is
// parsed as an ISO-8601 date or datetime. An empty value means "unset" (0).
func parseTimeParam(value string) (float64, error) {
	if value == "" {
		return 0, nil
	}
	if ts, err := strconv.ParseFloat(value, 64); err == nil {
		return ts, nil
	}
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return float64(t.UnixNano()) / float64(time.Second), nil
		}
	}
	return 0, fmt.Errorf("cannot parse %q as timestamp or ISO-8601 date", value)
}

// parseBoolParam parses a boolean query parameter, falling back to def when
// the parameter is absent.
func parseBoolParam(value string, def bool) (bool, error) {
	if value == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("cannot parse %q as boolean", value)
	}
	return b, nil
}

// parseDateInfo maps the /csv since/until parameters to a concrete window.
// "now" is the only supported since value; until takes a <n>d / <n>h / <n>m
// suffix. Anything malformed silently keeps the default [now-1h, now]
// window.
func parseDateInfo(since, until string, now time.Time) (time.Time, time.Time) {
	end := now
	start := end.Add(-time.Hour)

	_ = since // only "now" is supported; other values keep the default end

	if len(until) > 1 {
		if n, err := strconv.Atoi(until[:len(until)-1]); err == nil {
			switch {
			case strings.HasSuffix(until, "d"):
				start = end.Add(-time.Duration(n) * 24 * time.Hour)
			case strings.HasSuffix(until, "h"):
				start = end.Add(-time.Duration(n) * time.Hour)
			case strings.HasSuffix(until, "m"):
				start = end.Add(-time.Duration(n) * time.Minute)
			}
		}
	}
	return start, end
}
