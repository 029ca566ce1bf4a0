package util

import (
	"strconv"
	"time"
)

// The backend stamps results with naive local datetimes; offsets are accepted
// too.
var backendLayouts = [...]string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
}

// ParseTime reads a backend timestamp: ISO-8601 with or without an offset,
// or unix seconds.
func ParseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range backendLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, true
		}
	}
	if secs, err := strconv.ParseInt(s, 10, 64); err == nil && secs > 0 {
		return time.Unix(secs, 0), true
	}
	return time.Time{}, false
}

// ReportStamp is the suffix of saved report file names.
func ReportStamp(t time.Time) string {
	return t.Format("20060102_150405")
}
