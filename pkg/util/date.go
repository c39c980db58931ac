package util

import (
	"strconv"
	"strings"
	"time"
)

// DateLayout is the calendar-date format used on the wire.
const DateLayout = "2006-01-02"

var layouts = []string{
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	DateLayout,
}

// ParseTime tries RFC3339 variants, plain dates and unix seconds. Returns (t, true) if any worked.
func ParseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, l := range layouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, true
		}
	}
	if ts, err := strconv.ParseInt(s, 10, 64); err == nil && ts > 0 {
		return time.Unix(ts, 0).UTC(), true
	}
	return time.Time{}, false
}

// Date formats t as YYYY-MM-DD in UTC.
func Date(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

func DateFromUnix(sec int64) string {
	return Date(time.Unix(sec, 0))
}

func DateFromUnixMilli(ms int64) string {
	return Date(time.UnixMilli(ms))
}

// DatePrefix keeps the calendar part of "2024-07-29T13:00:00Z" or "2024-07-29 13:00:00".
// Unparseable input is returned unchanged.
func DatePrefix(s string) string {
	if i := strings.IndexAny(s, "T "); i > 0 {
		return s[:i]
	}
	return s
}

// CompactDate converts "20240729T133000" to "2024-07-29". Shorter input yields "N/A".
func CompactDate(s string) string {
	if len(s) < 8 {
		return "N/A"
	}
	return s[0:4] + "-" + s[4:6] + "-" + s[6:8]
}

// MonthsAgo is now minus n calendar months.
func MonthsAgo(now time.Time, n int) time.Time {
	return now.AddDate(0, -n, 0)
}
