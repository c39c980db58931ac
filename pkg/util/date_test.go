package util

import (
	"strconv"
	"testing"
	"time"
)

func TestParseTimeRFC3339(t *testing.T) {
	s := "2024-10-10T10:10:10Z"
	got, ok := ParseTime(s)
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.UTC().Format(time.RFC3339) != s {
		t.Fatalf("unexpected time %v", got)
	}
}

func TestParseTimeUnix(t *testing.T) {
	ts := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC).Unix()
	got, ok := ParseTime(strconv.FormatInt(ts, 10))
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.Unix() != ts {
		t.Fatalf("unexpected unix %v", got.Unix())
	}
}

func TestParseTimeDateOnly(t *testing.T) {
	got, ok := ParseTime("2024-07-29")
	if !ok || Date(got) != "2024-07-29" {
		t.Fatalf("unexpected %v %v", got, ok)
	}
}

func TestDateHelpers(t *testing.T) {
	cases := []struct{ got, want string }{
		{DatePrefix("2024-07-29T13:00:00Z"), "2024-07-29"},
		{DatePrefix("2024-07-29 13:00:00"), "2024-07-29"},
		{DatePrefix("2024-07-29"), "2024-07-29"},
		{CompactDate("20240729T133000"), "2024-07-29"},
		{CompactDate("2024"), "N/A"},
		{DateFromUnix(1722211200), "2024-07-29"},
		{DateFromUnixMilli(1722211200000), "2024-07-29"},
		{Date(MonthsAgo(time.Date(2024, 7, 29, 0, 0, 0, 0, time.UTC), 3)), "2024-04-29"},
	}
	for _, c := range cases {
		if c.got != c.want {
			t.Fatalf("got %q want %q", c.got, c.want)
		}
	}
}

func TestStrings(t *testing.T) {
	if NormalizeTicker(" aapl ") != "AAPL" {
		t.Fatalf("ticker not normalized")
	}
	if Truncate("abcdefgh", 6) != "abc..." {
		t.Fatalf("unexpected truncate %q", Truncate("abcdefgh", 6))
	}
}
