package util

import (
	"strconv"
	"testing"
	"time"
)

func TestParseDateFormats(t *testing.T) {
	want := time.Date(2021, 3, 15, 0, 0, 0, 0, time.UTC)
	for _, s := range []string{"2021-03-15", "15-03-2021", "15/03/2021", "15-Mar-2021"} {
		got, ok := ParseDate(s)
		if !ok {
			t.Fatalf("%q: expected ok", s)
		}
		if !got.Equal(want) {
			t.Fatalf("%q: got %v, want %v", s, got, want)
		}
	}
}

func TestParseDateInvalid(t *testing.T) {
	for _, s := range []string{"", "not-a-date", "2021-13-45"} {
		if _, ok := ParseDate(s); ok {
			t.Fatalf("%q: expected failure", s)
		}
	}
}

func TestParseDateDefault(t *testing.T) {
	def := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	if got := ParseDateDefault("", def); !got.Equal(def) {
		t.Fatalf("expected default, got %v", got)
	}
}

func TestDayTruncates(t *testing.T) {
	in := time.Date(2021, 3, 15, 14, 30, 5, 0, time.UTC)
	if got := Day(in); got.Hour() != 0 || got.Day() != 15 {
		t.Fatalf("unexpected day %v", got)
	}
}

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
