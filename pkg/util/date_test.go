package util

import (
	"strconv"
	"testing"
	"time"
)

func TestParseTimeFormats(t *testing.T) {
	ref := time.Date(2026, 8, 27, 10, 10, 10, 0, time.UTC)

	tests := []struct {
		name string
		in   string
		want time.Time
		ok   bool
	}{
		{"rfc3339", ref.Format(time.RFC3339), ref, true},
		{"unix seconds", strconv.FormatInt(ref.Unix(), 10), ref, true},
		{"empty", "", time.Time{}, false},
		{"garbage", "not-a-time", time.Time{}, false},
	}
	for _, tc := range tests {
		got, ok := ParseTime(tc.in)
		if ok != tc.ok {
			t.Fatalf("%s: ok=%v, want %v", tc.name, ok, tc.ok)
		}
		if ok && got.Unix() != tc.want.Unix() {
			t.Fatalf("%s: got %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestParseTimeDefaultFallsBack(t *testing.T) {
	def := time.Date(2026, 8, 27, 10, 10, 10, 0, time.UTC)
	if got := ParseTimeDefault("", def); !got.Equal(def) {
		t.Fatalf("empty input: got %v, want default", got)
	}
	if got := ParseTimeDefault("bogus", def); !got.Equal(def) {
		t.Fatalf("invalid input: got %v, want default", got)
	}
}

func TestAlignFromTo(t *testing.T) {
	from := time.Date(2026, 8, 27, 10, 7, 31, 500, time.UTC)
	to := time.Date(2026, 8, 27, 11, 3, 59, 900, time.UTC)

	tests := []struct {
		step     string
		wantFrom time.Time
		wantTo   time.Time
	}{
		{"1s", from.Truncate(time.Second), to.Truncate(time.Second)},
		{"1m", from.Truncate(time.Minute), to.Truncate(time.Minute)},
		{"5m", time.Date(2026, 8, 27, 10, 5, 0, 0, time.UTC), time.Date(2026, 8, 27, 11, 0, 0, 0, time.UTC)},
		{"junk", from.Truncate(time.Minute), to.Truncate(time.Minute)},
	}
	for _, tc := range tests {
		gotFrom, gotTo := AlignFromTo(from, to, tc.step)
		if !gotFrom.Equal(tc.wantFrom) || !gotTo.Equal(tc.wantTo) {
			t.Fatalf("step %q: got [%v, %v], want [%v, %v]", tc.step, gotFrom, gotTo, tc.wantFrom, tc.wantTo)
		}
	}
}
