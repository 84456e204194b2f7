package series

import (
	"testing"
	"time"
)

func TestParseInterval(t *testing.T) {
	cases := []struct {
		in     string
		amount int
		unit   byte
		ok     bool
	}{
		{"5m", 5, 'm', true},
		{"1H", 1, 'H', true},
		{"4H", 4, 'H', true},
		{"1D", 1, 'D', true},
		{"1W", 1, 'W', true},
		{"1M", 1, 'M', true},
		{"15m", 15, 'm', true},
		{"m", 1, 'm', false},   // missing amount defaults to 1
		{"xm", 1, 'm', false},  // junk amount defaults to 1
		{"5x", 5, 0, false},    // unknown unit
		{"", 1, 0, false},
	}

	for _, tc := range cases {
		amount, unit, ok := ParseInterval(tc.in)
		if amount != tc.amount || unit != tc.unit || ok != tc.ok {
			t.Errorf("ParseInterval(%q) = (%d, %q, %v), want (%d, %q, %v)",
				tc.in, amount, unit, ok, tc.amount, tc.unit, tc.ok)
		}
	}
}

func TestBucketStartMinutes(t *testing.T) {
	// 10:02 and 10:04 share the 10:00 five-minute bucket; 10:06 starts a new one.
	at := func(h, m int) time.Time {
		return time.Date(2024, 3, 14, h, m, 33, 12345, time.UTC)
	}

	b1 := BucketStart(at(10, 2), "5m")
	b2 := BucketStart(at(10, 4), "5m")
	b3 := BucketStart(at(10, 6), "5m")

	want := time.Date(2024, 3, 14, 10, 0, 0, 0, time.UTC)
	if !b1.Equal(want) {
		t.Errorf("bucket(10:02) = %v, want %v", b1, want)
	}
	if !b1.Equal(b2) {
		t.Errorf("10:02 and 10:04 should share a bucket, got %v and %v", b1, b2)
	}
	want = time.Date(2024, 3, 14, 10, 5, 0, 0, time.UTC)
	if !b3.Equal(want) {
		t.Errorf("bucket(10:06) = %v, want %v", b3, want)
	}
}

func TestBucketStartHours(t *testing.T) {
	ts := time.Date(2024, 3, 14, 15, 42, 7, 0, time.UTC)
	got := BucketStart(ts, "4H")
	want := time.Date(2024, 3, 14, 12, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("bucket(15:42, 4H) = %v, want %v", got, want)
	}
}

func TestBucketStartDay(t *testing.T) {
	ts := time.Date(2024, 3, 14, 15, 42, 7, 0, time.UTC)
	want := time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC)
	if got := BucketStart(ts, "1D"); !got.Equal(want) {
		t.Errorf("bucket(1D) = %v, want %v", got, want)
	}
}

func TestBucketStartWeek(t *testing.T) {
	// 2024-03-14 is a Thursday; the week bucket is Monday 2024-03-11.
	ts := time.Date(2024, 3, 14, 15, 42, 7, 0, time.UTC)
	want := time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)
	if got := BucketStart(ts, "1W"); !got.Equal(want) {
		t.Errorf("bucket(1W) = %v, want %v", got, want)
	}

	// A Monday maps to itself.
	mon := time.Date(2024, 3, 11, 9, 0, 0, 0, time.UTC)
	if got := BucketStart(mon, "1W"); !got.Equal(want) {
		t.Errorf("bucket(Monday, 1W) = %v, want %v", got, want)
	}

	// Sunday belongs to the preceding Monday's week.
	sun := time.Date(2024, 3, 17, 23, 59, 0, 0, time.UTC)
	if got := BucketStart(sun, "1W"); !got.Equal(want) {
		t.Errorf("bucket(Sunday, 1W) = %v, want %v", got, want)
	}
}

func TestBucketStartMonth(t *testing.T) {
	ts := time.Date(2024, 3, 14, 15, 42, 7, 0, time.UTC)
	want := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	if got := BucketStart(ts, "1M"); !got.Equal(want) {
		t.Errorf("bucket(1M) = %v, want %v", got, want)
	}
}

func TestBucketStartUnknownUnitTruncatesSeconds(t *testing.T) {
	ts := time.Date(2024, 3, 14, 15, 42, 7, 999, time.UTC)
	want := time.Date(2024, 3, 14, 15, 42, 0, 0, time.UTC)
	if got := BucketStart(ts, "5x"); !got.Equal(want) {
		t.Errorf("bucket(unknown unit) = %v, want %v", got, want)
	}
}

func TestIntervalDuration(t *testing.T) {
	cases := []struct {
		in   string
		want time.Duration
	}{
		{"5m", 5 * time.Minute},
		{"1H", time.Hour},
		{"1D", 24 * time.Hour},
		{"1W", 7 * 24 * time.Hour},
		{"1M", 30 * 24 * time.Hour},
		{"3x", 3 * time.Minute}, // unknown unit falls back to minutes
	}
	for _, tc := range cases {
		if got := IntervalDuration(tc.in); got != tc.want {
			t.Errorf("IntervalDuration(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
