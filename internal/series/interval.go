package series

import (
	"time"
)

// Interval strings follow the exchange convention <amount><unit> with unit
// one of m (minute), H (hour), D (day), W (week), M (month), e.g. "5m",
// "1H", "1D". A malformed amount defaults to 1; an unrecognized unit is
// reported by ParseInterval but still yields a usable (second-truncating)
// bucket so a bad interval string never fails a tick.

// ParseInterval splits an interval string into amount and unit. ok is false
// when the amount is malformed or the unit is not recognized; the returned
// values are still safe to use.
func ParseInterval(interval string) (amount int, unit byte, ok bool) {
	if interval == "" {
		return 1, 0, false
	}
	unit = interval[len(interval)-1]
	amount = 0
	for i := 0; i < len(interval)-1; i++ {
		c := interval[i]
		if c < '0' || c > '9' {
			amount = 0
			break
		}
		amount = amount*10 + int(c-'0')
	}
	if amount <= 0 {
		amount = 1
		ok = false
	} else {
		ok = true
	}
	switch unit {
	case 'm', 'H', 'D', 'W', 'M':
	default:
		unit = 0
		ok = false
	}
	return amount, unit, ok
}

// BucketStart returns the calendar-aligned period start containing t for the
// given interval.
func BucketStart(t time.Time, interval string) time.Time {
	amount, unit, _ := ParseInterval(interval)
	y, mo, d := t.Date()
	loc := t.Location()

	switch unit {
	case 'm':
		if amount > 60 {
			amount = 60
		}
		return time.Date(y, mo, d, t.Hour(), (t.Minute()/amount)*amount, 0, 0, loc)
	case 'H':
		if amount > 24 {
			amount = 24
		}
		return time.Date(y, mo, d, (t.Hour()/amount)*amount, 0, 0, 0, loc)
	case 'D':
		return time.Date(y, mo, d, 0, 0, 0, 0, loc)
	case 'W':
		// Most recent Monday, midnight.
		back := (int(t.Weekday()) + 6) % 7
		return time.Date(y, mo, d-back, 0, 0, 0, 0, loc)
	case 'M':
		return time.Date(y, mo, 1, 0, 0, 0, 0, loc)
	default:
		// Unrecognized unit: truncate seconds only.
		return time.Date(y, mo, d, t.Hour(), t.Minute(), 0, 0, loc)
	}
}

// IntervalDuration returns the nominal duration of one interval period,
// used for entry debounce and close-time derivation. Weeks count 7 days,
// months 30; an unrecognized unit counts one minute per amount.
func IntervalDuration(interval string) time.Duration {
	amount, unit, _ := ParseInterval(interval)
	base := time.Minute
	switch unit {
	case 'm':
		base = time.Minute
	case 'H':
		base = time.Hour
	case 'D':
		base = 24 * time.Hour
	case 'W':
		base = 7 * 24 * time.Hour
	case 'M':
		base = 30 * 24 * time.Hour
	}
	return time.Duration(amount) * base
}
