package analysis

import (
	"math"
	"time"
)

// isFinite reports whether v is a usable number (not NaN or ±Inf).
func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// round1 rounds to one decimal place. Non-finite input collapses to 0 so
// no computed value can leak NaN or Inf to callers.
func round1(v float64) float64 {
	if !isFinite(v) {
		return 0
	}
	return math.Round(v*10) / 10
}

// round2 rounds to two decimal places with the same finite guarantee.
func round2(v float64) float64 {
	if !isFinite(v) {
		return 0
	}
	return math.Round(v*100) / 100
}

// meanFinite averages the finite values in vs. ok is false when none are.
func meanFinite(vs []float64) (mean float64, ok bool) {
	var sum float64
	var n int
	for _, v := range vs {
		if !isFinite(v) {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseTimestamp(ts string) (time.Time, bool) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, ts); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// timestampBefore orders ISO timestamps for trend splits. Unparseable
// values sort last; two unparseable values keep their input order.
func timestampBefore(a, b string) bool {
	ta, aok := parseTimestamp(a)
	tb, bok := parseTimestamp(b)
	switch {
	case aok && bok:
		return ta.Before(tb)
	case aok:
		return true
	default:
		return false
	}
}
