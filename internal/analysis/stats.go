package analysis

import (
	"math"
	"time"
)

var posInf = math.Inf(1)

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clamp01(v float64) float64 {
	return clamp(v, 0, 1)
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// coefficientOfVariation returns the population standard deviation divided by the mean.
// Returns 0 when the mean is zero or there are fewer than two values.
func coefficientOfVariation(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := mean(values)
	if m == 0 {
		return 0
	}
	var sq float64
	for _, v := range values {
		d := v - m
		sq += d * d
	}
	return math.Sqrt(sq/float64(len(values))) / math.Abs(m)
}

// daysBetween returns the (possibly fractional) days from t to now, never negative
func daysBetween(t, now time.Time) float64 {
	d := now.Sub(t).Hours() / 24
	if d < 0 {
		return 0
	}
	return d
}

// recencyWeight decays a performance by its age
func recencyWeight(date, now time.Time) float64 {
	return math.Exp(-daysBetween(date, now) / RecencyDecayDays)
}

// dayStart truncates t to midnight UTC
func dayStart(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
