package analysis

import (
	"math"
	"sort"
	"time"
)

// DefaultAthleteSettings returns sensible defaults if not configured
func DefaultAthleteSettings() AthleteSettings {
	return AthleteSettings{
		RestingHR: 50,
		MaxHR:     185,
		Gender:    GenderMale,
	}
}

// TRIMP calculates Training Impulse (Banister model)
// male:   duration (min) * hrRatio * 0.64 * e^(1.92 * hrRatio)
// female: duration (min) * hrRatio * 0.86 * e^(1.67 * hrRatio)
// Returns 0 for any missing or invalid input.
func TRIMP(a TrainingActivity, s AthleteSettings) float64 {
	if !a.HasHeartRate() || a.DurationSeconds <= 0 {
		return 0
	}
	hrReserve := s.MaxHR - s.RestingHR
	if hrReserve <= 0 || s.RestingHR <= 0 {
		return 0
	}

	hrRatio := clamp01((*a.AverageHeartRate - s.RestingHR) / hrReserve)
	duration := a.DurationSeconds / 60

	k, b := 0.64, 1.92
	if s.Gender == GenderFemale {
		k, b = 0.86, 1.67
	}

	trimp := duration * hrRatio * k * math.Exp(b*hrRatio)
	if !isFinite(trimp) {
		return 0
	}
	return trimp
}

// DailyLoad represents training load for a single day
type DailyLoad struct {
	Date  time.Time `json:"date"`
	TRIMP float64   `json:"trimp"`
}

// DailyLoads sums TRIMP per calendar day (UTC) and fills every day from the first
// recorded activity through today with zero load. Activities after today are ignored.
func DailyLoads(activities []TrainingActivity, s AthleteSettings, now time.Time) []DailyLoad {
	today := dayStart(now)

	loadMap := make(map[string]float64)
	var first time.Time
	for _, a := range activities {
		d := dayStart(a.Date)
		if d.After(today) {
			continue
		}
		if first.IsZero() || d.Before(first) {
			first = d
		}
		loadMap[d.Format("2006-01-02")] += TRIMP(a, s)
	}
	if first.IsZero() {
		return nil
	}

	var loads []DailyLoad
	for d := first; !d.After(today); d = d.AddDate(0, 0, 1) {
		loads = append(loads, DailyLoad{Date: d, TRIMP: loadMap[d.Format("2006-01-02")]})
	}
	return loads
}

// Load time constants in days
const (
	CTLDays = 42
	ATLDays = 7
)

// SeriesPoint is one day of a smoothed load series
type SeriesPoint struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// ema applies x_t = x_{t-1} + (load_t - x_{t-1})/n starting from 0
func ema(loads []DailyLoad, n float64) []SeriesPoint {
	out := make([]SeriesPoint, len(loads))
	var x float64
	for i, l := range loads {
		x += (l.TRIMP - x) / n
		if x < 0 {
			x = 0
		}
		out[i] = SeriesPoint{Date: l.Date, Value: x}
	}
	return out
}

// CTLSeries is the 42-day exponential average of daily load ("fitness")
func CTLSeries(loads []DailyLoad) []SeriesPoint {
	return ema(sortedLoads(loads), CTLDays)
}

// ATLSeries is the 7-day exponential average of daily load ("fatigue")
func ATLSeries(loads []DailyLoad) []SeriesPoint {
	return ema(sortedLoads(loads), ATLDays)
}

// FitnessMetrics represents CTL/ATL/TSB for a day
type FitnessMetrics struct {
	Date time.Time `json:"date"`
	CTL  float64   `json:"ctl"` // Chronic Training Load - "Fitness"
	ATL  float64   `json:"atl"` // Acute Training Load - "Fatigue"
	TSB  float64   `json:"tsb"` // Training Stress Balance (CTL - ATL) - "Form"
}

// TSBSeries combines CTL and ATL into daily form values
func TSBSeries(loads []DailyLoad) []FitnessMetrics {
	ctl := CTLSeries(loads)
	atl := ATLSeries(loads)
	out := make([]FitnessMetrics, len(ctl))
	for i := range ctl {
		out[i] = FitnessMetrics{
			Date: ctl[i].Date,
			CTL:  ctl[i].Value,
			ATL:  atl[i].Value,
			TSB:  ctl[i].Value - atl[i].Value,
		}
	}
	return out
}

func sortedLoads(loads []DailyLoad) []DailyLoad {
	out := make([]DailyLoad, len(loads))
	copy(out, loads)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out
}

// GetCurrentFitness returns the most recent CTL/ATL/TSB values
func GetCurrentFitness(loads []DailyLoad) FitnessMetrics {
	metrics := TSBSeries(loads)
	if len(metrics) == 0 {
		return FitnessMetrics{}
	}
	return metrics[len(metrics)-1]
}

// Form statuses
const (
	FormFresh    = "fresh"
	FormOptimal  = "optimal"
	FormTired    = "tired"
	FormFatigued = "fatigued"
)

// FormStatus buckets TSB
func FormStatus(tsb float64) string {
	switch {
	case tsb > 10:
		return FormFresh
	case tsb > -10:
		return FormOptimal
	case tsb > -25:
		return FormTired
	default:
		return FormFatigued
	}
}

// FormDescription returns a human-readable description of TSB
func FormDescription(tsb float64) string {
	switch {
	case tsb > 25:
		return "Very fresh (possibly detrained)"
	case tsb > 10:
		return "Fresh and ready to race"
	case tsb > 0:
		return "Neutral - good for training"
	case tsb > -10:
		return "Slightly fatigued"
	case tsb > -25:
		return "Tired but building fitness"
	default:
		return "Very fatigued - rest needed"
	}
}

// WeeklyLoad is total TRIMP for a Monday-start week
type WeeklyLoad struct {
	WeekStart time.Time `json:"weekStart"`
	TRIMP     float64   `json:"trimp"`
}

// WeeklyTRIMP sums daily load into the last n Monday-start weeks, oldest first.
// Weeks without load are included with zero.
func WeeklyTRIMP(loads []DailyLoad, now time.Time, n int) []WeeklyLoad {
	if n <= 0 {
		return nil
	}
	current := weekStart(now)
	out := make([]WeeklyLoad, n)
	for i := 0; i < n; i++ {
		out[i].WeekStart = current.AddDate(0, 0, -7*(n-1-i))
	}
	for _, l := range loads {
		ws := weekStart(l.Date)
		idx := n - 1 - int(current.Sub(ws).Hours()/(24*7)+0.5)
		if idx >= 0 && idx < n {
			out[idx].TRIMP += l.TRIMP
		}
	}
	return out
}

func weekStart(t time.Time) time.Time {
	d := dayStart(t)
	offset := (int(d.Weekday()) + 6) % 7 // Monday = 0
	return d.AddDate(0, 0, -offset)
}
