package analysis

import (
	"math"
	"sort"
	"time"
)

// VDOT bounds
const (
	MinVDOT = 15
	MaxVDOT = 85

	vdotWindowWeeks      = 12
	vdotHistoryWindow    = 28 // days
	minVDOTDistance      = 1500
	maxVDOTDistance      = 42200
	vdotCountForFullConf = 3
)

// vdotRaw applies the Daniels-Gilbert oxygen cost and fractional utilization equations
func vdotRaw(distanceMeters, seconds float64) (float64, bool) {
	if distanceMeters <= 0 || seconds <= 0 {
		return 0, false
	}
	minutes := seconds / 60
	v := distanceMeters / minutes // m/min
	vo2 := -4.60 + 0.182258*v + 0.000104*v*v
	frac := 0.8 + 0.1894393*math.Exp(-0.012778*minutes) + 0.2989558*math.Exp(-0.1932605*minutes)
	if frac <= 0 {
		return 0, false
	}
	vdot := vo2 / frac
	if !isFinite(vdot) {
		return 0, false
	}
	return vdot, true
}

// EstimateVDOT derives VDOT from a race effort. Returns false when the result is
// outside [15, 85], which means the input is not a plausible running effort.
func EstimateVDOT(distanceMeters, seconds float64) (float64, bool) {
	vdot, ok := vdotRaw(distanceMeters, seconds)
	if !ok || vdot < MinVDOT || vdot > MaxVDOT {
		return 0, false
	}
	return vdot, true
}

// EquivalentTime finds the time over distanceMeters that yields vdot, by bisection
func EquivalentTime(vdot, distanceMeters float64) float64 {
	if vdot <= 0 || distanceMeters <= 0 {
		return 0
	}
	lo := distanceMeters / 10  // 10 m/s
	hi := distanceMeters / 0.5 // 0.5 m/s
	for i := 0; i < 100; i++ {
		mid := (lo + hi) / 2
		v, ok := vdotRaw(distanceMeters, mid)
		if !ok {
			return 0
		}
		// VDOT falls as time grows
		if v > vdot {
			lo = mid
		} else {
			hi = mid
		}
		if hi-lo < 0.01 {
			break
		}
	}
	return (lo + hi) / 2
}

// VDOTContribution is one distance bucket's best VDOT
type VDOTContribution struct {
	Distance string  `json:"distance"`
	VDOT     float64 `json:"vdot"`
}

// VDOTEstimate is the current aerobic capacity estimate
type VDOTEstimate struct {
	Value      *float64           `json:"value"`
	Confidence float64            `json:"confidence"`
	BasedOn    []VDOTContribution `json:"basedOn"`
}

type effort struct {
	distance float64
	seconds  float64
	date     time.Time
}

func collectEfforts(races []RacePerformance, activities []TrainingActivity) []effort {
	var out []effort
	for _, r := range races {
		out = append(out, effort{r.DistanceMeters, r.TimeSeconds, r.Date})
	}
	for _, a := range activities {
		out = append(out, effort{a.DistanceMeters, a.DurationSeconds, a.Date})
	}
	return out
}

// CurrentVDOT averages the VDOT of each personal best set in the last 12 weeks,
// weighting longer efforts more (up to 2x at 10K and beyond). Bests come from
// FindPersonalBests, so only efforts matching a standard distance count.
func CurrentVDOT(races []RacePerformance, activities []TrainingActivity, now time.Time) VDOTEstimate {
	since := now.AddDate(0, 0, -7*vdotWindowWeeks)

	var pastRaces []RacePerformance
	for _, r := range races {
		if !r.Date.After(now) {
			pastRaces = append(pastRaces, r)
		}
	}
	var pastActivities []TrainingActivity
	for _, a := range activities {
		if !a.Date.After(now) {
			pastActivities = append(pastActivities, a)
		}
	}

	type bucket struct {
		vdot     float64
		distance float64
	}
	best := make(map[string]bucket)
	for _, pb := range FindPersonalBests(pastRaces, pastActivities, since) {
		if pb.DistanceMeters < minVDOTDistance || pb.DistanceMeters > maxVDOTDistance {
			continue
		}
		v, ok := EstimateVDOT(pb.DistanceMeters, pb.TimeSeconds)
		if !ok {
			continue
		}
		best[pb.Label] = bucket{vdot: v, distance: pb.DistanceMeters}
	}

	if len(best) == 0 {
		return VDOTEstimate{}
	}

	var sumW, sumWV float64
	var basedOn []VDOTContribution
	for key, b := range best {
		w := math.Min(2, b.distance/Distance5K)
		sumW += w
		sumWV += w * b.vdot
		basedOn = append(basedOn, VDOTContribution{Distance: key, VDOT: round1(b.vdot)})
	}
	sort.Slice(basedOn, func(i, j int) bool { return basedOn[i].Distance < basedOn[j].Distance })

	value := round1(sumWV / sumW)
	return VDOTEstimate{
		Value:      &value,
		Confidence: math.Min(1, float64(len(best))/vdotCountForFullConf),
		BasedOn:    basedOn,
	}
}

// VDOTPoint is the best VDOT inside one 4-week window
type VDOTPoint struct {
	Date time.Time `json:"date"`
	VDOT float64   `json:"vdot"`
}

// VDOTHistory walks back from now in 4-week windows over the given number of weeks and
// records the best VDOT in each. Windows without a valid effort are skipped. Oldest first.
func VDOTHistory(races []RacePerformance, activities []TrainingActivity, now time.Time, weeks int) []VDOTPoint {
	efforts := collectEfforts(races, activities)
	windows := (weeks*7 + vdotHistoryWindow - 1) / vdotHistoryWindow

	var out []VDOTPoint
	for i := windows - 1; i >= 0; i-- {
		end := now.AddDate(0, 0, -i*vdotHistoryWindow)
		start := end.AddDate(0, 0, -vdotHistoryWindow)
		bestV := 0.0
		for _, e := range efforts {
			if !e.date.After(start) || e.date.After(end) {
				continue
			}
			if e.distance < minVDOTDistance || e.distance > maxVDOTDistance {
				continue
			}
			if v, ok := EstimateVDOT(e.distance, e.seconds); ok && v > bestV {
				bestV = v
			}
		}
		if bestV > 0 {
			out = append(out, VDOTPoint{Date: dayStart(end), VDOT: round1(bestV)})
		}
	}
	return out
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// GetVDOTLabel returns a descriptive label for a VDOT value
func GetVDOTLabel(vdot float64) string {
	switch {
	case vdot >= 75:
		return "Elite"
	case vdot >= 65:
		return "Highly Competitive"
	case vdot >= 55:
		return "Competitive"
	case vdot >= 45:
		return "Advanced Recreational"
	case vdot >= 38:
		return "Intermediate"
	case vdot >= 30:
		return "Beginner"
	default:
		return "Novice"
	}
}
