package analysis

import (
	"math"
	"sort"
	"time"
)

// Standard race distances in meters
const (
	Distance1500m     = 1500
	Distance1Mile     = 1609.34
	Distance3K        = 3000
	Distance5K        = 5000
	Distance10K       = 10000
	Distance15K       = 15000
	DistanceHalfMara  = 21097.5
	DistanceMarathon  = 42195
	DistanceTolerance = 0.05 // 5% tolerance for matching an activity to a category
)

// DistanceCategory is a named standard distance
type DistanceCategory struct {
	Key    string
	Label  string
	Meters float64
}

// DistanceCategories lists the tracked personal-best distances, shortest first
var DistanceCategories = []DistanceCategory{
	{"1500m", "1500m", Distance1500m},
	{"mile", "1 Mile", Distance1Mile},
	{"3k", "3K", Distance3K},
	{"5k", "5K", Distance5K},
	{"10k", "10K", Distance10K},
	{"15k", "15K", Distance15K},
	{"half", "Half Marathon", DistanceHalfMara},
	{"marathon", "Marathon", DistanceMarathon},
}

// matchesDistance checks if actual is within DistanceTolerance of target
func matchesDistance(actual, target float64) bool {
	if target <= 0 {
		return false
	}
	return math.Abs(actual-target)/target <= DistanceTolerance
}

// MatchCategory returns the category whose distance is within tolerance of meters
func MatchCategory(meters float64) (DistanceCategory, bool) {
	for _, c := range DistanceCategories {
		if matchesDistance(meters, c.Meters) {
			return c, true
		}
	}
	return DistanceCategory{}, false
}

// NearestCategory returns the category closest to meters in log-distance
func NearestCategory(meters float64) DistanceCategory {
	best := DistanceCategories[0]
	bestDiff := math.Inf(1)
	for _, c := range DistanceCategories {
		d := math.Abs(math.Log(meters / c.Meters))
		if d < bestDiff {
			best, bestDiff = c, d
		}
	}
	return best
}

// PersonalBest is the fastest known time for one distance category
type PersonalBest struct {
	Label          string    `json:"distanceLabel"`
	DistanceMeters float64   `json:"distanceMeters"`
	TimeSeconds    float64   `json:"time"`
	Date           time.Time `json:"date"`
	FromRace       bool      `json:"fromRace"`
}

// FindPersonalBests picks the fastest effort per category from races and whole activities
// dated on or after since. Efforts that are within tolerance of a category but not exact
// are scaled to the category distance with a 1.06 power law.
func FindPersonalBests(races []RacePerformance, activities []TrainingActivity, since time.Time) []PersonalBest {
	best := make(map[string]PersonalBest)

	consider := func(meters, seconds float64, date time.Time, fromRace bool) {
		if meters <= 0 || seconds <= 0 || date.Before(since) {
			return
		}
		cat, ok := MatchCategory(meters)
		if !ok {
			return
		}
		scaled := seconds * math.Pow(cat.Meters/meters, 1.06)
		cur, exists := best[cat.Key]
		if !exists || scaled < cur.TimeSeconds {
			best[cat.Key] = PersonalBest{
				Label:          cat.Label,
				DistanceMeters: cat.Meters,
				TimeSeconds:    scaled,
				Date:           date,
				FromRace:       fromRace,
			}
		}
	}

	for _, r := range races {
		consider(r.DistanceMeters, r.TimeSeconds, r.Date, true)
	}
	for _, a := range activities {
		consider(a.DistanceMeters, a.DurationSeconds, a.Date, false)
	}

	var out []PersonalBest
	for _, c := range DistanceCategories {
		if pb, ok := best[c.Key]; ok {
			out = append(out, pb)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DistanceMeters < out[j].DistanceMeters
	})
	return out
}

// CalculatePacePerKm returns pace in seconds per kilometer
func CalculatePacePerKm(distanceMeters, durationSeconds float64) float64 {
	if distanceMeters <= 0 {
		return 0
	}
	return durationSeconds / (distanceMeters / 1000)
}

// CalculatePacePerMile returns pace in seconds per mile
func CalculatePacePerMile(distanceMeters, durationSeconds float64) float64 {
	if distanceMeters <= 0 {
		return 0
	}
	return durationSeconds / (distanceMeters / Distance1Mile)
}
