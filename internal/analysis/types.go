package analysis

import "time"

// RacePerformance is a historical race result. Quality is derived, never stored.
type RacePerformance struct {
	DistanceMeters float64
	TimeSeconds    float64
	Date           time.Time
	Name           string
	Tags           []string
}

// PaceSecondsPerKm returns the implied pace, or +Inf for a zero distance
func (r RacePerformance) PaceSecondsPerKm() float64 {
	if r.DistanceMeters <= 0 {
		return posInf
	}
	return r.TimeSeconds / (r.DistanceMeters / 1000)
}

// TrainingActivity is a single recorded training session
type TrainingActivity struct {
	Date             time.Time
	DistanceMeters   float64
	DurationSeconds  float64
	AverageHeartRate *float64
}

// HasHeartRate reports whether the activity carries a usable average HR
func (a TrainingActivity) HasHeartRate() bool {
	return a.AverageHeartRate != nil && *a.AverageHeartRate > 0
}

// EnduranceProfile is the personalized power-law and critical-speed fit.
// Recomputed from the full history on every request.
type EnduranceProfile struct {
	Alpha             float64  `json:"alpha"`
	Exponent          float64  `json:"exponent"`
	CriticalSpeed     *float64 `json:"criticalSpeed"`     // m/s
	AnaerobicCapacity *float64 `json:"anaerobicCapacity"` // D' in meters
	Confidence        float64  `json:"confidence"`
	BaseRaceCount     int      `json:"baseRaceCount"`
}

// PredictionInterval is the asymmetric uncertainty band around a prediction
type PredictionInterval struct {
	Lower             float64 `json:"lower"`
	Upper             float64 `json:"upper"`
	Margin            float64 `json:"margin"`
	Percentile80Lower float64 `json:"percentile80Lower"`
	Percentile80Upper float64 `json:"percentile80Upper"`
}

// ContributingModels holds each sub-model's raw time estimate in seconds
type ContributingModels struct {
	PowerLaw      float64  `json:"powerLaw"`
	CriticalSpeed *float64 `json:"criticalSpeed,omitempty"`
	WeightedRaces *float64 `json:"weightedRaces,omitempty"`
}

// Outputs returns the estimates that are present
func (m ContributingModels) Outputs() []float64 {
	var out []float64
	if m.PowerLaw > 0 {
		out = append(out, m.PowerLaw)
	}
	if m.WeightedRaces != nil {
		out = append(out, *m.WeightedRaces)
	}
	if m.CriticalSpeed != nil {
		out = append(out, *m.CriticalSpeed)
	}
	return out
}

// Factor impact directions
const (
	ImpactPositive = "+" // makes the runner faster
	ImpactNegative = "-" // makes the runner slower
)

// Factor explains one adjustment applied to a prediction
type Factor struct {
	Name     string  `json:"name"`
	Impact   string  `json:"impact"`
	Strength float64 `json:"strength"`
}

// Prediction methods, in fallback-ladder order
const (
	MethodMultiModel = "multi_model"
	MethodPowerLaw   = "power_law"
	MethodPaceTable  = "pace_table"
)

// PredictionResult is the final prediction for one target distance
type PredictionResult struct {
	DistanceMeters       float64            `json:"distanceMeters"`
	PredictedTimeSeconds float64            `json:"predictedTimeSeconds"`
	Confidence           float64            `json:"confidence"`
	Interval             PredictionInterval `json:"interval"`
	Models               ContributingModels `json:"contributingModels"`
	Factors              []Factor           `json:"factors"`
	Method               string             `json:"method"`
}

// PaceSecondsPerKm returns the predicted pace
func (p PredictionResult) PaceSecondsPerKm() float64 {
	if p.DistanceMeters <= 0 {
		return 0
	}
	return p.PredictedTimeSeconds / (p.DistanceMeters / 1000)
}

// RaceConditions describes the expected race-day environment.
// Nil pointers mean "not specified".
type RaceConditions struct {
	Temperature    *float64 `json:"temperature,omitempty" validate:"omitempty,gte=-30,lte=50"` // °C
	WindSpeed      *float64 `json:"windSpeed,omitempty" validate:"omitempty,gte=0,lte=150"`    // km/h
	Elevation      *float64 `json:"elevation,omitempty" validate:"omitempty,gte=0,lte=10000"`  // total gain in meters
	Altitude       *float64 `json:"altitude,omitempty" validate:"omitempty,gte=-500,lte=5500"` // meters above sea level
	OptimalTaper   bool     `json:"optimalTaper,omitempty"`
	OptimalWeather bool     `json:"optimalWeather,omitempty"`
	FlatCourse     bool     `json:"flatCourse,omitempty"`
}

// AthleteSettings are the inputs to heart-rate based load
type AthleteSettings struct {
	RestingHR float64 `json:"restingHR" validate:"gte=30,lte=100"`
	MaxHR     float64 `json:"maxHR" validate:"gte=120,lte=230,gtfield=RestingHR"`
	Gender    string  `json:"gender" validate:"oneof=male female"` // "male" or "female"
}

// Genders
const (
	GenderMale   = "male"
	GenderFemale = "female"
)
