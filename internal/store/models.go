package store

import (
	"time"

	"racetime/internal/analysis"
)

// Activity sources
const (
	SourceStrava = "strava"
	SourceFIT    = "fit"
	SourceManual = "manual"
)

// StravaWorkoutRace is Strava's workout_type for a run marked as a race
const StravaWorkoutRace = 1

// Auth represents OAuth tokens for Strava API access
type Auth struct {
	AthleteID    int64
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// Activity is a stored training session
type Activity struct {
	ID                 int64
	Source             string
	SourceID           string
	Name               string
	Type               string
	StartDate          time.Time
	Distance           float64 // meters
	MovingTime         int     // seconds
	ElapsedTime        int     // seconds
	TotalElevationGain float64
	AverageHeartrate   *float64 // nullable
	MaxHeartrate       *float64 // nullable
	WorkoutType        *int     // Strava: 1 = race
}

// IsRun reports whether the activity counts as running
func (a Activity) IsRun() bool {
	switch a.Type {
	case "Run", "TrailRun", "VirtualRun":
		return true
	}
	return false
}

// IsRace reports whether the activity was flagged as a race
func (a Activity) IsRace() bool {
	return a.WorkoutType != nil && *a.WorkoutType == StravaWorkoutRace
}

// TrainingActivity normalizes the row for the modeling core
func (a Activity) TrainingActivity() analysis.TrainingActivity {
	duration := a.MovingTime
	if duration <= 0 {
		duration = a.ElapsedTime
	}
	return analysis.TrainingActivity{
		Date:             a.StartDate,
		DistanceMeters:   a.Distance,
		DurationSeconds:  float64(duration),
		AverageHeartRate: a.AverageHeartrate,
	}
}

// Race is a recorded race result
type Race struct {
	ID             int64
	ActivityID     *int64
	Name           string
	DistanceMeters float64
	TimeSeconds    float64
	Date           time.Time
	Tags           []string
}

// Performance normalizes the row for the modeling core
func (r Race) Performance() analysis.RacePerformance {
	return analysis.RacePerformance{
		DistanceMeters: r.DistanceMeters,
		TimeSeconds:    r.TimeSeconds,
		Date:           r.Date,
		Name:           r.Name,
		Tags:           r.Tags,
	}
}

// PredictionRun is a persisted generatePredictions result
type PredictionRun struct {
	ID                string
	ComputedAt        time.Time
	WeeksBack         int
	DataSource        string
	DataQualityScore  float64
	DataQualityLevel  string
	ProfileExponent   float64
	ProfileConfidence float64
	Predictions       []RacePrediction
}

// RacePrediction is one distance of a persisted run
type RacePrediction struct {
	TargetName       string
	TargetMeters     float64
	PredictedSeconds float64
	Confidence       float64
	LowerSeconds     float64
	UpperSeconds     float64
	Method           string
}

// PredictionData is the history the prediction engine works from
type PredictionData struct {
	RecentRaces []analysis.RacePerformance
	Activities  []analysis.TrainingActivity
	// RaceToTrainingRatio is passed through when supplied by the caller; this store never derives it
	RaceToTrainingRatio *float64
}
