package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"racetime/internal/analysis"
	"racetime/internal/logger"
	"racetime/internal/metrics"
	"racetime/internal/store"
)

// minHistory is the fewest usable races plus activities a prediction needs
const minHistory = 2

// keepRuns is how many persisted prediction runs are retained
const keepRuns = 50

// HistorySource loads race and training history for a window of weeks; 0 means all
type HistorySource interface {
	GetPredictionData(ctx context.Context, weeksBack int) (*store.PredictionData, error)
}

// RunStore persists prediction runs
type RunStore interface {
	SavePredictionRun(ctx context.Context, run *store.PredictionRun) error
	PrunePredictionRuns(ctx context.Context, keep int) error
}

// PredictionRequest selects the history window, extra distances and race-day context
type PredictionRequest struct {
	WeeksBack       int                      `json:"weeksBack" validate:"gte=0,lte=520"`
	CustomDistances []float64                `json:"customDistances" validate:"dive,gte=800,lte=100000"`
	DaysUntilRace   *int                     `json:"daysUntilRace" validate:"omitempty,gte=0,lte=365"`
	Conditions      *analysis.RaceConditions `json:"raceConditions"`
}

// PredictionReport is the result of one generatePredictions call
type PredictionReport struct {
	RunID            string                               `json:"runId"`
	Predictions      map[string]analysis.PredictionResult `json:"predictions"`
	DataQuality      analysis.DataQuality                 `json:"dataQuality"`
	EnduranceProfile analysis.EnduranceProfile            `json:"enduranceProfile"`
	LastUpdated      time.Time                            `json:"lastUpdated"`
	DataSource       string                               `json:"dataSource"`
}

// NamedPrediction pairs a target name with its result
type NamedPrediction struct {
	Name   string
	Result analysis.PredictionResult
}

// Ordered returns the predictions sorted by distance
func (r *PredictionReport) Ordered() []NamedPrediction {
	out := make([]NamedPrediction, 0, len(r.Predictions))
	for name, p := range r.Predictions {
		out = append(out, NamedPrediction{Name: name, Result: p})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Result.DistanceMeters < out[j].Result.DistanceMeters
	})
	return out
}

// PredictionService generates race predictions from stored history
type PredictionService struct {
	history   HistorySource
	runs      RunStore
	predictor *analysis.Predictor
	log       logrus.FieldLogger
	metrics   *metrics.Recorder
	validate  *validator.Validate
	now       func() time.Time
}

// NewPredictionService creates a prediction service. runs, log and rec may be nil;
// with runs nil nothing is persisted.
func NewPredictionService(history HistorySource, runs RunStore, log logrus.FieldLogger, rec *metrics.Recorder, trace bool) *PredictionService {
	if log == nil {
		log = logger.Discard()
	}
	return &PredictionService{
		history:   history,
		runs:      runs,
		predictor: analysis.NewPredictor(log, trace),
		log:       log,
		metrics:   rec,
		validate:  validator.New(),
		now:       time.Now,
	}
}

// GeneratePredictions predicts the standard distances plus any custom ones.
// History is fetched once and shared by the per-distance computations, which
// run concurrently. Returns an *InsufficientDataError when there is too little
// history and wraps ErrFetch on storage failures.
func (s *PredictionService) GeneratePredictions(ctx context.Context, req PredictionRequest) (*PredictionReport, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	started := time.Now()

	data, err := s.history.GetPredictionData(ctx, req.WeeksBack)
	if err != nil {
		return nil, fetchError(err)
	}

	now := s.now()
	races, activities := data.RecentRaces, data.Activities
	quality := analysis.AssessDataQuality(races, activities, now)

	usable := analysis.UsableRaceCount(races)
	if usable+len(activities) < minHistory {
		s.metrics.InsufficientData()
		s.log.WithFields(logrus.Fields{"races": usable, "activities": len(activities)}).
			Info("not enough history to predict")
		return nil, &InsufficientDataError{Races: usable, Activities: len(activities), Guidance: quality.Recommendations}
	}

	profile := analysis.EstimateEndurance(races, now)
	base := analysis.PredictionInput{
		Races:          races,
		Activities:     activities,
		Profile:        profile,
		ResidualFactor: analysis.ResidualVarianceFactor(profile, races),
		DaysUntilRace:  req.DaysUntilRace,
		Conditions:     req.Conditions,
		Now:            now,
	}

	targets := resolveTargets(req.CustomDistances)
	distances := make([]float64, len(targets))
	for i, t := range targets {
		distances[i] = t.DistanceMeters
	}
	results, err := s.predictor.PredictAll(ctx, base, distances)
	if err != nil {
		return nil, err
	}

	report := &PredictionReport{
		RunID:            uuid.NewString(),
		Predictions:      make(map[string]analysis.PredictionResult, len(targets)),
		DataQuality:      quality,
		EnduranceProfile: profile,
		LastUpdated:      now,
		DataSource:       analysis.DataSource(races, activities),
	}
	methods := make([]string, len(results))
	for i, t := range targets {
		report.Predictions[t.Name] = results[i]
		methods[i] = results[i].Method
	}

	s.persist(ctx, req, report, targets, results)
	s.metrics.PredictionRun(time.Since(started), methods)
	s.log.WithFields(logrus.Fields{
		"run_id":      report.RunID,
		"targets":     len(targets),
		"data_source": report.DataSource,
		"exponent":    profile.Exponent,
	}).Debug("predictions generated")

	return report, nil
}

// persist stores the run; failures are logged and never fail the request
func (s *PredictionService) persist(ctx context.Context, req PredictionRequest, r *PredictionReport, targets []analysis.PredictionTarget, results []analysis.PredictionResult) {
	if s.runs == nil {
		return
	}
	run := &store.PredictionRun{
		ID:                r.RunID,
		ComputedAt:        r.LastUpdated,
		WeeksBack:         req.WeeksBack,
		DataSource:        r.DataSource,
		DataQualityScore:  r.DataQuality.Score,
		DataQualityLevel:  r.DataQuality.Level,
		ProfileExponent:   r.EnduranceProfile.Exponent,
		ProfileConfidence: r.EnduranceProfile.Confidence,
	}
	for i, t := range targets {
		p := results[i]
		run.Predictions = append(run.Predictions, store.RacePrediction{
			TargetName:       t.Name,
			TargetMeters:     t.DistanceMeters,
			PredictedSeconds: p.PredictedTimeSeconds,
			Confidence:       p.Confidence,
			LowerSeconds:     p.Interval.Lower,
			UpperSeconds:     p.Interval.Upper,
			Method:           p.Method,
		})
	}
	if err := s.runs.SavePredictionRun(ctx, run); err != nil {
		s.log.WithError(err).WithField("run_id", run.ID).Warn("saving prediction run failed")
		return
	}
	if err := s.runs.PrunePredictionRuns(ctx, keepRuns); err != nil {
		s.log.WithError(err).Warn("pruning prediction runs failed")
	}
}

// resolveTargets returns the standard targets plus custom distances, deduplicated by name
func resolveTargets(custom []float64) []analysis.PredictionTarget {
	targets := append([]analysis.PredictionTarget(nil), analysis.PredictionTargets...)
	seen := make(map[string]bool, len(targets))
	for _, t := range targets {
		seen[t.Name] = true
	}
	for _, m := range custom {
		t := analysis.TargetForDistance(m)
		if seen[t.Name] {
			continue
		}
		seen[t.Name] = true
		targets = append(targets, t)
	}
	return targets
}
