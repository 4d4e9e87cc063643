package service

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	cache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"

	"racetime/internal/analysis"
	"racetime/internal/logger"
	"racetime/internal/metrics"
)

// Training summary windows
const (
	TSBChartDays     = 90
	VDOTHistoryWeeks = 24
	WeeklyLoadWeeks  = 12
)

// FitnessSummary is the current fitness/fatigue/form with its recent history
type FitnessSummary struct {
	CTL             float64                   `json:"ctl"`
	ATL             float64                   `json:"atl"`
	TSB             float64                   `json:"tsb"`
	TSBData         []analysis.FitnessMetrics `json:"tsbData"`
	FormStatus      string                    `json:"formStatus"`
	FormDescription string                    `json:"formDescription"`
}

// RaceEquivalent is the race time the current VDOT implies for a distance
type RaceEquivalent struct {
	Name           string  `json:"name"`
	DistanceMeters float64 `json:"distanceMeters"`
	Seconds        float64 `json:"seconds"`
}

// TrainingMetrics is the result of getTrainingMetrics
type TrainingMetrics struct {
	Fitness     FitnessSummary            `json:"fitness"`
	VDOT        analysis.VDOTEstimate     `json:"vdot"`
	VDOTHistory []analysis.VDOTPoint      `json:"vdotHistory"`
	Recovery    analysis.RecoveryEstimate `json:"recovery"`
	WeeklyTRIMP []analysis.WeeklyLoad     `json:"weeklyTRIMP"`
	Equivalents []RaceEquivalent          `json:"equivalents,omitempty"`
	ComputedAt  time.Time                 `json:"computedAt"`
}

// BuildTrainingMetrics computes the full training summary from history
func BuildTrainingMetrics(races []analysis.RacePerformance, activities []analysis.TrainingActivity, s analysis.AthleteSettings, now time.Time) *TrainingMetrics {
	loads := analysis.DailyLoads(activities, s, now)
	series := analysis.TSBSeries(loads)

	m := &TrainingMetrics{
		VDOT:        analysis.CurrentVDOT(races, activities, now),
		VDOTHistory: analysis.VDOTHistory(races, activities, now, VDOTHistoryWeeks),
		WeeklyTRIMP: analysis.WeeklyTRIMP(loads, now, WeeklyLoadWeeks),
		ComputedAt:  now,
	}

	var current analysis.FitnessMetrics
	if len(series) > 0 {
		current = series[len(series)-1]
	}
	tail := series
	if len(tail) > TSBChartDays {
		tail = tail[len(tail)-TSBChartDays:]
	}
	m.Fitness = FitnessSummary{
		CTL:             current.CTL,
		ATL:             current.ATL,
		TSB:             current.TSB,
		TSBData:         tail,
		FormStatus:      analysis.FormStatus(current.TSB),
		FormDescription: analysis.FormDescription(current.TSB),
	}

	if last, ok := analysis.LastSession(activities, now); ok {
		at := last.Date
		m.Recovery = analysis.EstimateRecovery(analysis.TRIMP(last, s), current.CTL, &at, now)
	} else {
		m.Recovery = analysis.EstimateRecovery(0, current.CTL, nil, now)
	}

	if m.VDOT.Value != nil {
		for _, t := range analysis.PredictionTargets {
			m.Equivalents = append(m.Equivalents, RaceEquivalent{
				Name:           t.Name,
				DistanceMeters: t.DistanceMeters,
				Seconds:        analysis.EquivalentTime(*m.VDOT.Value, t.DistanceMeters),
			})
		}
	}
	return m
}

// TrainingService serves training-load metrics through a TTL cache that is
// flushed whenever the athlete settings change
type TrainingService struct {
	history  HistorySource
	cache    *cache.Cache
	log      logrus.FieldLogger
	metrics  *metrics.Recorder
	validate *validator.Validate
	now      func() time.Time

	mu       sync.RWMutex
	settings analysis.AthleteSettings
}

// NewTrainingService creates a training service caching results for ttl
func NewTrainingService(history HistorySource, settings analysis.AthleteSettings, ttl time.Duration, log logrus.FieldLogger, rec *metrics.Recorder) *TrainingService {
	if log == nil {
		log = logger.Discard()
	}
	return &TrainingService{
		history:  history,
		cache:    cache.New(ttl, 2*ttl),
		log:      log,
		metrics:  rec,
		validate: validator.New(),
		now:      time.Now,
		settings: settings,
	}
}

// Settings returns the athlete settings in use
func (s *TrainingService) Settings() analysis.AthleteSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// UpdateSettings validates and applies new athlete settings and drops cached results
func (s *TrainingService) UpdateSettings(settings analysis.AthleteSettings) error {
	if err := s.validate.Struct(settings); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	s.mu.Lock()
	s.settings = settings
	s.mu.Unlock()

	s.cache.Flush()
	s.log.WithFields(logrus.Fields{
		"resting_hr": settings.RestingHR,
		"max_hr":     settings.MaxHR,
		"gender":     settings.Gender,
	}).Info("athlete settings updated, training cache flushed")
	return nil
}

// Invalidate drops cached results, e.g. after new activities are synced
func (s *TrainingService) Invalidate() {
	s.cache.Flush()
}

// GetTrainingMetrics returns the training summary over the whole history.
// Concurrent misses may both recompute; the results are identical.
func (s *TrainingService) GetTrainingMetrics(ctx context.Context) (*TrainingMetrics, error) {
	settings := s.Settings()
	key := fmt.Sprintf("training:%g:%g:%s", settings.RestingHR, settings.MaxHR, settings.Gender)

	if v, ok := s.cache.Get(key); ok {
		s.metrics.CacheHit()
		s.log.WithField("key", key).Debug("training metrics cache hit")
		return v.(*TrainingMetrics).clone(), nil
	}
	s.metrics.CacheMiss()
	s.log.WithField("key", key).Debug("training metrics cache miss")

	data, err := s.history.GetPredictionData(ctx, 0)
	if err != nil {
		return nil, fetchError(err)
	}

	m := BuildTrainingMetrics(data.RecentRaces, data.Activities, settings, s.now())
	s.cache.Set(key, m, cache.DefaultExpiration)
	return m.clone(), nil
}

// clone copies the slices and pointers so callers never share the cached value
func (m *TrainingMetrics) clone() *TrainingMetrics {
	c := *m
	c.Fitness.TSBData = slices.Clone(m.Fitness.TSBData)
	c.VDOT.BasedOn = slices.Clone(m.VDOT.BasedOn)
	c.VDOT.Value = clonePtr(m.VDOT.Value)
	c.VDOTHistory = slices.Clone(m.VDOTHistory)
	c.Recovery.HoursRemaining = clonePtr(m.Recovery.HoursRemaining)
	c.WeeklyTRIMP = slices.Clone(m.WeeklyTRIMP)
	c.Equivalents = slices.Clone(m.Equivalents)
	return &c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
