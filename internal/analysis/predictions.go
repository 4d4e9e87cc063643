package analysis

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"runtime"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// PredictionTarget represents a target distance for predictions
type PredictionTarget struct {
	Name           string // "5k", "10k", "half", "marathon" or a custom "12.5k"
	DistanceMeters float64
}

// PredictionTargets defines the standard prediction distances
var PredictionTargets = []PredictionTarget{
	{"5k", Distance5K},
	{"10k", Distance10K},
	{"half", DistanceHalfMara},
	{"marathon", DistanceMarathon},
}

// TargetForDistance returns the standard target for meters, or a custom one named in km
func TargetForDistance(meters float64) PredictionTarget {
	for _, t := range PredictionTargets {
		if math.Abs(meters-t.DistanceMeters)/t.DistanceMeters <= plausibilityMatchTolerance {
			return t
		}
	}
	return PredictionTarget{
		Name:           strconv.FormatFloat(meters/1000, 'f', -1, 64) + "k",
		DistanceMeters: meters,
	}
}

// GetTargetLabel returns a human-readable label for a target name
func GetTargetLabel(targetName string) string {
	labels := map[string]string{
		"5k":       "5K",
		"10k":      "10K",
		"half":     "Half Marathon",
		"marathon": "Marathon",
	}
	if label, ok := labels[targetName]; ok {
		return label
	}
	return targetName
}

// Prediction guards
const (
	MaxPredictionSeconds = 36000 // 10h
	maxLogBase           = 15

	weightPowerLawAll      = 0.4
	weightRacesAll         = 0.4
	weightCriticalSpeedAll = 0.2
	weightPowerLawPair     = 0.3
	weightRacesPair        = 0.7
)

var errNumericInstability = errors.New("numeric instability")

// PredictionInput is everything needed to predict one distance
type PredictionInput struct {
	TargetDistance float64
	Races          []RacePerformance
	Activities     []TrainingActivity
	Profile        EnduranceProfile
	// ResidualFactor is the backtest interval multiplier; 0 means compute it from Races
	ResidualFactor float64
	DaysUntilRace  *int
	Conditions     *RaceConditions
	Now            time.Time
}

// Predictor runs the fallback ladder: multi-model, then power law, then pace table
type Predictor struct {
	log   logrus.FieldLogger
	trace bool
}

// NewPredictor creates a predictor. When trace is set every model contribution
// and adjustment is logged at debug level.
func NewPredictor(log logrus.FieldLogger, trace bool) *Predictor {
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	return &Predictor{log: log, trace: trace}
}

// Predict produces a prediction for one distance. It never fails: numeric problems
// drop down the fallback ladder and are logged.
func (p *Predictor) Predict(in PredictionInput) PredictionResult {
	target := in.TargetDistance
	log := p.log.WithField("distance", target)

	if target <= 0 || !isFinite(target) {
		log.WithField("stage", "input").Warn("invalid target distance, using pace table")
		return PaceTableResult(target)
	}

	logBase := in.Profile.PowerLawLog(target)
	if !isFinite(logBase) || logBase > maxLogBase || math.Exp(logBase) > MaxPredictionSeconds {
		log.WithFields(logrus.Fields{
			"stage":  "power_law",
			"reason": fmt.Sprintf("log base %v out of range", logBase),
		}).Warn("using pace table")
		return PaceTableResult(target)
	}

	residual := in.ResidualFactor
	if residual <= 0 {
		residual = ResidualVarianceFactor(in.Profile, in.Races)
	}

	result, err := p.multiModel(in, logBase, residual)
	if err == nil {
		return result
	}
	log.WithFields(logrus.Fields{"stage": MethodMultiModel, "reason": err.Error()}).
		Warn("multi-model prediction failed, falling back to power law")

	result, err = powerLawOnly(target, logBase, residual)
	if err == nil {
		return result
	}
	log.WithFields(logrus.Fields{"stage": MethodPowerLaw, "reason": err.Error()}).
		Warn("power-law prediction failed, using pace table")
	return PaceTableResult(target)
}

func (p *Predictor) multiModel(in PredictionInput, logBase, residual float64) (PredictionResult, error) {
	target := in.TargetDistance
	models := ContributingModels{PowerLaw: math.Exp(logBase)}

	ext, hasRaces := ExtrapolateFromRaces(target, in.Races, in.Profile.Exponent, in.Now)
	if hasRaces {
		v := ext.Seconds()
		models.WeightedRaces = &v
	}
	csTime, hasCS := criticalSpeedTime(in.Profile, target)
	if hasCS {
		models.CriticalSpeed = &csTime
	}

	var combined float64
	switch {
	case hasRaces && hasCS:
		combined = weightPowerLawAll*logBase + weightRacesAll*ext.LogTime + weightCriticalSpeedAll*math.Log(csTime)
	case hasRaces:
		combined = weightPowerLawPair*logBase + weightRacesPair*ext.LogTime
	default:
		combined = logBase
	}

	features := ExtractFeatures(target, in.Races, in.Activities, in.Now)
	featureAdj, factors := FeatureAdjustment(target, features)
	combined += featureAdj

	// Race-day adjustments only apply to a scheduled race.
	var taperAdj, condAdj float64
	if in.DaysUntilRace != nil {
		optimal := in.Conditions != nil && in.Conditions.OptimalTaper
		taperAdj = TaperAdjustment(*in.DaysUntilRace, TrainingConsistency(in.Activities, in.Now), optimal)
		combined += taperAdj
		if taperAdj < 0 {
			factors = append(factors, Factor{Name: "taper", Impact: ImpactPositive, Strength: -taperAdj})
		}
		if in.Conditions != nil {
			condAdj = ConditionsAdjustment(target, *in.Conditions)
			combined += condAdj
			_, condFactors := conditionTerms(target, *in.Conditions)
			factors = append(factors, condFactors...)
		}
	}

	final := math.Exp(combined)
	if p.trace {
		fields := logrus.Fields{
			"distance":   target,
			"power_law":  models.PowerLaw,
			"features":   featureAdj,
			"taper":      taperAdj,
			"conditions": condAdj,
			"final":      final,
		}
		if models.WeightedRaces != nil {
			fields["weighted_races"] = *models.WeightedRaces
			fields["races_used"] = ext.RacesUsed
		}
		if models.CriticalSpeed != nil {
			fields["critical_speed"] = *models.CriticalSpeed
		}
		p.log.WithFields(fields).Debug("prediction breakdown")
	}

	if !isFinite(final) || final <= 0 || final > MaxPredictionSeconds {
		return PredictionResult{}, fmt.Errorf("%w: combined estimate %v", errNumericInstability, final)
	}

	confidence := EstimateConfidence(ConfidenceInput{
		Target:            target,
		Races:             in.Races,
		ModelOutputs:      models.Outputs(),
		VolumeConsistency: features.VolumeConsistency,
		Now:               in.Now,
	})

	return PredictionResult{
		DistanceMeters:       target,
		PredictedTimeSeconds: final,
		Confidence:           confidence,
		Interval:             BuildInterval(final, target, confidence, residual),
		Models:               models,
		Factors:              factors,
		Method:               MethodMultiModel,
	}, nil
}

// powerLawOnly is the second rung of the ladder
func powerLawOnly(target, logBase, residual float64) (PredictionResult, error) {
	t := math.Exp(logBase)
	if !isFinite(t) || t <= 0 || t > MaxPredictionSeconds {
		return PredictionResult{}, fmt.Errorf("%w: power law %v", errNumericInstability, t)
	}
	return PredictionResult{
		DistanceMeters:       target,
		PredictedTimeSeconds: t,
		Confidence:           FallbackConfidence,
		Interval:             BuildInterval(t, target, FallbackConfidence, residual),
		Models:               ContributingModels{PowerLaw: t},
		Method:               MethodPowerLaw,
	}, nil
}

// PredictAll predicts every target concurrently and enforces cross-distance
// plausibility on the results, which are in target order.
func (p *Predictor) PredictAll(ctx context.Context, base PredictionInput, targets []float64) ([]PredictionResult, error) {
	if base.ResidualFactor <= 0 {
		base.ResidualFactor = ResidualVarianceFactor(base.Profile, base.Races)
	}
	results := make([]PredictionResult, len(targets))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, t := range targets {
		i, t := i, t
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			in := base
			in.TargetDistance = t
			results[i] = p.Predict(in)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return EnforcePlausibility(results), nil
}
