package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"racetime/internal/analysis"
	"racetime/internal/service"
	"racetime/internal/store"
)

var predictFlags struct {
	weeks          int
	distances      []string
	daysUntil      int
	temperature    float64
	wind           float64
	elevation      float64
	altitude       float64
	optimalTaper   bool
	optimalWeather bool
	flatCourse     bool
	asJSON         bool
	last           bool
	trace          bool
}

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Predict race times from your races and training",
	Example: `  racetime predict
  racetime predict --distance 15k --distance 30k
  racetime predict --days-until 10 --temperature 24 --elevation 150`,
	Args: cobra.NoArgs,
	RunE: runPredict,
}

// race-day conditions only adjust a prediction for a scheduled race
var errConditionsNeedDate = errors.New("race-day conditions need --days-until")

func init() {
	addPredictFlags(predictCmd)
	rootCmd.AddCommand(predictCmd)
}

func addPredictFlags(c *cobra.Command) {
	f := c.Flags()
	f.IntVarP(&predictFlags.weeks, "weeks", "w", 0, "history window in weeks (default from config)")
	f.StringSliceVarP(&predictFlags.distances, "distance", "d", nil, "extra distance to predict, e.g. 15k, 10mi, 30000 (repeatable)")
	f.IntVar(&predictFlags.daysUntil, "days-until", 0, "days until race day, enables the taper and race-day conditions")
	f.Float64Var(&predictFlags.temperature, "temperature", 0, "race-day temperature in °C")
	f.Float64Var(&predictFlags.wind, "wind", 0, "race-day wind speed in km/h")
	f.Float64Var(&predictFlags.elevation, "elevation", 0, "total course elevation gain in meters")
	f.Float64Var(&predictFlags.altitude, "altitude", 0, "race altitude in meters above sea level")
	f.BoolVar(&predictFlags.optimalTaper, "optimal-taper", false, "assume a well executed taper")
	f.BoolVar(&predictFlags.optimalWeather, "optimal-weather", false, "assume ideal weather")
	f.BoolVar(&predictFlags.flatCourse, "flat", false, "flat, fast course")
	f.BoolVar(&predictFlags.asJSON, "json", false, "print the report as JSON")
	f.BoolVar(&predictFlags.trace, "trace", false, "log every model contribution and adjustment")
	f.BoolVar(&predictFlags.last, "last", false, "show the last stored prediction run instead of computing a new one")
}

// buildPredictionRequest overlays the flags that were set on the config defaults
func buildPredictionRequest(cmd *cobra.Command, defaults service.PredictionRequest) (service.PredictionRequest, error) {
	req := defaults
	flags := cmd.Flags()

	if flags.Changed("weeks") {
		req.WeeksBack = predictFlags.weeks
	}
	for _, d := range predictFlags.distances {
		m, err := parseDistance(d)
		if err != nil {
			return req, err
		}
		req.CustomDistances = append(req.CustomDistances, m)
	}
	if flags.Changed("days-until") {
		days := predictFlags.daysUntil
		req.DaysUntilRace = &days
	}

	var c analysis.RaceConditions
	set := false
	for _, f := range []struct {
		name string
		val  float64
		dst  **float64
	}{
		{"temperature", predictFlags.temperature, &c.Temperature},
		{"wind", predictFlags.wind, &c.WindSpeed},
		{"elevation", predictFlags.elevation, &c.Elevation},
		{"altitude", predictFlags.altitude, &c.Altitude},
	} {
		if flags.Changed(f.name) {
			v := f.val
			*f.dst = &v
			set = true
		}
	}
	if predictFlags.optimalTaper || predictFlags.optimalWeather || predictFlags.flatCourse {
		c.OptimalTaper = predictFlags.optimalTaper
		c.OptimalWeather = predictFlags.optimalWeather
		c.FlatCourse = predictFlags.flatCourse
		set = true
	}
	if set {
		if req.DaysUntilRace == nil {
			return req, errConditionsNeedDate
		}
		req.Conditions = &c
	}
	return req, nil
}

func runPredict(cmd *cobra.Command, args []string) error {
	env, err := newEnv(false)
	if err != nil {
		return err
	}
	defer env.Close()

	if predictFlags.last {
		return showLastRun(cmd, env)
	}
	if predictFlags.trace {
		env.cfg.Prediction.Trace = true
		env.log.SetLevel(logrus.DebugLevel)
	}

	req, err := buildPredictionRequest(cmd, env.defaultRequest())
	if err != nil {
		return err
	}

	report, err := env.predictionService().GeneratePredictions(cmd.Context(), req)
	var ide *service.InsufficientDataError
	if errors.As(err, &ide) {
		printWarning("Not enough history to predict yet (%d races, %d runs).", ide.Races, ide.Activities)
		for _, g := range ide.Guidance {
			fmt.Println("  • " + g)
		}
		return err
	}
	if err != nil {
		return err
	}

	if predictFlags.asJSON {
		return printJSON(report)
	}
	printReport(report, env.cfg.Display.PaceUnit == "min/mi")
	return nil
}

func printReport(r *service.PredictionReport, miles bool) {
	printBoxedHeader("RACE PREDICTIONS")
	q := r.DataQuality
	printMetric("Based on", r.DataSource)
	printMetric("Data quality", fmt.Sprintf("%s (%.0f%%)", q.Level, q.Score*100))
	printMetric("Fatigue exponent", fmt.Sprintf("%.3f (%d races)", r.EnduranceProfile.Exponent, r.EnduranceProfile.BaseRaceCount))
	fmt.Println()

	fmt.Println(headerColor.Sprintf("  %-15s %9s %10s  %-19s %5s  %s", "Distance", "Time", "Pace", "80% range", "Conf", "Method"))
	for _, p := range r.Ordered() {
		res := p.Result
		conf := confidenceColor(res.Confidence).Sprintf("%4.0f%%", res.Confidence*100)
		fmt.Printf("  %-15s %9s %10s  %-19s %s  %s\n",
			analysis.GetTargetLabel(p.Name),
			formatRaceTime(res.PredictedTimeSeconds),
			formatPace(res.PredictedTimeSeconds, res.DistanceMeters, miles),
			formatRaceTime(res.Interval.Percentile80Lower)+" - "+formatRaceTime(res.Interval.Percentile80Upper),
			conf,
			mutedColor.Sprint(strings.ReplaceAll(res.Method, "_", " ")),
		)
	}

	if len(q.Recommendations) > 0 {
		fmt.Println()
		fmt.Println(labelColor.Sprint("  To improve these predictions:"))
		for _, rec := range q.Recommendations {
			fmt.Println(mutedColor.Sprint("  • " + rec))
		}
	}
	fmt.Println()
	fmt.Println(mutedColor.Sprintf("  run %s", r.RunID))
}

func showLastRun(cmd *cobra.Command, env *env) error {
	run, err := env.db.GetLatestPredictionRun(cmd.Context())
	if errors.Is(err, store.ErrPredictionNotFound) {
		printWarning("No stored predictions yet. Run `racetime predict` first.")
		return nil
	}
	if err != nil {
		return err
	}
	if predictFlags.asJSON {
		return printJSON(run)
	}

	miles := env.cfg.Display.PaceUnit == "min/mi"
	printBoxedHeader("LAST PREDICTIONS")
	printMetric("Computed", humanize.Time(run.ComputedAt))
	printMetric("Based on", run.DataSource)
	printMetric("Data quality", fmt.Sprintf("%s (%.0f%%)", run.DataQualityLevel, run.DataQualityScore*100))
	fmt.Println()

	fmt.Println(headerColor.Sprintf("  %-15s %9s %10s  %-19s %5s", "Distance", "Time", "Pace", "Range", "Conf"))
	for _, p := range run.Predictions {
		fmt.Printf("  %-15s %9s %10s  %-19s %s\n",
			analysis.GetTargetLabel(p.TargetName),
			formatRaceTime(p.PredictedSeconds),
			formatPace(p.PredictedSeconds, p.TargetMeters, miles),
			formatRaceTime(p.LowerSeconds)+" - "+formatRaceTime(p.UpperSeconds),
			confidenceColor(p.Confidence).Sprintf("%4.0f%%", p.Confidence*100),
		)
	}
	return nil
}
