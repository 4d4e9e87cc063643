package cmd

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var metricsJSON bool

var metricsCmd = &cobra.Command{
	Use:     "metrics",
	Aliases: []string{"training"},
	Short:   "Show fitness, fatigue, form, VDOT and recovery",
	Args:    cobra.NoArgs,
	RunE:    runMetrics,
}

func init() {
	metricsCmd.Flags().BoolVar(&metricsJSON, "json", false, "print the metrics as JSON")
	rootCmd.AddCommand(metricsCmd)
}

func runMetrics(cmd *cobra.Command, args []string) error {
	env, err := newEnv(false)
	if err != nil {
		return err
	}
	defer env.Close()

	m, err := env.trainingService().GetTrainingMetrics(cmd.Context())
	if err != nil {
		return err
	}
	if metricsJSON {
		return printJSON(m)
	}

	miles := env.cfg.Display.PaceUnit == "min/mi"
	f := m.Fitness

	printBoxedHeader("TRAINING LOAD")
	printMetric("Fitness (CTL)", fmt.Sprintf("%.1f", f.CTL))
	printMetric("Fatigue (ATL)", fmt.Sprintf("%.1f", f.ATL))
	printMetric("Form (TSB)", fmt.Sprintf("%+.1f  %s", f.TSB, f.FormStatus))
	fmt.Println(mutedColor.Sprint("  " + f.FormDescription))
	fmt.Println()

	if m.VDOT.Value != nil {
		printMetric("VDOT", fmt.Sprintf("%.1f (confidence %.0f%%)", *m.VDOT.Value, m.VDOT.Confidence*100))
	} else {
		printMetric("VDOT", "not enough quality efforts")
	}
	rec := fmt.Sprintf("%s, %dh", m.Recovery.Level, m.Recovery.Hours)
	if m.Recovery.HoursRemaining != nil {
		rec += fmt.Sprintf(" (%.0fh left)", *m.Recovery.HoursRemaining)
	}
	printMetric("Recovery", rec)

	if len(m.Equivalents) > 0 {
		fmt.Println()
		fmt.Println(headerColor.Sprintf("  %-15s %9s %10s", "Equivalent", "Time", "Pace"))
		for _, e := range m.Equivalents {
			fmt.Printf("  %-15s %9s %10s\n", e.Name, formatRaceTime(e.Seconds), formatPace(e.Seconds, e.DistanceMeters, miles))
		}
	}

	if n := len(m.WeeklyTRIMP); n > 0 {
		fmt.Println()
		last := m.WeeklyTRIMP[n-1]
		printMetric("This week", fmt.Sprintf("%.0f TRIMP (since %s)", last.TRIMP, humanize.Time(last.WeekStart)))
	}
	return nil
}
