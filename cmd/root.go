// Package cmd implements the racetime command line.
package cmd

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"racetime/internal/config"
	"racetime/internal/store"
	"racetime/internal/tui"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "racetime",
	Short: "Race time predictions and training load from your running history",
	Long: `racetime predicts 5K, 10K, half marathon and marathon times from your
races and training, and tracks fitness, fatigue and form from heart rate.

Run without a subcommand to open the interactive dashboard.`,
	SilenceUsage: true,
	RunE:         runTUI,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"config file (default $RACETIME_CONFIG or ~/.racetime/config.yaml)")
}

// Execute runs the root command; ctx is cancelled on interrupt
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func runTUI(cmd *cobra.Command, args []string) error {
	env, err := newEnv(true)
	if err != nil {
		return err
	}
	defer env.Close()

	deps := tui.Deps{
		Predictions: env.predictionService(),
		Training:    env.trainingService(),
		Records:     env.db,
		Request:     env.defaultRequest(),
		Units:       tui.NewUnits(env.cfg.Display),
	}

	client, err := env.stravaClient(cmd.Context())
	switch {
	case errors.Is(err, store.ErrNoAuth), errors.Is(err, errStravaNotConfigured):
		env.log.WithError(err).Info("strava sync disabled")
	case err != nil:
		return err
	default:
		deps.Sync = env.syncService(client)
		deps.RateLimits = client.RateLimitStatus
	}

	p := tea.NewProgram(tui.NewApp(deps), tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running TUI: %w", err)
	}
	return nil
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write an example config file to ~/.racetime/config.yaml",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.CreateExample(); err != nil {
			return fmt.Errorf("creating example config: %w", err)
		}
		path, _ := config.DefaultPath()
		printSuccess("Wrote %s", path)
		fmt.Println("Add your Strava API credentials from https://www.strava.com/settings/api")
		fmt.Println("and your heart rate settings, then run `racetime login`.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
