package cmd

import (
	"context"
	"errors"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"racetime/internal/api"
	"racetime/internal/store"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve predictions and training metrics over HTTP",
	Long: `Serve the JSON API. When server.sync_schedule is set and a Strava login is
stored, new activities are synced on that schedule.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	env, err := newEnv(false)
	if err != nil {
		return err
	}
	defer env.Close()

	ctx := cmd.Context()
	addr := env.cfg.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}

	if spec := env.cfg.Server.SyncSchedule; spec != "" {
		sched, err := env.scheduleSync(ctx, spec)
		if err != nil {
			return err
		}
		if sched != nil {
			sched.Start()
			defer func() { <-sched.Stop().Done() }()
		}
	}

	srv := api.NewServer(api.Config{
		Predictions: env.predictionService(),
		Training:    env.trainingService(),
		DB:          env.db,
		Metrics:     env.metrics,
		Log:         env.log,
		Defaults:    env.defaultRequest(),
	})
	return srv.ListenAndServe(ctx, addr)
}

// scheduleSync registers a periodic Strava sync. It returns nil without error
// when no login is stored, so the API still serves local data.
func (e *env) scheduleSync(ctx context.Context, spec string) (*cron.Cron, error) {
	client, err := e.stravaClient(ctx)
	if errors.Is(err, store.ErrNoAuth) || errors.Is(err, errStravaNotConfigured) {
		e.log.WithError(err).Warn("scheduled sync disabled")
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	ss := e.syncService(client)
	training := e.trainingService()
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	_, err = c.AddFunc(spec, func() {
		result, err := ss.SyncAll(ctx, nil)
		if err != nil {
			e.log.WithError(err).Error("scheduled sync failed")
			return
		}
		training.Invalidate()
		e.log.WithField("stored", result.ActivitiesStored).WithField("races", result.RacesStored).Info("scheduled sync complete")
	})
	if err != nil {
		return nil, err
	}
	e.log.WithField("schedule", spec).Info("scheduled sync enabled")
	return c, nil
}
