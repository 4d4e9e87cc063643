package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"racetime/internal/auth"
	"racetime/internal/config"
	"racetime/internal/logger"
	"racetime/internal/metrics"
	"racetime/internal/service"
	"racetime/internal/store"
	"racetime/internal/strava"
)

var errStravaNotConfigured = errors.New("strava client_id and client_secret are not configured")

// env is the wiring shared by every command
type env struct {
	cfg     *config.Config
	log     *logrus.Logger
	db      *store.DB
	metrics *metrics.Recorder

	logCloser io.Closer
	training  *service.TrainingService
}

// newEnv loads config, opens the log and the database. With logToFile the
// log goes to a file so it does not draw over the terminal UI.
func newEnv(logToFile bool) (*env, error) {
	cfg, err := config.Load(configPath)
	if errors.Is(err, config.ErrNoConfig) {
		return nil, fmt.Errorf("%w (run `racetime init` to create one)", err)
	}
	if err != nil {
		return nil, err
	}

	e := &env{cfg: cfg, metrics: metrics.New()}
	switch {
	case logToFile:
		e.log, e.logCloser, err = logger.NewFile(cfg.Log)
		if err != nil {
			return nil, err
		}
	default:
		e.log = logger.New(cfg.Log, os.Stderr)
	}

	e.db, err = store.Open(cfg.Database.Path)
	if err != nil {
		e.Close()
		return nil, fmt.Errorf("opening database: %w", err)
	}
	e.log.WithField("path", cfg.Database.Path).Debug("database opened")
	return e, nil
}

// Close releases the database and log file
func (e *env) Close() {
	if e.db != nil {
		if err := e.db.Close(); err != nil {
			e.log.WithError(err).Warn("closing database")
		}
	}
	if e.logCloser != nil {
		_ = e.logCloser.Close()
	}
}

func (e *env) oauthConfig() (*auth.Config, error) {
	if err := e.cfg.ValidateStrava(); err != nil {
		return nil, fmt.Errorf("%w: %w", errStravaNotConfigured, err)
	}
	return &auth.Config{
		ClientID:     e.cfg.Strava.ClientID,
		ClientSecret: e.cfg.Strava.ClientSecret,
		RedirectURL:  e.cfg.Strava.RedirectURL,
	}, nil
}

// stravaClient returns a client using the stored login; store.ErrNoAuth means
// the user has not run `racetime login`
func (e *env) stravaClient(ctx context.Context) (*strava.Client, error) {
	ac, err := e.oauthConfig()
	if err != nil {
		return nil, err
	}
	ts, err := auth.StoredTokenSource(ctx, auth.NewOAuthConfig(*ac), e.db)
	if err != nil {
		return nil, err
	}
	return strava.NewClient(ctx, ts, strava.WithLogger(e.log)), nil
}

func (e *env) predictionService() *service.PredictionService {
	return service.NewPredictionService(e.db, e.db, e.log, e.metrics, e.cfg.Prediction.Trace)
}

func (e *env) trainingService() *service.TrainingService {
	if e.training == nil {
		e.training = service.NewTrainingService(e.db, e.cfg.AthleteSettings(), e.cfg.Cache.TrainingTTL, e.log, e.metrics)
	}
	return e.training
}

func (e *env) syncService(client *strava.Client) *service.SyncService {
	return service.NewSyncService(client, e.db, e.log, e.metrics)
}

// defaultRequest builds a prediction request from the prediction config
func (e *env) defaultRequest() service.PredictionRequest {
	return service.PredictionRequest{
		WeeksBack:       e.cfg.Prediction.WeeksBack,
		CustomDistances: e.cfg.Prediction.CustomDistances,
	}
}
