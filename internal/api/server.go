// Package api serves predictions and training metrics over JSON HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"racetime/internal/analysis"
	"racetime/internal/logger"
	"racetime/internal/metrics"
	"racetime/internal/service"
)

// Predictor generates race predictions
type Predictor interface {
	GeneratePredictions(ctx context.Context, req service.PredictionRequest) (*service.PredictionReport, error)
}

// TrainingProvider serves training metrics and owns the athlete settings
type TrainingProvider interface {
	GetTrainingMetrics(ctx context.Context) (*service.TrainingMetrics, error)
	Settings() analysis.AthleteSettings
	UpdateSettings(analysis.AthleteSettings) error
}

// Pinger checks storage connectivity
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Server wires HTTP routes for the prediction and training services
type Server struct {
	predictions Predictor
	training    TrainingProvider
	db          Pinger
	metrics     *metrics.Recorder
	log         logrus.FieldLogger
	defaults    service.PredictionRequest
}

// Config holds the server dependencies. DB, Metrics and Log may be nil.
type Config struct {
	Predictions Predictor
	Training    TrainingProvider
	DB          Pinger
	Metrics     *metrics.Recorder
	Log         logrus.FieldLogger
	// Defaults fill prediction parameters the query leaves out
	Defaults service.PredictionRequest
}

// NewServer creates a new API server
func NewServer(cfg Config) *Server {
	log := cfg.Log
	if log == nil {
		log = logger.Discard()
	}
	return &Server{
		predictions: cfg.Predictions,
		training:    cfg.Training,
		db:          cfg.DB,
		metrics:     cfg.Metrics,
		log:         log,
		defaults:    cfg.Defaults,
	}
}

// Handler returns the routed handler
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/predictions", s.instrument("predictions", s.handlePredictions))
	mux.HandleFunc("GET /api/training", s.instrument("training", s.handleTraining))
	mux.HandleFunc("GET /api/settings", s.instrument("settings", s.handleGetSettings))
	mux.HandleFunc("PUT /api/settings", s.instrument("settings", s.handlePutSettings))
	mux.HandleFunc("GET /healthz", s.instrument("healthz", s.handleHealth))
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}
	return mux
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", addr).Info("api server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("api server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.log.Info("api server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down api server: %w", err)
	}
	return nil
}

func (s *Server) handlePredictions(w http.ResponseWriter, r *http.Request) {
	req, err := parsePredictionRequest(r.URL.Query(), s.defaults)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	report, err := s.predictions.GeneratePredictions(r.Context(), req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleTraining(w http.ResponseWriter, r *http.Request) {
	m, err := s.training.GetTrainingMetrics(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.training.Settings())
}

func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	var settings analysis.AthleteSettings
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&settings); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("decoding settings: %w", err))
		return
	}
	if err := s.training.UpdateSettings(settings); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.training.Settings())
}

type healthResponse struct {
	Status string `json:"status"`
	DB     string `json:"db,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.db.PingContext(ctx); err != nil {
		s.log.WithError(err).Warn("health check: database unreachable")
		writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable", DB: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", DB: "ok"})
}

// instrument records request count and latency per route
func (s *Server) instrument(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		s.metrics.HTTPRequest(route, wrapped.statusCode, time.Since(start))
		s.log.WithFields(logrus.Fields{
			"method":   r.Method,
			"route":    route,
			"status":   wrapped.statusCode,
			"duration": time.Since(start),
		}).Debug("http request")
	}
}

// responseWriter captures the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
