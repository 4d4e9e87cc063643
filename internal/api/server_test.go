package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"racetime/internal/analysis"
	"racetime/internal/metrics"
	"racetime/internal/service"
)

type fakePredictor struct {
	got    service.PredictionRequest
	report *service.PredictionReport
	err    error
}

func (f *fakePredictor) GeneratePredictions(ctx context.Context, req service.PredictionRequest) (*service.PredictionReport, error) {
	f.got = req
	return f.report, f.err
}

type fakeTraining struct {
	settings analysis.AthleteSettings
	metrics  *service.TrainingMetrics
	err      error
	updates  int
}

func (f *fakeTraining) GetTrainingMetrics(ctx context.Context) (*service.TrainingMetrics, error) {
	return f.metrics, f.err
}

func (f *fakeTraining) Settings() analysis.AthleteSettings { return f.settings }

func (f *fakeTraining) UpdateSettings(s analysis.AthleteSettings) error {
	if s.MaxHR <= s.RestingHR {
		return service.ErrInvalidRequest
	}
	f.updates++
	f.settings = s
	return nil
}

type fakePinger struct{ err error }

func (f fakePinger) PingContext(ctx context.Context) error { return f.err }

func newTestServer(p *fakePredictor, tr *fakeTraining, rec *metrics.Recorder) *httptest.Server {
	srv := NewServer(Config{
		Predictions: p,
		Training:    tr,
		DB:          fakePinger{},
		Metrics:     rec,
		Defaults:    service.PredictionRequest{WeeksBack: 26},
	})
	ts := httptest.NewServer(srv.Handler())
	return ts
}

func sampleReport() *service.PredictionReport {
	return &service.PredictionReport{
		RunID: "run-1",
		Predictions: map[string]analysis.PredictionResult{
			"5k": {DistanceMeters: 5000, PredictedTimeSeconds: 1200, Confidence: 0.7, Method: analysis.MethodMultiModel},
		},
		DataSource:  analysis.SourceRaces,
		LastUpdated: time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestPredictionsEndpoint(t *testing.T) {
	p := &fakePredictor{report: sampleReport()}
	rec := metrics.New()
	ts := newTestServer(p, &fakeTraining{}, rec)
	defer ts.Close()

	q := url.Values{}
	q.Set("weeks", "12")
	q.Add("distance", "15000")
	q.Add("distance", "30000")
	q.Set("days_until", "7")
	q.Set("temperature", "24.5")
	q.Set("flat_course", "true")

	resp, err := http.Get(ts.URL + "/api/predictions?" + q.Encode())
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "application/json")

	var body struct {
		RunID       string                               `json:"runId"`
		Predictions map[string]analysis.PredictionResult `json:"predictions"`
		DataSource  string                               `json:"dataSource"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "run-1", body.RunID)
	assert.Equal(t, 1200.0, body.Predictions["5k"].PredictedTimeSeconds)
	assert.Equal(t, analysis.SourceRaces, body.DataSource)

	assert.Equal(t, 12, p.got.WeeksBack)
	assert.Equal(t, []float64{15000, 30000}, p.got.CustomDistances)
	require.NotNil(t, p.got.DaysUntilRace)
	assert.Equal(t, 7, *p.got.DaysUntilRace)
	require.NotNil(t, p.got.Conditions)
	require.NotNil(t, p.got.Conditions.Temperature)
	assert.Equal(t, 24.5, *p.got.Conditions.Temperature)
	assert.True(t, p.got.Conditions.FlatCourse)
	assert.Nil(t, p.got.Conditions.WindSpeed)

	n, err := testutil.GatherAndCount(rec.Registry(), "racetime_http_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestPredictionsDefaults(t *testing.T) {
	p := &fakePredictor{report: sampleReport()}
	ts := newTestServer(p, &fakeTraining{}, nil)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/predictions")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 26, p.got.WeeksBack)
	assert.Nil(t, p.got.Conditions)
	assert.Nil(t, p.got.DaysUntilRace)
}

func TestPredictionsErrors(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		err      error
		wantCode int
		wantKey  string
	}{
		{
			name:     "insufficient data",
			err:      &service.InsufficientDataError{Races: 0, Activities: 1, Guidance: []string{"Log more runs"}},
			wantCode: http.StatusUnprocessableEntity,
			wantKey:  "insufficient_data",
		},
		{
			name:     "invalid request",
			err:      service.ErrInvalidRequest,
			wantCode: http.StatusBadRequest,
			wantKey:  "bad_request",
		},
		{
			name:     "unparseable weeks",
			query:    "?weeks=lots",
			wantCode: http.StatusBadRequest,
			wantKey:  "bad_request",
		},
		{
			name:     "unparseable flag",
			query:    "?optimal_taper=maybe",
			wantCode: http.StatusBadRequest,
			wantKey:  "bad_request",
		},
		{
			name:     "conditions without race date",
			query:    "?temperature=25",
			wantCode: http.StatusBadRequest,
			wantKey:  "bad_request",
		},
		{
			name:     "storage failure",
			err:      errors.Join(service.ErrFetch, errors.New("disk I/O error")),
			wantCode: http.StatusBadGateway,
			wantKey:  "storage_unavailable",
		},
		{
			name:     "unexpected",
			err:      errors.New("boom"),
			wantCode: http.StatusInternalServerError,
			wantKey:  "internal",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(&fakePredictor{err: tt.err}, &fakeTraining{}, nil)
			defer ts.Close()

			resp, err := http.Get(ts.URL + "/api/predictions" + tt.query)
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tt.wantCode, resp.StatusCode)

			var body errorResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, tt.wantKey, body.Code)
			if tt.wantKey == "insufficient_data" {
				assert.Equal(t, []string{"Log more runs"}, body.Guidance)
			}
			if tt.wantKey == "storage_unavailable" {
				assert.NotContains(t, body.Message, "disk")
			}
		})
	}
}

func TestTrainingEndpoint(t *testing.T) {
	tr := &fakeTraining{metrics: &service.TrainingMetrics{
		Fitness: service.FitnessSummary{CTL: 42, ATL: 50, TSB: -8, FormStatus: analysis.FormOptimal},
	}}
	ts := newTestServer(&fakePredictor{}, tr, nil)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/training")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body service.TrainingMetrics
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, 42.0, body.Fitness.CTL)
	assert.Equal(t, analysis.FormOptimal, body.Fitness.FormStatus)
}

func TestSettingsEndpoint(t *testing.T) {
	tr := &fakeTraining{settings: analysis.DefaultAthleteSettings()}
	ts := newTestServer(&fakePredictor{}, tr, nil)
	defer ts.Close()

	put := func(body string) *http.Response {
		req, err := http.NewRequest(http.MethodPut, ts.URL+"/api/settings", strings.NewReader(body))
		require.NoError(t, err)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		return resp
	}

	resp := put(`{"restingHR":48,"maxHR":192,"gender":"female"}`)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, tr.updates)
	assert.Equal(t, 192.0, tr.settings.MaxHR)
	assert.Equal(t, analysis.GenderFemale, tr.settings.Gender)

	resp = put(`{"restingHR":60,"maxHR":50,"gender":"male"}`)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = put(`{"restingHR":60,"maxHR":190,"shoeSize":44}`)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "unknown fields are rejected")
	assert.Equal(t, 1, tr.updates)

	resp, err := http.Get(ts.URL + "/api/settings")
	require.NoError(t, err)
	defer resp.Body.Close()
	var got analysis.AthleteSettings
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, 48.0, got.RestingHR)
}

func TestMethodNotAllowed(t *testing.T) {
	ts := newTestServer(&fakePredictor{}, &fakeTraining{}, nil)
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/api/predictions", "application/json", strings.NewReader("{}"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestHealthAndMetrics(t *testing.T) {
	rec := metrics.New()
	srv := NewServer(Config{
		Predictions: &fakePredictor{},
		Training:    &fakeTraining{},
		DB:          fakePinger{err: errors.New("database is closed")},
		Metrics:     rec,
	})
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var buf strings.Builder
	_, err = io.Copy(&buf, resp.Body)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `racetime_http_requests_total{code="503",route="healthz"} 1`)
}

func TestListenAndServeStopsOnCancel(t *testing.T) {
	srv := NewServer(Config{Predictions: &fakePredictor{}, Training: &fakeTraining{}})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- srv.ListenAndServe(ctx, "127.0.0.1:0") }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
