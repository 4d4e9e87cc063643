package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 50.0, cfg.Athlete.RestingHR)
	assert.Equal(t, 185.0, cfg.Athlete.MaxHR)
	assert.Equal(t, 165.0, cfg.Athlete.ThresholdHR)
	assert.Equal(t, "male", cfg.Athlete.Gender)
	assert.Equal(t, "km", cfg.Display.DistanceUnit)
	assert.Equal(t, "min/km", cfg.Display.PaceUnit)
	assert.Equal(t, 5*time.Minute, cfg.Cache.TrainingTTL)
	assert.Empty(t, cfg.Strava.ClientID)
	assert.NoError(t, cfg.Validate())
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Config)
		errContains string
	}{
		{"defaults", func(*Config) {}, ""},
		{"resting and max at range edges", func(c *Config) { c.Athlete.RestingHR, c.Athlete.MaxHR, c.Athlete.ThresholdHR = 100, 120, 0 }, ""},
		{"resting out of range", func(c *Config) { c.Athlete.RestingHR = 20 }, "RestingHR"},
		{"max out of range", func(c *Config) { c.Athlete.MaxHR = 250 }, "MaxHR"},
		{"threshold above max", func(c *Config) { c.Athlete.ThresholdHR = 190 }, "threshold_hr"},
		{"threshold unset", func(c *Config) { c.Athlete.ThresholdHR = 0 }, ""},
		{"bad gender", func(c *Config) { c.Athlete.Gender = "x" }, "Gender"},
		{"bad distance unit", func(c *Config) { c.Display.DistanceUnit = "yd" }, "DistanceUnit"},
		{"bad pace unit", func(c *Config) { c.Display.PaceUnit = "min/yd" }, "PaceUnit"},
		{"weeks back zero", func(c *Config) { c.Prediction.WeeksBack = 0 }, "WeeksBack"},
		{"custom distance too short", func(c *Config) { c.Prediction.CustomDistances = []float64{5000, 100} }, "CustomDistances"},
		{"bad log level", func(c *Config) { c.Log.Level = "verbose" }, "debug, info, warn, error"},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }, "Format"},
		{"zero ttl", func(c *Config) { c.Cache.TrainingTTL = 0 }, "TrainingTTL"},
		{"bad cron", func(c *Config) { c.Server.SyncSchedule = "every day" }, "cron"},
		{"good cron", func(c *Config) { c.Server.SyncSchedule = "0 */6 * * *" }, ""},
		{"empty addr", func(c *Config) { c.Server.Addr = "" }, "Addr"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.errContains == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errContains)
		})
	}
}

func TestValidateStrava(t *testing.T) {
	tests := []struct {
		name        string
		strava      StravaConfig
		errContains string
	}{
		{"valid", StravaConfig{ClientID: "12345", ClientSecret: "abc123secret"}, ""},
		{"empty client ID", StravaConfig{ClientSecret: "abc123secret"}, "client_id"},
		{"placeholder client ID", StravaConfig{ClientID: "YOUR_CLIENT_ID", ClientSecret: "abc123secret"}, "client_id"},
		{"empty client secret", StravaConfig{ClientID: "12345"}, "client_secret"},
		{"placeholder client secret", StravaConfig{ClientID: "12345", ClientSecret: "YOUR_CLIENT_SECRET"}, "client_secret"},
		{"both placeholders", StravaConfig{ClientID: "YOUR_CLIENT_ID", ClientSecret: "YOUR_CLIENT_SECRET"}, "client_id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Strava = tt.strava
			err := cfg.ValidateStrava()
			if tt.errContains == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errContains)
		})
	}
}

func TestLoadLayersFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
athlete:
  resting_hr: 55
  max_hr: 192
  gender: female
prediction:
  weeks_back: 12
  custom_distances: [15000]
cache:
  training_ttl: 90s
`), 0600))

	t.Setenv("RACETIME_ATHLETE__MAX_HR", "195")
	t.Setenv("RACETIME_LOG__LEVEL", "debug")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 55.0, cfg.Athlete.RestingHR)
	assert.Equal(t, 195.0, cfg.Athlete.MaxHR, "env wins over file")
	assert.Equal(t, "female", cfg.Athlete.Gender)
	assert.Equal(t, 165.0, cfg.Athlete.ThresholdHR, "default kept")
	assert.Equal(t, 12, cfg.Prediction.WeeksBack)
	assert.Equal(t, []float64{15000}, cfg.Prediction.CustomDistances)
	assert.Equal(t, 90*time.Second, cfg.Cache.TrainingTTL)
	assert.Equal(t, "debug", cfg.Log.Level)

	s := cfg.AthleteSettings()
	assert.Equal(t, 195.0, s.MaxHR)
	assert.Equal(t, "female", s.Gender)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	t.Setenv("HOME", dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("RACETIME_STRAVA__CLIENT_ID=from-dotenv\n"), 0600))
	t.Cleanup(func() { os.Unsetenv("RACETIME_STRAVA__CLIENT_ID") })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.Strava.ClientID)
}

func TestLoadMissingFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	t.Setenv("HOME", dir)

	cfg, err := Load("")
	require.NoError(t, err, "missing default file falls back to defaults")
	assert.Equal(t, DefaultConfig(), *cfg)

	_, err = Load(filepath.Join(dir, "nope.yaml"))
	assert.ErrorIs(t, err, ErrNoConfig)
}

func TestLoadInvalid(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("athlete:\n  gender: other\n"), 0600))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Gender")
}

func TestCreateExample(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	t.Setenv("HOME", dir)

	require.NoError(t, CreateExample())
	path := filepath.Join(dir, ".racetime", "config.yaml")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "YOUR_CLIENT_ID")

	// existing files are left alone
	require.NoError(t, os.WriteFile(path, []byte("athlete:\n  max_hr: 200\n"), 0600))
	require.NoError(t, CreateExample())
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "YOUR_CLIENT_ID")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 200.0, cfg.Athlete.MaxHR)
	assert.Error(t, cfg.ValidateStrava())
}

// chdir changes the working directory for the duration of the test.
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}
