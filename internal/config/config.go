package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"racetime/internal/analysis"
)

// EnvPrefix prefixes every environment override, e.g. RACETIME_ATHLETE__MAX_HR=190
const EnvPrefix = "RACETIME_"

// Config represents the application configuration
type Config struct {
	Strava     StravaConfig     `koanf:"strava"`
	Athlete    AthleteConfig    `koanf:"athlete"`
	Display    DisplayConfig    `koanf:"display"`
	Prediction PredictionConfig `koanf:"prediction"`
	Cache      CacheConfig      `koanf:"cache"`
	Log        LogConfig        `koanf:"log"`
	Server     ServerConfig     `koanf:"server"`
	Database   DatabaseConfig   `koanf:"database"`
}

// StravaConfig holds Strava API credentials
type StravaConfig struct {
	ClientID     string `koanf:"client_id"`
	ClientSecret string `koanf:"client_secret"`
	RedirectURL  string `koanf:"redirect_url" validate:"omitempty,url"`
}

// AthleteConfig holds athlete-specific settings
type AthleteConfig struct {
	RestingHR   float64 `koanf:"resting_hr" validate:"gte=30,lte=100"`
	MaxHR       float64 `koanf:"max_hr" validate:"gte=120,lte=230"`
	ThresholdHR float64 `koanf:"threshold_hr" validate:"omitempty,gte=80,lte=225"`
	Gender      string  `koanf:"gender" validate:"oneof=male female"`
}

// DisplayConfig holds display preferences
type DisplayConfig struct {
	DistanceUnit string `koanf:"distance_unit" validate:"oneof=km mi"`
	PaceUnit     string `koanf:"pace_unit" validate:"oneof=min/km min/mi"`
}

// PredictionConfig controls race predictions
type PredictionConfig struct {
	WeeksBack       int       `koanf:"weeks_back" validate:"gte=1,lte=104"`
	CustomDistances []float64 `koanf:"custom_distances" validate:"dive,gte=800,lte=100000"`
	Trace           bool      `koanf:"trace"`
}

// CacheConfig controls in-memory caching
type CacheConfig struct {
	TrainingTTL time.Duration `koanf:"training_ttl" validate:"gt=0"`
}

// LogConfig controls logging
type LogConfig struct {
	Level  string `koanf:"level" validate:"loglevel"`
	Format string `koanf:"format" validate:"oneof=text json"`
	File   string `koanf:"file"`
}

// ServerConfig controls the HTTP API
type ServerConfig struct {
	Addr         string `koanf:"addr" validate:"required"`
	SyncSchedule string `koanf:"sync_schedule" validate:"omitempty,cronspec"`
}

// DatabaseConfig locates the SQLite file
type DatabaseConfig struct {
	Path string `koanf:"path"`
}

// ErrNoConfig is returned when an explicitly requested config file doesn't exist
var ErrNoConfig = errors.New("config file not found")

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		Strava: StravaConfig{
			RedirectURL: "http://localhost:8089/callback",
		},
		Athlete: AthleteConfig{
			RestingHR:   50,
			MaxHR:       185,
			ThresholdHR: 165,
			Gender:      analysis.GenderMale,
		},
		Display: DisplayConfig{
			DistanceUnit: "km",
			PaceUnit:     "min/km",
		},
		Prediction: PredictionConfig{
			WeeksBack: 26,
		},
		Cache: CacheConfig{
			TrainingTTL: 5 * time.Minute,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
	}
}

// Load builds a Config by layering defaults, the YAML file, a .env file and
// RACETIME_ environment variables (low to high precedence).
// An empty path uses $RACETIME_CONFIG or ~/.racetime/config.yaml; a missing
// default file is not an error, a missing explicit one is.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	explicit := path != ""
	if !explicit {
		if p := os.Getenv(EnvPrefix + "CONFIG"); p != "" {
			path, explicit = p, true
		}
	}
	if path == "" {
		var err error
		if path, err = DefaultPath(); err != nil {
			return nil, err
		}
	}

	k := koanf.New(".")

	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	} else if os.IsNotExist(err) {
		if explicit {
			return nil, ErrNoConfig
		}
	} else {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// RACETIME_ATHLETE__MAX_HR -> athlete.max_hr
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(s, EnvPrefix)
		s = strings.ToLower(s)
		return strings.ReplaceAll(s, "__", ".")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}

	cfg := DefaultConfig()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// AthleteSettings returns the heart-rate settings used for training load
func (c *Config) AthleteSettings() analysis.AthleteSettings {
	return analysis.AthleteSettings{
		RestingHR: c.Athlete.RestingHR,
		MaxHR:     c.Athlete.MaxHR,
		Gender:    c.Athlete.Gender,
	}
}

// CreateExample creates a commented example config file if none exists
func CreateExample() error {
	path, err := DefaultPath()
	if err != nil {
		return err
	}

	// Check if config already exists
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(exampleYAML), 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

const exampleYAML = `# racetime configuration
# Every key can be overridden with RACETIME_<SECTION>__<KEY>, e.g. RACETIME_ATHLETE__MAX_HR=190

strava:
  # Create an API application at https://www.strava.com/settings/api
  client_id: YOUR_CLIENT_ID
  client_secret: YOUR_CLIENT_SECRET
  redirect_url: http://localhost:8089/callback

athlete:
  resting_hr: 50
  max_hr: 185
  threshold_hr: 165
  gender: male # male or female, selects the TRIMP weighting

display:
  distance_unit: km # km or mi
  pace_unit: min/km # min/km or min/mi

prediction:
  weeks_back: 26
  custom_distances: [] # meters, e.g. [15000, 30000]
  trace: false

cache:
  training_ttl: 5m

log:
  level: info
  format: text
  file: "" # defaults to ~/.racetime/racetime.log while the TUI runs

server:
  addr: ":8080"
  sync_schedule: "" # cron spec, e.g. "0 */6 * * *"

database:
  path: "" # defaults to ~/.racetime/data.db
`

// DefaultPath returns the default location of the config file
func DefaultPath() (string, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// GetConfigDir returns the path to the config directory
func GetConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".racetime"), nil
}
