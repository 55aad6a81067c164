// Package config loads darthub settings from a .env file, the environment
// and an optional YAML calibration file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/maxncode/darthub/pkg/sim"
)

// Config is the resolved application configuration.
type Config struct {
	LogLevel        string        `env:"DARTHUB_LOG_LEVEL" envDefault:"info"`
	Addr            string        `env:"DARTHUB_ADDR" envDefault:":8080"`
	StatsFile       string        `env:"DARTHUB_STATS_FILE" envDefault:"all_players_with_form.csv"`
	OutputDir       string        `env:"DARTHUB_OUTPUT_DIR" envDefault:"output"`
	CalibrationFile string        `env:"DARTHUB_CALIBRATION_FILE"`
	ListingURL      string        `env:"DARTHUB_LISTING_URL" envDefault:"https://app.dartsorakel.com/api/stats/player"`
	DetailsURL      string        `env:"DARTHUB_DETAILS_URL" envDefault:"https://app.dartsorakel.com/player/details/"`
	StatsURL        string        `env:"DARTHUB_STATS_URL" envDefault:"https://app.dartsorakel.com/player/stats/"`
	LegsPerMatch    float64       `env:"DARTHUB_AVG_LEGS_PER_MATCH" envDefault:"8"`
	AllowedOrigins  []string      `env:"DARTHUB_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
	RequestTimeout  time.Duration `env:"DARTHUB_REQUEST_TIMEOUT" envDefault:"60s"`

	Sim sim.Calibration
}

// calibrationEnv holds optional overrides; nil fields leave the file or
// default value untouched.
type calibrationEnv struct {
	BestOf            *int           `env:"DARTHUB_BEST_OF"`
	MaxCheckout       *int           `env:"DARTHUB_MAX_CHECKOUT"`
	CheckoutFocusRate *float64       `env:"DARTHUB_CHECKOUT_FOCUS_RATE"`
	ThrowNoiseStdDev  *float64       `env:"DARTHUB_THROW_NOISE_STDDEV"`
	MissMeanFactor    *float64       `env:"DARTHUB_MISS_MEAN_FACTOR"`
	MissMeanFloor     *float64       `env:"DARTHUB_MISS_MEAN_FLOOR"`
	MaxVisitsPerLeg   *int           `env:"DARTHUB_MAX_VISITS_PER_LEG"`
	PacingDelay       *time.Duration `env:"DARTHUB_PACING_DELAY"`
	TrialCount        *int           `env:"DARTHUB_TRIAL_COUNT"`
	Workers           *int           `env:"DARTHUB_WORKERS"`
}

// Load reads envFile (if it exists), parses the environment and merges the
// calibration file named by DARTHUB_CALIBRATION_FILE over the defaults.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("load %s: %w", envFile, err)
			}
			log.Debugf("no env file at %s", envFile)
		}
	}

	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return nil, err
	}

	cfg.Sim = sim.DefaultCalibration()
	if cfg.CalibrationFile != "" {
		if err := LoadCalibration(cfg.CalibrationFile, &cfg.Sim); err != nil {
			return nil, err
		}
	}

	var overrides calibrationEnv
	if err := ParseEnv(&overrides); err != nil {
		return nil, err
	}
	overrides.apply(&cfg.Sim)

	if err := cfg.Sim.Validate(); err != nil {
		return nil, fmt.Errorf("invalid calibration: %w", err)
	}
	return &cfg, nil
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// LoadCalibration decodes a YAML file over cal. Keys absent from the file
// keep their current value.
func LoadCalibration(path string, cal *sim.Calibration) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read calibration: %w", err)
	}
	if err := yaml.Unmarshal(data, cal); err != nil {
		return fmt.Errorf("decode calibration %s: %w", path, err)
	}
	log.WithField("file", path).Debug("calibration loaded")
	return nil
}

func (o calibrationEnv) apply(cal *sim.Calibration) {
	setInt(&cal.BestOf, o.BestOf)
	setInt(&cal.MaxCheckout, o.MaxCheckout)
	setFloat(&cal.CheckoutFocusRate, o.CheckoutFocusRate)
	setFloat(&cal.ThrowNoiseStdDev, o.ThrowNoiseStdDev)
	setFloat(&cal.MissMeanFactor, o.MissMeanFactor)
	setFloat(&cal.MissMeanFloor, o.MissMeanFloor)
	setInt(&cal.MaxVisitsPerLeg, o.MaxVisitsPerLeg)
	setInt(&cal.TrialCount, o.TrialCount)
	setInt(&cal.Workers, o.Workers)
	if o.PacingDelay != nil {
		cal.PacingDelay = *o.PacingDelay
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

// ParseLevel converts the configured level name for logrus. Unknown names
// fall back to info.
func (c *Config) ParseLevel() log.Level {
	lvl, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}
