package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"golang.org/x/text/language"
	"redenvelope/internal/models"
)

// Result log backends.
const (
	DriverFile   = "file"
	DriverSQLite = "sqlite"
)

// Config holds application configuration.
type Config struct {
	Port            string        `env:"PORT" envDefault:"8080"`
	GinMode         string        `env:"GIN_MODE" envDefault:"release"`
	ResultLogDriver string        `env:"RESULT_LOG_DRIVER" envDefault:"file"`
	ResultLogPath   string        `env:"RESULT_LOG_PATH" envDefault:"./data/red_envelope_game_results.txt"`
	SessionTTL      time.Duration `env:"SESSION_TTL" envDefault:"1h"`
	CleanupInterval time.Duration `env:"CLEANUP_INTERVAL" envDefault:"10m"`
	ReportLocale    string        `env:"REPORT_LOCALE" envDefault:"th-TH"`
	Verbose         bool          `env:"VERBOSE" envDefault:"false"`

	DefaultEnvelopeCount int  `env:"DEFAULT_ENVELOPE_COUNT" envDefault:"10"`
	DefaultMinPrize      int  `env:"DEFAULT_MIN_PRIZE" envDefault:"10"`
	DefaultMaxPrize      int  `env:"DEFAULT_MAX_PRIZE" envDefault:"100"`
	DefaultSoundEnabled  bool `env:"DEFAULT_SOUND_ENABLED" envDefault:"true"`
	MaxEnvelopeCount     int  `env:"MAX_ENVELOPE_COUNT" envDefault:"1000"`
}

// Load reads an optional .env file, then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return Parse()
}

// Parse reads configuration from environment variables only.
func Parse() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.ResultLogDriver {
	case DriverFile, DriverSQLite:
	default:
		return fmt.Errorf("unknown RESULT_LOG_DRIVER %q (want %s or %s)", c.ResultLogDriver, DriverFile, DriverSQLite)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}
	if c.CleanupInterval <= 0 {
		return fmt.Errorf("CLEANUP_INTERVAL must be positive")
	}
	if c.MaxEnvelopeCount <= 0 {
		return fmt.Errorf("MAX_ENVELOPE_COUNT must be positive")
	}
	if _, err := language.Parse(c.ReportLocale); err != nil {
		return fmt.Errorf("invalid REPORT_LOCALE %q: %w", c.ReportLocale, err)
	}
	return nil
}

// Language returns the report locale as a language tag.
func (c *Config) Language() language.Tag {
	return language.Make(c.ReportLocale)
}

// DefaultSettings returns the settings offered on a fresh settings screen.
// They are not validated here; the player edits them before starting.
func (c *Config) DefaultSettings() models.Settings {
	return models.Settings{
		EnvelopeCount: c.DefaultEnvelopeCount,
		MinPrize:      c.DefaultMinPrize,
		MaxPrize:      c.DefaultMaxPrize,
		SoundEnabled:  c.DefaultSoundEnabled,
	}
}
