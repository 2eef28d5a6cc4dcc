// Package config loads client settings from an optional YAML file with
// environment overrides. A .env file in the working directory is honored.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	envBaseURL    = "TROVKA_BASE_URL"
	envTokenStore = "TROVKA_TOKEN_STORE"
	envTimeout    = "TROVKA_REQUEST_TIMEOUT"
	envRate       = "TROVKA_RATE_PER_SECOND"
	envRateBurst  = "TROVKA_RATE_BURST"
)

// Duration accepts "15s"-style strings in YAML.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("config: parse duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// Config carries everything the client needs to reach the backend.
type Config struct {
	BaseURL        string   `yaml:"base_url"`
	TokenStorePath string   `yaml:"token_store_path"`
	RequestTimeout Duration `yaml:"request_timeout"`
	RatePerSecond  float64  `yaml:"rate_per_second"`
	RateBurst      int      `yaml:"rate_burst"`
}

func defaults() Config {
	cfg := Config{
		RequestTimeout: Duration(15 * time.Second),
		RatePerSecond:  20,
		RateBurst:      10,
	}
	if dir, err := os.UserConfigDir(); err == nil {
		cfg.TokenStorePath = filepath.Join(dir, "trovka", "state.db")
	} else {
		cfg.TokenStorePath = "trovka-state.db"
	}
	return cfg
}

// DefaultPath is where Load looks when no explicit file is given.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "trovka", "config.yaml")
}

// Load reads .env, then the YAML file at path (or the default location), then
// applies environment overrides. A missing file is fine unless the path was
// given explicitly.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	cfg := defaults()
	explicit := path != ""
	if path == "" {
		path = DefaultPath()
	}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
			}
		case os.IsNotExist(err) && !explicit:
			// no config file, defaults + env is fine
		default:
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	if v := os.Getenv(envBaseURL); v != "" {
		cfg.BaseURL = v
	}
	if v := os.Getenv(envTokenStore); v != "" {
		cfg.TokenStorePath = v
	}
	if v := os.Getenv(envTimeout); v != "" {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", envTimeout, err)
		}
		cfg.RequestTimeout = Duration(parsed)
	}
	if v := os.Getenv(envRate); v != "" {
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", envRate, err)
		}
		cfg.RatePerSecond = parsed
	}
	if v := os.Getenv(envRateBurst); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", envRateBurst, err)
		}
		cfg.RateBurst = parsed
	}

	return cfg, nil
}

// Timeout returns the request timeout as a time.Duration.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.RequestTimeout)
}
