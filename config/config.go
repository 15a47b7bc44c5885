package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultAPITimeout       = 30 * time.Second
	DefaultRateLimit        = 5.0
	DefaultRateBurst        = 2
	DefaultImportCollection = "/vendor/products/import"
	DefaultPollInterval     = 2 * time.Second
	DefaultMaxAttempts      = 150
	DefaultSessionID        = "default"
)

// Драйверы хранилища маркера импорта.
const (
	StateMemory   = "memory"
	StateSQLite   = "sqlite"
	StatePostgres = "postgres"
)

type APIConfig struct {
	BaseURL          string        `yaml:"base_url"`
	Token            string        `yaml:"token"`
	Timeout          time.Duration `yaml:"timeout"`
	RateLimit        float64       `yaml:"rate_limit"`
	RateBurst        int           `yaml:"rate_burst"`
	ImportCollection string        `yaml:"import_collection"`
}

// WatchConfig bounds the client-side import status loop.
type WatchConfig struct {
	Interval    time.Duration `yaml:"interval"`
	MaxAttempts int           `yaml:"max_attempts"`
}

type StateConfig struct {
	Driver    string `yaml:"driver"`
	Path      string `yaml:"path"`
	SessionID string `yaml:"session_id"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

type ImportConfig struct {
	SourceEncoding string `yaml:"source_encoding"`
}

type AppConfig struct {
	API      APIConfig      `yaml:"api"`
	Watch    WatchConfig    `yaml:"watch"`
	State    StateConfig    `yaml:"state"`
	Postgres PostgresConfig `yaml:"postgres"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Import   ImportConfig   `yaml:"import"`
}

// LoadConfig читает YAML (если filename не пустой), накладывает переменные окружения
// и заполняет значения по умолчанию.
func LoadConfig(filename string) (*AppConfig, error) {
	config := &AppConfig{}
	if filename != "" {
		file, err := os.Open(filename)
		if err != nil {
			return nil, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := yaml.NewDecoder(file)
		if err := decoder.Decode(config); err != nil {
			return nil, fmt.Errorf("decode config %s: %w", filename, err)
		}
	}

	config.ApplyEnv()
	config.Normalize()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *AppConfig) ApplyEnv() {
	c.API.BaseURL = getEnv("VENDOR_API_URL", c.API.BaseURL)
	c.API.Token = getEnv("VENDOR_API_TOKEN", c.API.Token)
	c.State.Driver = getEnv("VENDOR_STATE_DRIVER", c.State.Driver)
	c.State.Path = getEnv("VENDOR_STATE_PATH", c.State.Path)
	c.State.SessionID = getEnv("VENDOR_SESSION_ID", c.State.SessionID)
	c.Metrics.Addr = getEnv("VENDOR_METRICS_ADDR", c.Metrics.Addr)
	c.Watch.MaxAttempts = getEnvInt("VENDOR_WATCH_MAX_ATTEMPTS", c.Watch.MaxAttempts)
	c.Postgres.applyEnv()
}

func (c *AppConfig) Normalize() {
	if c.API.Timeout <= 0 {
		c.API.Timeout = DefaultAPITimeout
	}
	if c.API.RateLimit <= 0 {
		c.API.RateLimit = DefaultRateLimit
	}
	if c.API.RateBurst <= 0 {
		c.API.RateBurst = DefaultRateBurst
	}
	if c.API.ImportCollection == "" {
		c.API.ImportCollection = DefaultImportCollection
	}
	if c.Watch.Interval <= 0 {
		c.Watch.Interval = DefaultPollInterval
	}
	if c.Watch.MaxAttempts <= 0 {
		c.Watch.MaxAttempts = DefaultMaxAttempts
	}
	if c.State.Driver == "" {
		c.State.Driver = StateSQLite
	}
	if c.State.SessionID == "" {
		c.State.SessionID = DefaultSessionID
	}
	if c.State.Driver == StateSQLite && c.State.Path == "" {
		c.State.Path = defaultStatePath()
	}
	c.Postgres.normalize()
}

func (c *AppConfig) Validate() error {
	if c.API.BaseURL == "" {
		return errors.New("api.base_url is required (or VENDOR_API_URL)")
	}
	switch c.State.Driver {
	case StateMemory, StateSQLite, StatePostgres:
	default:
		return fmt.Errorf("unknown state driver %q", c.State.Driver)
	}
	switch c.Import.SourceEncoding {
	case "", "utf-8", "windows-1251":
	default:
		return fmt.Errorf("unsupported import source encoding %q", c.Import.SourceEncoding)
	}
	return nil
}

func defaultStatePath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "gomarketplace_vendor", "state.db")
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return i
}
