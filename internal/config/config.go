// Package config loads service settings from a .env file, an optional YAML
// file and the process environment, in increasing order of precedence.
package config

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	ProviderTimezoneDB = "timezonedb"
	ProviderOffline    = "offline"

	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverNone     = "none"

	CacheSQL   = "sql"
	CacheRedis = "redis"
	CacheNone  = "none"
)

type TimezoneDB struct {
	APIKey      string        `yaml:"api_key"`
	APIKeyFile  string        `yaml:"api_key_file"`
	BaseURL     string        `yaml:"base_url"`
	Timeout     time.Duration `yaml:"timeout"`
	MaxAttempts int           `yaml:"max_attempts"`
}

type Database struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
	URL    string `yaml:"url"`
}

type Cache struct {
	Backend  string        `yaml:"backend"`
	TTL      time.Duration `yaml:"ttl"`
	RedisURL string        `yaml:"redis_url"`
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type Config struct {
	Port           string     `yaml:"port"`
	Provider       string     `yaml:"provider"`
	TimezoneDB     TimezoneDB `yaml:"timezonedb"`
	Database       Database   `yaml:"database"`
	Cache          Cache      `yaml:"cache"`
	HistoryEnabled bool       `yaml:"history_enabled"`
	Log            Log        `yaml:"log"`
}

func Default() Config {
	return Config{
		Port:     "8080",
		Provider: ProviderTimezoneDB,
		TimezoneDB: TimezoneDB{
			Timeout:     10 * time.Second,
			MaxAttempts: 1,
		},
		Database: Database{
			Driver: DriverSQLite,
			Path:   "data/app.db",
		},
		Cache: Cache{
			Backend: CacheSQL,
			TTL:     24 * time.Hour,
		},
		HistoryEnabled: true,
		Log: Log{
			Level:  "info",
			Format: "json",
		},
	}
}

// Get returns the environment value for key, or fallback when unset or empty.
func Get(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Load reads .env (if present), then CONFIG_FILE (if set), then environment
// overrides, and validates the result.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load config: read .env: %w", err)
	}

	cfg := Default()

	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return Config{}, fmt.Errorf("load config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}

	if cfg.TimezoneDB.APIKey == "" && cfg.TimezoneDB.APIKeyFile != "" {
		key, err := readKeyFile(cfg.TimezoneDB.APIKeyFile)
		if err != nil {
			return Config{}, fmt.Errorf("load config: %w", err)
		}
		cfg.TimezoneDB.APIKey = key
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}

	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %q: %w", path, err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil {
		return fmt.Errorf("parse config file %q: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	setString(&c.Port, "PORT")
	setString(&c.Provider, "TIMEZONE_PROVIDER")
	setString(&c.TimezoneDB.APIKey, "TIMEZONEDB_API_KEY")
	setString(&c.TimezoneDB.APIKeyFile, "TIMEZONEDB_API_KEY_FILE")
	setString(&c.TimezoneDB.BaseURL, "TIMEZONEDB_BASE_URL")
	setString(&c.Database.Driver, "DB_DRIVER")
	setString(&c.Database.Path, "DB_PATH")
	setString(&c.Database.URL, "DATABASE_URL")
	setString(&c.Cache.Backend, "CACHE_BACKEND")
	setString(&c.Cache.RedisURL, "REDIS_URL")
	setString(&c.Log.Level, "LOG_LEVEL")
	setString(&c.Log.Format, "LOG_FORMAT")

	if err := setDuration(&c.TimezoneDB.Timeout, "UPSTREAM_TIMEOUT"); err != nil {
		return err
	}
	if err := setDuration(&c.Cache.TTL, "CACHE_TTL"); err != nil {
		return err
	}
	if err := setInt(&c.TimezoneDB.MaxAttempts, "UPSTREAM_MAX_ATTEMPTS"); err != nil {
		return err
	}
	if err := setBool(&c.HistoryEnabled, "HISTORY_ENABLED"); err != nil {
		return err
	}
	return nil
}

// Validate checks enum values and cross-field requirements. A missing API
// key is deliberately not an error: lookups report it per request.
func (c Config) Validate() error {
	switch c.Provider {
	case ProviderTimezoneDB, ProviderOffline:
	default:
		return fmt.Errorf("unknown provider %q", c.Provider)
	}

	switch c.Database.Driver {
	case DriverSQLite:
		if strings.TrimSpace(c.Database.Path) == "" {
			return errors.New("DB_PATH is required for the sqlite driver")
		}
	case DriverPostgres:
		if strings.TrimSpace(c.Database.URL) == "" {
			return errors.New("DATABASE_URL is required for the postgres driver")
		}
	case DriverNone:
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}

	switch c.Cache.Backend {
	case CacheSQL:
		if c.Database.Driver == DriverNone {
			return errors.New("cache backend sql needs a database driver")
		}
	case CacheRedis:
		if strings.TrimSpace(c.Cache.RedisURL) == "" {
			return errors.New("REDIS_URL is required for the redis cache backend")
		}
	case CacheNone:
	default:
		return fmt.Errorf("unknown cache backend %q", c.Cache.Backend)
	}

	if c.Cache.TTL <= 0 {
		return errors.New("cache ttl must be positive")
	}
	if c.TimezoneDB.MaxAttempts < 1 {
		return errors.New("upstream max attempts must be at least 1")
	}
	if c.TimezoneDB.Timeout <= 0 {
		return errors.New("upstream timeout must be positive")
	}
	return nil
}

// HasDatabase reports whether a SQL database should be opened.
func (c Config) HasDatabase() bool { return c.Database.Driver != DriverNone }

// DSN returns the data source name for the configured driver.
func (c Config) DSN() string {
	if c.Database.Driver == DriverPostgres {
		return c.Database.URL
	}
	return c.Database.Path
}

// readKeyFile returns the first non-empty line of path.
func readKeyFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("read api key file: %w", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			return line, nil
		}
	}
	if err := sc.Err(); err != nil {
		return "", fmt.Errorf("read api key file: %w", err)
	}
	return "", fmt.Errorf("read api key file %q: file is empty", path)
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, key string) error {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("parse %s: %w", key, err)
	}
	*dst = d
	return nil
}

func setInt(dst *int, key string) error {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("parse %s: %w", key, err)
	}
	*dst = n
	return nil
}

func setBool(dst *bool, key string) error {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("parse %s: %w", key, err)
	}
	*dst = b
	return nil
}
