// Package config loads crawler configuration from an optional YAML file and
// CRAWLER_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Sternrassler/school-directory-crawler/pkg/cache"
	"github.com/Sternrassler/school-directory-crawler/pkg/client"
	"github.com/Sternrassler/school-directory-crawler/pkg/directory"
	"github.com/Sternrassler/school-directory-crawler/pkg/logging"
	"github.com/rs/zerolog"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "CRAWLER_"

// DefaultUserAgent identifies the crawler to the upstream API.
const DefaultUserAgent = "school-directory-crawler/0.1.0"

// Config is the top-level crawler configuration.
type Config struct {
	BaseURL            string        `yaml:"base_url"`
	UserAgent          string        `yaml:"user_agent"`
	BatchLimit         int           `yaml:"batch_limit"`
	RequestTimeout     time.Duration `yaml:"request_timeout"` // 0 = unbounded
	MaxAttempts        int           `yaml:"max_attempts"`
	InitialBackoff     time.Duration `yaml:"initial_backoff"`
	StagingDir         string        `yaml:"staging_dir"`
	KeepStagingOnError bool          `yaml:"keep_staging_on_error"`
	OutputDir          string        `yaml:"output_dir"`
	AreaFile           string        `yaml:"area_file"`
	MetricsAddr        string        `yaml:"metrics_addr"`

	Log   LogConfig   `yaml:"log"`
	Redis RedisConfig `yaml:"redis"`
}

// LogConfig controls the logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// RedisConfig controls the optional response cache.
type RedisConfig struct {
	Addr string        `yaml:"addr"` // empty disables the cache
	DB   int           `yaml:"db"`
	TTL  time.Duration `yaml:"ttl"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	retry := client.DefaultRetryConfig()
	return Config{
		BaseURL:        client.DefaultBaseURL,
		UserAgent:      DefaultUserAgent,
		BatchLimit:     directory.DefaultBatchLimit,
		RequestTimeout: 2 * time.Minute,
		MaxAttempts:    retry.MaxAttempts,
		InitialBackoff: retry.InitialBackoff,
		OutputDir:      ".",
		Log:            LogConfig{Level: string(logging.LevelInfo)},
		Redis:          RedisConfig{TTL: cache.DefaultTTL},
	}
}

// Load builds the configuration: defaults, then the YAML file at path (if
// path is non-empty), then environment overrides. The result is validated.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyDefaults fills fields that must never be empty.
func (c *Config) applyDefaults() {
	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}
	if c.OutputDir == "" {
		c.OutputDir = "."
	}
	if c.Log.Level == "" {
		c.Log.Level = string(logging.LevelInfo)
	}
	if c.Redis.TTL <= 0 {
		c.Redis.TTL = cache.DefaultTTL
	}
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	var errs []error

	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok && v != "" {
			*dst = v
		}
	}
	num := func(name string, dst *int) {
		v, ok := lookup(EnvPrefix + name)
		if !ok || v == "" {
			return
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
			return
		}
		*dst = n
	}
	dur := func(name string, dst *time.Duration) {
		v, ok := lookup(EnvPrefix + name)
		if !ok || v == "" {
			return
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
			return
		}
		*dst = d
	}
	flag := func(name string, dst *bool) {
		v, ok := lookup(EnvPrefix + name)
		if !ok || v == "" {
			return
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
			return
		}
		*dst = b
	}

	str("BASE_URL", &c.BaseURL)
	str("USER_AGENT", &c.UserAgent)
	num("BATCH_LIMIT", &c.BatchLimit)
	dur("REQUEST_TIMEOUT", &c.RequestTimeout)
	num("MAX_ATTEMPTS", &c.MaxAttempts)
	dur("INITIAL_BACKOFF", &c.InitialBackoff)
	str("STAGING_DIR", &c.StagingDir)
	flag("KEEP_STAGING_ON_ERROR", &c.KeepStagingOnError)
	str("OUTPUT_DIR", &c.OutputDir)
	str("AREA_FILE", &c.AreaFile)
	str("METRICS_ADDR", &c.MetricsAddr)
	str("LOG_LEVEL", &c.Log.Level)
	flag("LOG_PRETTY", &c.Log.Pretty)
	str("REDIS_ADDR", &c.Redis.Addr)
	num("REDIS_DB", &c.Redis.DB)
	dur("REDIS_TTL", &c.Redis.TTL)

	return errors.Join(errs...)
}

// Validate reports every invalid field.
func (c *Config) Validate() error {
	var errs []error
	if c.BaseURL == "" {
		errs = append(errs, errors.New("base_url is required"))
	}
	if c.BatchLimit <= 0 {
		errs = append(errs, fmt.Errorf("batch_limit must be > 0 (got %d)", c.BatchLimit))
	}
	if c.RequestTimeout < 0 {
		errs = append(errs, fmt.Errorf("request_timeout must be >= 0 (got %s)", c.RequestTimeout))
	}
	if c.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("max_attempts must be >= 1 (got %d)", c.MaxAttempts))
	}
	if c.InitialBackoff < 0 {
		errs = append(errs, fmt.Errorf("initial_backoff must be >= 0 (got %s)", c.InitialBackoff))
	}
	if c.Redis.DB < 0 {
		errs = append(errs, fmt.Errorf("redis.db must be >= 0 (got %d)", c.Redis.DB))
	}
	return errors.Join(errs...)
}

// ClientConfig returns the upstream client configuration. The response cache
// is attached by the caller.
func (c *Config) ClientConfig(logger zerolog.Logger) client.Config {
	cfg := client.DefaultConfig(c.BaseURL, c.UserAgent)
	cfg.Timeout = c.RequestTimeout
	cfg.Retry.MaxAttempts = c.MaxAttempts
	if c.InitialBackoff > 0 {
		cfg.Retry.InitialBackoff = c.InitialBackoff
	}
	cfg.Logger = logger
	return cfg
}

// CrawlerConfig returns the orchestrator configuration.
func (c *Config) CrawlerConfig(logger zerolog.Logger) directory.Config {
	cfg := directory.DefaultConfig()
	cfg.BatchLimit = c.BatchLimit
	cfg.StagingDir = c.StagingDir
	cfg.KeepStagingOnError = c.KeepStagingOnError
	cfg.Logger = logger
	return cfg
}

// LoggingConfig returns the logger configuration.
func (c *Config) LoggingConfig() logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Level = logging.LogLevel(c.Log.Level)
	cfg.Pretty = c.Log.Pretty
	return cfg
}
