package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/retry"
	"gopkg.in/yaml.v3"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
	StorageRedis    = "redis"
)

type Config struct {
	Port     string         `yaml:"port"`
	Storage  string         `yaml:"storage"`
	Postgres PostgresConfig `yaml:"postgres"`
	Redis    RedisConfig    `yaml:"redis"`
	Cache    CacheConfig    `yaml:"cache"`
	Retry    RetryConfig    `yaml:"retry"`
	HelpDir  string         `yaml:"help_dir"`
	LogLevel string         `yaml:"log_level"`
}

type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

type RedisConfig struct {
	URL string        `yaml:"url"`
	TTL time.Duration `yaml:"ttl"`
}

// CacheConfig sizes the in-process LRU put in front of postgres or redis.
// Size 0 turns it off.
type CacheConfig struct {
	Size int           `yaml:"size"`
	TTL  time.Duration `yaml:"ttl"`
}

type RetryConfig struct {
	Attempts int           `yaml:"attempts"`
	Delay    time.Duration `yaml:"delay"`
	Backoff  float64       `yaml:"backoff"`
}

func Default() Config {
	return Config{
		Port:    "8080",
		Storage: StorageMemory,
		Cache: CacheConfig{
			Size: 256,
			TTL:  5 * time.Minute,
		},
		Retry: RetryConfig{
			Attempts: 5,
			Delay:    time.Second,
			Backoff:  2,
		},
		HelpDir:  "help-text",
		LogLevel: "info",
	}
}

// Load starts from Default, applies the YAML file at path when path is not
// empty, then the environment. A .env file in the working directory, if
// present, is read into the environment first.
func Load(path string) (Config, error) {
	cfg := Default()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("read .env: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	str("PORT", &c.Port)
	str("COMMENTFOREST_STORAGE", &c.Storage)
	str("COMMENTFOREST_PG_DSN", &c.Postgres.DSN)
	str("COMMENTFOREST_REDIS_URL", &c.Redis.URL)
	str("COMMENTFOREST_HELP_DIR", &c.HelpDir)
	str("COMMENTFOREST_LOG_LEVEL", &c.LogLevel)

	if v, ok := lookup("COMMENTFOREST_CACHE_SIZE"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("COMMENTFOREST_CACHE_SIZE: %w", err)
		}
		c.Cache.Size = n
	}
	if v, ok := lookup("COMMENTFOREST_REDIS_TTL"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("COMMENTFOREST_REDIS_TTL: %w", err)
		}
		c.Redis.TTL = d
	}
	return nil
}

func (c Config) Validate() error {
	if c.Port == "" {
		return errors.New("config: port is required")
	}
	switch c.Storage {
	case StorageMemory:
	case StoragePostgres:
		if c.Postgres.DSN == "" {
			return errors.New("config: postgres storage needs postgres.dsn")
		}
	case StorageRedis:
		if c.Redis.URL == "" {
			return errors.New("config: redis storage needs redis.url")
		}
	default:
		return fmt.Errorf("config: unknown storage %q", c.Storage)
	}
	if c.Cache.Size < 0 {
		return errors.New("config: cache.size must not be negative")
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("config: log_level: %w", err)
	}
	return nil
}

// Level is the parsed LogLevel; Validate has already checked it.
func (c Config) Level() zerolog.Level {
	lvl, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.InfoLevel
	}
	return lvl
}

func (c Config) RetryStrategy() retry.Strategy {
	return retry.Strategy{
		Attempts: c.Retry.Attempts,
		Delay:    c.Retry.Delay,
		Backoff:  c.Retry.Backoff,
	}
}
