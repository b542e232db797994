package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/kode4food/argyll/wizard/pkg/log"
)

type (
	// Config holds configuration settings for the wizard runtime
	Config struct {
		LogLevel string

		// Snapshots
		SnapshotBucketURL string
		SnapshotPrefix    string

		// Redis persistence and snapshots
		Redis RedisConfig

		// Caches
		DefinitionCacheSize int
		ScriptCacheSize     int
	}

	// RedisConfig holds the connection settings shared by the Redis
	// persister and the Redis snapshot store
	RedisConfig struct {
		Addr     string
		Password string
		DB       int
		Prefix   string
	}
)

const (
	DefaultLogLevel       = "info"
	DefaultSnapshotPrefix = "wizard/"

	DefaultRedisEndpoint = "localhost:6379"
	DefaultRedisPrefix   = "wizard"
	DefaultRedisDB       = 0
	MaxRedisDB           = 15

	DefaultDefinitionCacheSize = 256
	DefaultScriptCacheSize     = 1024
	MaxDefinitionCacheSize     = 100_000
	MaxScriptCacheSize         = 1_000_000
)

var (
	ErrInvalidLogLevel   = errors.New("invalid log level")
	ErrInvalidRedisDB    = errors.New("invalid redis database")
	ErrMissingRedisAddr  = errors.New("redis address is required")
	ErrInvalidCacheSize  = errors.New("cache size must be positive")
	ErrInvalidBucketURL  = errors.New("invalid snapshot bucket URL")
	ErrInvalidRedisValue = errors.New("invalid redis setting")
)

// NewDefaultConfig creates a configuration with sensible defaults for
// logging, caches, and the Redis connection
func NewDefaultConfig() *Config {
	return &Config{
		LogLevel:       DefaultLogLevel,
		SnapshotPrefix: DefaultSnapshotPrefix,
		Redis: RedisConfig{
			Addr:   DefaultRedisEndpoint,
			DB:     DefaultRedisDB,
			Prefix: DefaultRedisPrefix,
		},
		DefinitionCacheSize: DefaultDefinitionCacheSize,
		ScriptCacheSize:     DefaultScriptCacheSize,
	}
}

// LoadFromEnv populates configuration values from environment variables.
// Returns an error if any env var cannot be parsed.
func (c *Config) LoadFromEnv() error {
	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		c.LogLevel = logLevel
	}
	if bucket := os.Getenv("SNAPSHOT_BUCKET_URL"); bucket != "" {
		c.SnapshotBucketURL = bucket
	}
	if prefix := os.Getenv("SNAPSHOT_PREFIX"); prefix != "" {
		c.SnapshotPrefix = prefix
	}
	if err := c.Redis.LoadFromEnv("REDIS"); err != nil {
		return err
	}

	if err := loadEnvInt(
		"DEFINITION_CACHE_SIZE", &c.DefinitionCacheSize, 0,
		MaxDefinitionCacheSize,
	); err != nil {
		return err
	}
	return loadEnvInt(
		"SCRIPT_CACHE_SIZE", &c.ScriptCacheSize, 0, MaxScriptCacheSize,
	)
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	if _, ok := log.ParseLevel(c.LogLevel); !ok {
		return fmt.Errorf("%w: %s", ErrInvalidLogLevel, c.LogLevel)
	}

	if c.SnapshotBucketURL != "" && !strings.Contains(
		c.SnapshotBucketURL, "://",
	) {
		return fmt.Errorf("%w: %s", ErrInvalidBucketURL, c.SnapshotBucketURL)
	}

	if c.DefinitionCacheSize <= 0 || c.ScriptCacheSize <= 0 {
		return ErrInvalidCacheSize
	}

	return c.Redis.Validate()
}

// LoadFromEnv loads Redis settings from environment variables with the
// given prefix (e.g. "REDIS" reads REDIS_ADDR)
func (r *RedisConfig) LoadFromEnv(prefix string) error {
	if addr := os.Getenv(prefix + "_ADDR"); addr != "" {
		r.Addr = addr
	}
	if password := os.Getenv(prefix + "_PASSWORD"); password != "" {
		r.Password = password
	}
	if keyPrefix := os.Getenv(prefix + "_PREFIX"); keyPrefix != "" {
		r.Prefix = keyPrefix
	}
	if dbStr := os.Getenv(prefix + "_DB"); dbStr != "" {
		db, err := strconv.Atoi(dbStr)
		if err != nil {
			return fmt.Errorf("%w: %s_DB=%q", ErrInvalidRedisValue, prefix,
				dbStr)
		}
		r.DB = db
	}
	return nil
}

// Validate checks the Redis connection settings
func (r *RedisConfig) Validate() error {
	if r.Addr == "" {
		return ErrMissingRedisAddr
	}
	if r.DB < 0 || r.DB > MaxRedisDB {
		return fmt.Errorf("%w: %d", ErrInvalidRedisDB, r.DB)
	}
	return nil
}

// Options returns the go-redis client options for these settings
func (r *RedisConfig) Options() *redis.Options {
	return &redis.Options{
		Addr:            r.Addr,
		Password:        r.Password,
		DB:              r.DB,
		Protocol:        2,
		DisableIdentity: true,
	}
}

// KeyPrefix returns the Prefix followed by the key separator, or nothing
// when no prefix is configured
func (r *RedisConfig) KeyPrefix() string {
	if r.Prefix == "" {
		return ""
	}
	return r.Prefix + ":"
}

// loadEnvInt reads key from the environment, parses it as an integer, and
// sets *dst if the value is in the range (min, max). Returns an error if
// the value cannot be parsed or falls outside the valid range.
func loadEnvInt[T ~int | ~int64](key string, dst *T, min, max T) error {
	s := os.Getenv(key)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid %s: %q", key, s)
	}
	tv := T(v)
	if tv <= min || tv > max {
		return fmt.Errorf("invalid %s: %d out of range [%d, %d]",
			key, tv, min+1, max)
	}
	*dst = tv
	return nil
}
