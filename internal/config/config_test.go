package config_test

import (
	"testing"

	"github.com/kode4food/argyll/wizard/internal/assert"
	"github.com/kode4food/argyll/wizard/internal/config"
)

func TestConfigValidation(t *testing.T) {
	as := assert.New(t)

	t.Run("valid_default_config", func(t *testing.T) {
		as.ConfigValid(config.NewDefaultConfig())
	})

	tests := []struct {
		name          string
		configMod     func(*config.Config)
		errorContains string
	}{
		{
			name: "unknown_log_level",
			configMod: func(c *config.Config) {
				c.LogLevel = "verbose"
			},
			errorContains: "invalid log level",
		},
		{
			name: "bucket_without_scheme",
			configMod: func(c *config.Config) {
				c.SnapshotBucketURL = "snapshots"
			},
			errorContains: "invalid snapshot bucket URL",
		},
		{
			name: "zero_definition_cache",
			configMod: func(c *config.Config) {
				c.DefinitionCacheSize = 0
			},
			errorContains: "cache size must be positive",
		},
		{
			name: "negative_script_cache",
			configMod: func(c *config.Config) {
				c.ScriptCacheSize = -1
			},
			errorContains: "cache size must be positive",
		},
		{
			name: "missing_redis_addr",
			configMod: func(c *config.Config) {
				c.Redis.Addr = ""
			},
			errorContains: "redis address is required",
		},
		{
			name: "redis_db_too_high",
			configMod: func(c *config.Config) {
				c.Redis.DB = 16
			},
			errorContains: "invalid redis database",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.NewDefaultConfig()
			tt.configMod(cfg)
			assert.New(t).ConfigInvalid(cfg, tt.errorContains)
		})
	}
}

func TestDefaultConfigValues(t *testing.T) {
	as := assert.New(t)

	cfg := config.NewDefaultConfig()

	as.Equal("info", cfg.LogLevel)
	as.Equal(config.DefaultSnapshotPrefix, cfg.SnapshotPrefix)
	as.Empty(cfg.SnapshotBucketURL)
	as.Equal(config.DefaultRedisEndpoint, cfg.Redis.Addr)
	as.Equal("wizard:", cfg.Redis.KeyPrefix())
	as.Equal(config.DefaultDefinitionCacheSize, cfg.DefinitionCacheSize)
	as.Equal(config.DefaultScriptCacheSize, cfg.ScriptCacheSize)
}

func TestLoadFromEnv(t *testing.T) {
	as := assert.New(t)

	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("SNAPSHOT_BUCKET_URL", "mem://")
	t.Setenv("SNAPSHOT_PREFIX", "snap/")
	t.Setenv("REDIS_ADDR", "redis.example.com:6379")
	t.Setenv("REDIS_PASSWORD", "secret123")
	t.Setenv("REDIS_DB", "5")
	t.Setenv("REDIS_PREFIX", "custom")
	t.Setenv("DEFINITION_CACHE_SIZE", "12")
	t.Setenv("SCRIPT_CACHE_SIZE", "34")

	cfg := config.NewDefaultConfig()
	as.NoError(cfg.LoadFromEnv())
	as.ConfigValid(cfg)

	as.Equal("debug", cfg.LogLevel)
	as.Equal("mem://", cfg.SnapshotBucketURL)
	as.Equal("snap/", cfg.SnapshotPrefix)
	as.Equal(config.RedisConfig{
		Addr:     "redis.example.com:6379",
		Password: "secret123",
		DB:       5,
		Prefix:   "custom",
	}, cfg.Redis)
	as.Equal(12, cfg.DefinitionCacheSize)
	as.Equal(34, cfg.ScriptCacheSize)
}

func TestLoadFromEnvErrors(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   string
		message string
	}{
		{"bad_redis_db", "REDIS_DB", "not_a_number", "invalid redis setting"},
		{
			"bad_definition_cache", "DEFINITION_CACHE_SIZE", "abc",
			"invalid DEFINITION_CACHE_SIZE",
		},
		{
			"script_cache_zero", "SCRIPT_CACHE_SIZE", "0",
			"out of range",
		},
		{
			"script_cache_too_big", "SCRIPT_CACHE_SIZE", "2000000",
			"out of range",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			as := assert.New(t)
			t.Setenv(tt.key, tt.value)
			err := config.NewDefaultConfig().LoadFromEnv()
			as.Error(err)
			if err != nil {
				as.Contains(err.Error(), tt.message)
			}
		})
	}
}

func TestRedisOptions(t *testing.T) {
	as := assert.New(t)
	r := config.RedisConfig{Addr: "h:1", Password: "p", DB: 3}
	opts := r.Options()
	as.Equal("h:1", opts.Addr)
	as.Equal("p", opts.Password)
	as.Equal(3, opts.DB)
	as.Equal(2, opts.Protocol)
	as.Empty(r.KeyPrefix())
}
