package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv unsets every variable LoadConfig reads so host settings do not leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"ENV", "LOG_LEVEL", "DATA_DIR", "SERVER_PORT", "SERVER_READ_TIMEOUT",
		"SERVER_WRITE_TIMEOUT", "SERVER_IDLE_TIMEOUT", "CORS_ORIGINS", "RATE_LIMIT_RPS",
		"RATE_LIMIT_BURST", "DB_DRIVER", "DB_PATH", "DATABASE_URL", "AUTH_KEY_HEX",
		"ACCESS_TOKEN_DURATION", "SEARCH_CONFIG_FILE", "SEARCH_TEXT_WEIGHT",
		"SEARCH_EMBEDDING_WEIGHT", "SEARCH_MIN_SCORE", "EMBEDDING_DIMENSION",
		"SEARCH_STRATEGY", "EMBEDDER_BASE_URL", "EMBEDDER_API_KEY", "EMBEDDER_MODEL",
		"EMBEDDER_WORKERS",
	} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func load(t *testing.T, args ...string) (*Config, error) {
	t.Helper()
	base := []string{"-data-dir", t.TempDir(), "-env-file", filepath.Join(t.TempDir(), "missing.env")}
	return LoadConfig(append(base, args...))
}

func validConfig() *Config {
	return &Config{
		App:    AppConfig{Environment: "development", DataDir: "/data"},
		Logger: LoggerConfig{Level: "info"},
		Server: ServerConfig{
			Port:           "8080",
			ReadTimeout:    time.Second,
			WriteTimeout:   time.Second,
			IdleTimeout:    time.Second,
			RateLimitBurst: 1,
		},
		Database: DatabaseConfig{Driver: DriverSQLite, Path: "/data/illustrations.db"},
		Auth:     AuthConfig{AccessTokenDuration: time.Hour},
		Search:   defaultSearchConfig(),
		Embedder: EmbedderConfig{Model: "m", Workers: 1},
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := load(t)
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.App.Environment)
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, filepath.Join(cfg.App.DataDir, "illustrations.db"), cfg.Database.Path)
	assert.Equal(t, 24*time.Hour, cfg.Auth.AccessTokenDuration)
	assert.InDelta(t, 0.5, cfg.Search.TextWeight, 1e-9)
	assert.InDelta(t, 0.5, cfg.Search.EmbeddingWeight, 1e-9)
	assert.Equal(t, 384, cfg.Search.Dimension)
	assert.Equal(t, "weighted", cfg.Search.Strategy)
	assert.Equal(t, 60, cfg.Search.RRFK)
	assert.False(t, cfg.Embedder.Enabled())
}

func TestLoadConfig_Precedence(t *testing.T) {
	clearEnv(t)
	t.Setenv("SEARCH_TEXT_WEIGHT", "0.8")
	t.Setenv("SERVER_PORT", "9000")

	cfg, err := load(t, "-port", "9100")
	require.NoError(t, err)

	assert.Equal(t, "9100", cfg.Server.Port, "flag beats env")
	assert.InDelta(t, 0.8, cfg.Search.TextWeight, 1e-9, "env beats default")
}

func TestLoadConfig_EnvFile(t *testing.T) {
	clearEnv(t)
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("LOG_LEVEL=debug\nSEARCH_STRATEGY=rrf\n"), 0o600))
	t.Setenv("SEARCH_STRATEGY", "weighted")

	cfg, err := LoadConfig([]string{"-data-dir", t.TempDir(), "-env-file", envFile})
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.Equal(t, "weighted", cfg.Search.Strategy, "existing env wins over .env")
}

func TestLoadConfig_SearchFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "search.yaml")
	require.NoError(t, os.WriteFile(path, []byte("text_weight: 0.7\nembedding_weight: 0.3\nstrategy: rrf\nrrf_k: 30\n"), 0o600))
	t.Setenv("SEARCH_EMBEDDING_WEIGHT", "0.9")

	cfg, err := load(t, "-search-config", path)
	require.NoError(t, err)

	assert.InDelta(t, 0.7, cfg.Search.TextWeight, 1e-9)
	assert.InDelta(t, 0.9, cfg.Search.EmbeddingWeight, 1e-9, "env overrides the file")
	assert.Equal(t, "rrf", cfg.Search.Strategy)
	assert.Equal(t, 30, cfg.Search.RRFK)
	assert.Equal(t, 384, cfg.Search.Dimension, "unset keys keep defaults")
}

func TestLoadConfig_SearchFileUnknownKey(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "search.yaml")
	require.NoError(t, os.WriteFile(path, []byte("text_wieght: 0.7\n"), 0o600))

	_, err := load(t, "-search-config", path)
	assert.Error(t, err)
}

func TestLoadConfig_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "bad duration", args: []string{"-read-timeout", "soon"}},
		{name: "bad weight", args: []string{"-search-text-weight", "heavy"}},
		{name: "unknown driver", args: []string{"-db-driver", "mysql"}},
		{name: "postgres without url", args: []string{"-db-driver", "postgres"}},
		{name: "unknown strategy", args: []string{"-search-strategy", "max"}},
		{name: "min score out of range", args: []string{"-search-min-score", "1"}},
		{name: "zero weights", args: []string{"-search-text-weight", "0", "-search-embedding-weight", "0"}},
		{name: "unknown flag", args: []string{"-nope"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			_, err := load(t, tt.args...)
			assert.Error(t, err)
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		valid  bool
	}{
		{name: "valid", mutate: func(*Config) {}, valid: true},
		{name: "staging", mutate: func(c *Config) { c.App.Environment = "staging" }, valid: true},
		{name: "unknown environment", mutate: func(c *Config) { c.App.Environment = "test" }},
		{name: "environment is case sensitive", mutate: func(c *Config) { c.App.Environment = "PRODUCTION" }},
		{name: "unknown level", mutate: func(c *Config) { c.Logger.Level = "trace" }},
		{name: "non-numeric port", mutate: func(c *Config) { c.Server.Port = "http" }},
		{name: "short key", mutate: func(c *Config) { c.Auth.KeyHex = "abcd" }},
		{name: "embedder url", mutate: func(c *Config) { c.Embedder.BaseURL = "not a url" }},
		{
			name: "postgres with url",
			mutate: func(c *Config) {
				c.Database.Driver = DriverPostgres
				c.Database.URL = "postgres://localhost/illustrations"
			},
			valid: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	got, err := expandPath("~/Illustrations")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "Illustrations"), got)

	got, err = expandPath("relative/dir")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(got))
}

func TestSplitList(t *testing.T) {
	assert.Nil(t, splitList(""))
	assert.Equal(t, []string{"http://a", "http://b"}, splitList(" http://a, ,http://b "))
}

func TestSearchConfig_FuserConfig(t *testing.T) {
	fc := SearchConfig{TextWeight: 0.7, EmbeddingWeight: 0.3, MinScore: 0.1, Strategy: "rrf", RRFK: 10}.FuserConfig()

	assert.InDelta(t, 0.7, fc.TextWeight, 1e-9)
	assert.Equal(t, "rrf", fc.Strategy)
	assert.Equal(t, 10, fc.RRFK)
}
