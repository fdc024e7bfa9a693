// Package config provides application configuration management with support for environment variables, command-line flags, and .env files.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/illustrationsapp/illustrations-server/internal/search"
	"github.com/illustrationsapp/illustrations-server/internal/validation"
)

// Database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds the application configuration.
type Config struct {
	App      AppConfig
	Logger   LoggerConfig
	Server   ServerConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Search   SearchConfig
	Embedder EmbedderConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string `validate:"oneof=development staging production"`
	// DataDir holds the SQLite database and the token key file.
	DataDir string `validate:"required"`
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string `validate:"oneof=debug info warn error"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port           string        `validate:"required,numeric"`
	ReadTimeout    time.Duration `validate:"gt=0"`
	WriteTimeout   time.Duration `validate:"gt=0"`
	IdleTimeout    time.Duration `validate:"gt=0"`
	CORSOrigins    []string
	RateLimitRPS   float64 `validate:"gte=0"` // 0 disables rate limiting
	RateLimitBurst int     `validate:"gte=1"`
}

// DatabaseConfig selects the backing store.
type DatabaseConfig struct {
	Driver string `validate:"oneof=sqlite postgres"`
	Path   string // SQLite file, defaults to {data}/illustrations.db
	URL    string `validate:"required_if=Driver postgres"`
}

// AuthConfig holds access token configuration.
type AuthConfig struct {
	// KeyHex is a 32-byte PASETO v4 key. Empty means load or generate {data}/auth.key.
	KeyHex              string        `validate:"omitempty,len=64,hexadecimal"`
	AccessTokenDuration time.Duration `validate:"gt=0"`
}

// SearchConfig tunes candidate fusion. Values may come from a YAML file.
type SearchConfig struct {
	TextWeight      float64 `yaml:"text_weight" validate:"gte=0"`
	EmbeddingWeight float64 `yaml:"embedding_weight" validate:"gte=0"`
	MinScore        float64 `yaml:"min_score" validate:"gte=0,lt=1"`
	Dimension       int     `yaml:"dimension" validate:"gte=1,lte=8192"`
	Strategy        string  `yaml:"strategy" validate:"oneof=weighted rrf"`
	RRFK            int     `yaml:"rrf_k" validate:"gte=1"`
}

// FuserConfig converts search tuning into fuser settings.
func (s SearchConfig) FuserConfig() search.FuserConfig {
	return search.FuserConfig{
		TextWeight:      s.TextWeight,
		EmbeddingWeight: s.EmbeddingWeight,
		MinScore:        s.MinScore,
		Strategy:        s.Strategy,
		RRFK:            s.RRFK,
	}
}

// EmbedderConfig configures the OpenAI-compatible embeddings endpoint.
type EmbedderConfig struct {
	BaseURL string `validate:"omitempty,url"`
	APIKey  string
	Model   string `validate:"required"`
	Workers int    `validate:"gte=1,lte=64"`
}

// Enabled reports whether illustrations should be embedded.
func (e EmbedderConfig) Enabled() bool {
	return e.APIKey != "" || e.BaseURL != ""
}

// LoadConfig loads configuration from multiple sources with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Search YAML file (search keys only).
// 5. Default values (lowest priority).
func LoadConfig(args []string) (*Config, error) {
	fs := flag.NewFlagSet("illustrations-server", flag.ContinueOnError)

	env := fs.String("env", "", "Environment (development, staging, production)")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")
	dataDir := fs.String("data-dir", "", "Directory for the database and key file")
	envFile := fs.String("env-file", ".env", "Path to .env file")

	serverPort := fs.String("port", "", "Server port (default: 8080)")
	readTimeout := fs.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := fs.String("write-timeout", "", "HTTP write timeout (default: 30s)")
	idleTimeout := fs.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")
	corsOrigins := fs.String("cors-origins", "", "Comma-separated allowed CORS origins")
	rateLimitRPS := fs.String("rate-limit-rps", "", "Requests per second per owner (default: 20)")
	rateLimitBurst := fs.String("rate-limit-burst", "", "Request burst per owner (default: 40)")

	dbDriver := fs.String("db-driver", "", "Database driver: sqlite or postgres")
	dbPath := fs.String("db-path", "", "SQLite database file")
	dbURL := fs.String("database-url", "", "Postgres connection URL")

	tokenDuration := fs.String("access-token-duration", "", "Access token lifetime (default: 24h)")

	searchFile := fs.String("search-config", "", "YAML file with search tuning")
	textWeight := fs.String("search-text-weight", "", "Weight of the trigram signal")
	embeddingWeight := fs.String("search-embedding-weight", "", "Weight of the embedding signal")
	minScore := fs.String("search-min-score", "", "Drop candidates at or below this score")
	dimension := fs.String("embedding-dimension", "", "Embedding vector length (default: 384)")
	strategy := fs.String("search-strategy", "", "Fusion strategy: weighted or rrf")

	embedderURL := fs.String("embedder-url", "", "OpenAI-compatible API base URL")
	embedderModel := fs.String("embedder-model", "", "Embedding model name")
	embedderWorkers := fs.String("embedder-workers", "", "Concurrent embedding requests during reindex")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	// Missing .env is fine. Existing environment variables win.
	_ = godotenv.Load(*envFile)

	searchDefaults := defaultSearchConfig()
	if path := getConfigValue(*searchFile, "SEARCH_CONFIG_FILE", ""); path != "" {
		if err := loadSearchFile(path, &searchDefaults); err != nil {
			return nil, err
		}
	}

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
			DataDir:     getConfigValue(*dataDir, "DATA_DIR", ""),
		},
		Logger: LoggerConfig{
			Level: strings.ToLower(getConfigValue(*logLevel, "LOG_LEVEL", "info")),
		},
		Server: ServerConfig{
			Port:        getConfigValue(*serverPort, "SERVER_PORT", "8080"),
			CORSOrigins: splitList(getConfigValue(*corsOrigins, "CORS_ORIGINS", "")),
		},
		Database: DatabaseConfig{
			Driver: strings.ToLower(getConfigValue(*dbDriver, "DB_DRIVER", DriverSQLite)),
			Path:   getConfigValue(*dbPath, "DB_PATH", ""),
			URL:    getConfigValue(*dbURL, "DATABASE_URL", ""),
		},
		Auth: AuthConfig{
			KeyHex: os.Getenv("AUTH_KEY_HEX"),
		},
		Embedder: EmbedderConfig{
			BaseURL: getConfigValue(*embedderURL, "EMBEDDER_BASE_URL", ""),
			APIKey:  os.Getenv("EMBEDDER_API_KEY"),
			Model:   getConfigValue(*embedderModel, "EMBEDDER_MODEL", "text-embedding-3-small"),
		},
	}

	var err error
	if cfg.Server.ReadTimeout, err = getDurationConfigValue(*readTimeout, "SERVER_READ_TIMEOUT", "15s"); err != nil {
		return nil, err
	}
	if cfg.Server.WriteTimeout, err = getDurationConfigValue(*writeTimeout, "SERVER_WRITE_TIMEOUT", "30s"); err != nil {
		return nil, err
	}
	if cfg.Server.IdleTimeout, err = getDurationConfigValue(*idleTimeout, "SERVER_IDLE_TIMEOUT", "60s"); err != nil {
		return nil, err
	}
	if cfg.Auth.AccessTokenDuration, err = getDurationConfigValue(*tokenDuration, "ACCESS_TOKEN_DURATION", "24h"); err != nil {
		return nil, err
	}
	if cfg.Server.RateLimitRPS, err = getFloatConfigValue(*rateLimitRPS, "RATE_LIMIT_RPS", 20); err != nil {
		return nil, err
	}
	if cfg.Server.RateLimitBurst, err = getIntConfigValue(*rateLimitBurst, "RATE_LIMIT_BURST", 40); err != nil {
		return nil, err
	}
	if cfg.Embedder.Workers, err = getIntConfigValue(*embedderWorkers, "EMBEDDER_WORKERS", 4); err != nil {
		return nil, err
	}

	cfg.Search = searchDefaults
	cfg.Search.Strategy = strings.ToLower(getConfigValue(*strategy, "SEARCH_STRATEGY", searchDefaults.Strategy))
	if cfg.Search.TextWeight, err = getFloatConfigValue(*textWeight, "SEARCH_TEXT_WEIGHT", searchDefaults.TextWeight); err != nil {
		return nil, err
	}
	if cfg.Search.EmbeddingWeight, err = getFloatConfigValue(*embeddingWeight, "SEARCH_EMBEDDING_WEIGHT", searchDefaults.EmbeddingWeight); err != nil {
		return nil, err
	}
	if cfg.Search.MinScore, err = getFloatConfigValue(*minScore, "SEARCH_MIN_SCORE", searchDefaults.MinScore); err != nil {
		return nil, err
	}
	if cfg.Search.Dimension, err = getIntConfigValue(*dimension, "EMBEDDING_DIMENSION", searchDefaults.Dimension); err != nil {
		return nil, err
	}

	if err := cfg.expandPaths(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func defaultSearchConfig() SearchConfig {
	def := search.DefaultFuserConfig()
	return SearchConfig{
		TextWeight:      def.TextWeight,
		EmbeddingWeight: def.EmbeddingWeight,
		MinScore:        def.MinScore,
		Dimension:       384,
		Strategy:        def.Strategy,
		RRFK:            def.RRFK,
	}
}

// Validate checks struct constraints and the rules that span fields.
func (c *Config) Validate() error {
	if err := validation.New().Validate(c); err != nil {
		return err
	}
	if c.Search.TextWeight+c.Search.EmbeddingWeight <= 0 {
		return errors.New("search weights must not both be zero")
	}
	return nil
}

func (c *Config) expandPaths() error {
	if c.App.DataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}
		c.App.DataDir = filepath.Join(homeDir, "Illustrations")
	}

	dir, err := expandPath(c.App.DataDir)
	if err != nil {
		return fmt.Errorf("invalid data dir: %w", err)
	}
	c.App.DataDir = dir

	if c.Database.Path == "" {
		c.Database.Path = filepath.Join(dir, "illustrations.db")
		return nil
	}
	if c.Database.Path, err = expandPath(c.Database.Path); err != nil {
		return fmt.Errorf("invalid database path: %w", err)
	}
	return nil
}

// expandPath expands ~ and makes the path absolute.
func expandPath(path string) (string, error) {
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}
	return defaultValue
}

func getIntConfigValue(flagValue, envKey string, defaultValue int) (int, error) {
	s := getConfigValue(flagValue, envKey, "")
	if s == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", envKey, s, err)
	}
	return v, nil
}

func getFloatConfigValue(flagValue, envKey string, defaultValue float64) (float64, error) {
	s := getConfigValue(flagValue, envKey, "")
	if s == "" {
		return defaultValue, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", envKey, s, err)
	}
	return v, nil
}

func getDurationConfigValue(flagValue, envKey, defaultValue string) (time.Duration, error) {
	s := getConfigValue(flagValue, envKey, defaultValue)
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", envKey, s, err)
	}
	return d, nil
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
