package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig     `mapstructure:"server"`
	Database  DatabaseConfig   `mapstructure:"database"`
	Redis     RedisConfig      `mapstructure:"redis"`
	RateLimit RateLimitConfig  `mapstructure:"rate_limit"`
	Fusion    FusionConfig     `mapstructure:"fusion"`
	Providers []ProviderConfig `mapstructure:"providers"`
}

type ServerConfig struct {
	Port    string   `mapstructure:"port"`
	Env     string   `mapstructure:"env"`
	APIKeys []string `mapstructure:"api_keys"`
}

type DatabaseConfig struct {
	DSN string `mapstructure:"dsn"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Enabled  bool   `mapstructure:"enabled"`
}

type RateLimitConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

// ProviderConfig is the explicit credential/value object handed to each
// provider adapter. Credentials never live in mutable process environment
// once resolved.
type ProviderConfig struct {
	ID      string `mapstructure:"id" validate:"required"`
	Type    string `mapstructure:"type" validate:"required"`
	Name    string `mapstructure:"name"`
	APIKey  string `mapstructure:"api_key" validate:"required"`
	BaseURL string `mapstructure:"base_url"`
	Enabled bool   `mapstructure:"enabled"`

	// Models maps public model IDs served by this provider to the upstream
	// model ID sent on the wire. An empty upstream ID reuses the public one.
	Models map[string]string `mapstructure:"models"`

	// Config holds provider-specific extras (e.g. org headers).
	Config map[string]string `mapstructure:"config"`
}

// FusionConfig wires the fusion engine's external collaborators.
type FusionConfig struct {
	// Ranker/Fuser inference sidecar endpoints.
	RankerURL string `mapstructure:"ranker_url"`
	FuserURL  string `mapstructure:"fuser_url"`

	// Summarizer is the remote chat-completions endpoint used for the
	// Chinese fusion path and as the generative fallback target.
	SummarizerBaseURL string        `mapstructure:"summarizer_base_url"`
	SummarizerAPIKey  string        `mapstructure:"summarizer_api_key"`
	SummarizerModel   string        `mapstructure:"summarizer_model"`
	SummarizerTimeout time.Duration `mapstructure:"summarizer_timeout"`

	// StageTimeout bounds each rank/fuse call.
	StageTimeout time.Duration `mapstructure:"stage_timeout"`

	DefaultTopK int `mapstructure:"default_top_k"`

	// FuserMaxLength / FuserCandidateMaxLength widen the generative fuser's
	// input window per call.
	FuserMaxLength          int `mapstructure:"fuser_max_length"`
	FuserCandidateMaxLength int `mapstructure:"fuser_candidate_max_length"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig() (*Config, error) {
	// Load .env file if present
	_ = godotenv.Load()

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// Default Values
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.env", "development")
	v.SetDefault("database.dsn", "file:aibot.db?cache=shared&mode=rwc&_journal_mode=WAL&_busy_timeout=5000")
	v.SetDefault("redis.enabled", false)
	v.SetDefault("rate_limit.requests_per_second", 10.0)
	v.SetDefault("rate_limit.burst", 20)
	v.SetDefault("fusion.summarizer_base_url", "https://api.deepseek.com/v1")
	v.SetDefault("fusion.summarizer_model", "deepseek-chat")
	v.SetDefault("fusion.summarizer_timeout", 30*time.Second)
	v.SetDefault("fusion.stage_timeout", 60*time.Second)
	v.SetDefault("fusion.default_top_k", 3)
	v.SetDefault("fusion.fuser_max_length", 2048)
	v.SetDefault("fusion.fuser_candidate_max_length", 1024)

	// Environment Variables
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	// Resolve API Keys
	for i, p := range cfg.Providers {
		cfg.Providers[i].APIKey = resolveSecret(v, p.APIKey)
	}
	cfg.Fusion.SummarizerAPIKey = resolveSecret(v, cfg.Fusion.SummarizerAPIKey)

	return &cfg, nil
}

// resolveSecret expands "ENV:VAR" references against the process environment
// (explicit override) and then viper's own sources.
func resolveSecret(v *viper.Viper, raw string) string {
	if !strings.HasPrefix(raw, "ENV:") {
		return raw
	}
	envVar := strings.TrimPrefix(raw, "ENV:")
	if val := os.Getenv(envVar); val != "" {
		return val
	}
	return v.GetString(envVar)
}
