package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Mixpanel MixpanelConfig `yaml:"mixpanel"`
	Host     HostConfig     `yaml:"host"`
	Redis    RedisConfig    `yaml:"redis"`
	Queue    QueueConfig    `yaml:"queue"`
	Dedupe   DedupeConfig   `yaml:"dedupe"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port           int      `yaml:"port"`
	Host           string   `yaml:"host"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// GetHost returns the server host, with container detection
func (c ServerConfig) GetHost() string {
	// On ECS/container, listen on all interfaces
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return "0.0.0.0"
	}
	if host := os.Getenv("SERVER_HOST"); host != "" {
		return host
	}
	return c.Host
}

// MixpanelConfig holds analytics API configuration. Token seeds the settings
// store when the host does not provide one through Redis.
type MixpanelConfig struct {
	Enabled        bool   `yaml:"enabled"`
	Token          string `yaml:"token"`
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Timeout returns the per-request timeout for analytics calls
func (c MixpanelConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// HostConfig describes the host commerce platform's read-only data sources
type HostConfig struct {
	DatabaseURL  string `yaml:"database_url"`
	SettingsHash string `yaml:"settings_hash"`
}

// RedisConfig holds the Redis connection used for host settings and sale claims
type RedisConfig struct {
	URL string `yaml:"url"`
}

// QueueConfig holds SQS hook delivery settings. Empty SQSURL disables the consumer.
// ForwardHTTP makes the HTTP endpoint enqueue actions instead of dispatching them.
type QueueConfig struct {
	SQSURL      string `yaml:"sqs_url"`
	WaitSeconds int    `yaml:"wait_seconds"`
	ForwardHTTP bool   `yaml:"forward_http"`
}

// DedupeConfig controls cross-instance sale claims
type DedupeConfig struct {
	Enabled    bool `yaml:"enabled"`
	TTLMinutes int  `yaml:"ttl_minutes"`
}

// TTL returns the claim lifetime
func (c DedupeConfig) TTL() time.Duration {
	return time.Duration(c.TTLMinutes) * time.Minute
}

// LogConfig holds logger settings
type LogConfig struct {
	Level     string `yaml:"level"`
	RedactPII *bool  `yaml:"redact_pii"`
}

// ShouldRedact defaults to true when unset
func (c LogConfig) ShouldRedact() bool {
	return c.RedactPII == nil || *c.RedactPII
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8081
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Mixpanel.BaseURL == "" {
		cfg.Mixpanel.BaseURL = "https://api.mixpanel.com"
	}
	if cfg.Mixpanel.TimeoutSeconds == 0 {
		cfg.Mixpanel.TimeoutSeconds = 10
	}
	if cfg.Host.SettingsHash == "" {
		cfg.Host.SettingsHash = "edd_settings"
	}
	if cfg.Queue.WaitSeconds == 0 {
		cfg.Queue.WaitSeconds = 20
	}
	if cfg.Dedupe.TTLMinutes == 0 {
		cfg.Dedupe.TTLMinutes = 30
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}

// LoadFromEnv loads configuration with environment variable overrides.
// It automatically loads a .env file (if present) before reading env vars,
// so secrets can live in .env locally and in real env vars on ECS.
// An empty path skips the YAML file and starts from defaults.
func LoadFromEnv(path string) (*Config, error) {
	// Load .env file if it exists (no error if missing)
	_ = godotenv.Load()

	var cfg *Config
	if path == "" {
		cfg = &Config{}
		applyDefaults(cfg)
	} else {
		var err error
		if cfg, err = Load(path); err != nil {
			return nil, err
		}
	}

	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		cfg.Server.AllowedOrigins = splitList(v)
	}
	if v := os.Getenv("MIXPANEL_TOKEN"); v != "" {
		cfg.Mixpanel.Token = v
		cfg.Mixpanel.Enabled = true
	}
	if v := os.Getenv("MIXPANEL_BASE_URL"); v != "" {
		cfg.Mixpanel.BaseURL = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Host.DatabaseURL = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Redis.URL = v
	}
	if v := os.Getenv("SQS_HOOK_QUEUE_URL"); v != "" {
		cfg.Queue.SQSURL = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}

	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
