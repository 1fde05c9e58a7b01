package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	LLM     LLMConfig     `mapstructure:"llm"`
	Quota   QuotaConfig   `mapstructure:"quota"`
	Catalog CatalogConfig `mapstructure:"catalog"`
	Session SessionConfig `mapstructure:"session"`
	Log     LogConfig     `mapstructure:"log"`
}

type ServerConfig struct {
	Port           string        `mapstructure:"port"`
	Host           string        `mapstructure:"host"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	// TrustForwardedFor uses the first X-Forwarded-For hop as the client
	// identity. The header is client controlled, so only enable this behind a
	// proxy that overwrites it.
	TrustForwardedFor bool `mapstructure:"trust_forwarded_for"`
}

type LLMConfig struct {
	Provider    string        `mapstructure:"provider"`
	APIKey      string        `mapstructure:"api_key"`
	Endpoint    string        `mapstructure:"endpoint"`
	Model       string        `mapstructure:"model"`
	APIVersion  string        `mapstructure:"api_version"`
	Timeout     time.Duration `mapstructure:"timeout"`
	Temperature float64       `mapstructure:"temperature"`
	MaxTokens   int64         `mapstructure:"max_tokens"`
}

type QuotaConfig struct {
	Store         string `mapstructure:"store"`
	DailyLimit    int    `mapstructure:"daily_limit"`
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`
	KeyPrefix     string `mapstructure:"key_prefix"`
	SQLitePath    string `mapstructure:"sqlite_path"`
}

type CatalogConfig struct {
	Path string `mapstructure:"path"`
}

type SessionConfig struct {
	IdleTimeout time.Duration `mapstructure:"idle_timeout"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

var defaults = map[string]any{
	"server.port":                "8000",
	"server.host":                "0.0.0.0",
	"server.read_timeout":        "30s",
	"server.write_timeout":       "90s", // must exceed request_timeout
	"server.request_timeout":     "60s",
	"server.trust_forwarded_for": false,

	"llm.provider":    "openai",
	"llm.api_key":     "",
	"llm.endpoint":    "",
	"llm.model":       "gpt-4o-mini",
	"llm.api_version": "2024-06-01",
	"llm.timeout":     "30s",
	"llm.temperature": 0.7,
	"llm.max_tokens":  1000,

	"quota.store":          "memory",
	"quota.daily_limit":    10,
	"quota.redis_addr":     "localhost:6379",
	"quota.redis_password": "",
	"quota.redis_db":       0,
	"quota.key_prefix":     "quota:",
	"quota.sqlite_path":    "./quota.db",

	"catalog.path": "",

	"session.idle_timeout": "1h",

	"log.level":  "info",
	"log.format": "text",
}

// LoadConfig reads configuration from defaults, an optional YAML file and the
// environment, in increasing order of precedence. Keys map to environment
// variables by upper-casing and replacing dots with underscores
// (llm.api_key -> LLM_API_KEY).
func LoadConfig(file string) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", file, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	slog.Info("configuration loaded successfully", "provider", cfg.LLM.Provider, "quotaStore", cfg.Quota.Store)
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case "openai", "azure", "gemini":
	default:
		return fmt.Errorf("unsupported llm provider %q", c.LLM.Provider)
	}
	if c.LLM.Provider == "azure" && c.LLM.Endpoint == "" {
		return fmt.Errorf("llm.endpoint (LLM_ENDPOINT) is required for azure")
	}
	if c.LLM.APIKey == "" {
		return fmt.Errorf("llm.api_key (LLM_API_KEY) is required")
	}

	switch c.Quota.Store {
	case "memory", "redis", "sqlite":
	default:
		return fmt.Errorf("unsupported quota store %q", c.Quota.Store)
	}
	if c.Quota.DailyLimit <= 0 {
		return fmt.Errorf("quota.daily_limit must be positive, got %d", c.Quota.DailyLimit)
	}
	return nil
}

// SlogLevel returns the configured slog level, defaulting to info.
func (c LogConfig) SlogLevel() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.Level)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}
