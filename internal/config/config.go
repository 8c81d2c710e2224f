// Package config loads the process configuration from the environment, an
// optional YAML file on top of it, and validates the result.
package config

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Config struct {
	BackendURL     string        `yaml:"backend_url" validate:"required,url"`
	BackendTimeout time.Duration `yaml:"backend_timeout" validate:"gt=0"`

	DefaultWindowDays    int    `yaml:"default_window_days" validate:"gt=0"`
	AllowedWindows       []int  `yaml:"allowed_windows" validate:"min=1,dive,gt=0"`
	BatchEndpoint        bool   `yaml:"batch_endpoint"`
	MetricsFailurePolicy string `yaml:"metrics_failure_policy" validate:"oneof=unknown outage"`

	ServerAddr           string        `yaml:"server_addr" validate:"required"`
	RefreshInterval      time.Duration `yaml:"refresh_interval" validate:"gte=0"`
	RefreshRatePerMinute int           `yaml:"refresh_rate_per_minute" validate:"gt=0"`

	RedisAddr     string        `yaml:"redis_addr" validate:"omitempty,hostname_port"`
	RedisPassword string        `yaml:"redis_password"`
	RedisDB       int           `yaml:"redis_db" validate:"gte=0"`
	CacheTTL      time.Duration `yaml:"cache_ttl" validate:"gte=0"`

	LogLevel  string `yaml:"log_level" validate:"oneof=debug info warn error"`
	LogFormat string `yaml:"log_format" validate:"oneof=json console"`

	NotifyType       string `yaml:"notify_type" validate:"omitempty,oneof=slack telegram"`
	NotifyWebhookURL string `yaml:"notify_webhook_url" validate:"omitempty,url"`
	NotifyToken      string `yaml:"notify_token" validate:"required_if=NotifyType telegram"`
	NotifyChatID     string `yaml:"notify_chat_id" validate:"required_if=NotifyType telegram"`
}

var validate = validator.New()

// Load reads the environment, overlays the YAML file at path (or at
// CONFIG_FILE when path is empty) and validates.
func Load(path string) (*Config, error) {
	cfg := FromEnv()

	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}
	if path != "" {
		if err := cfg.overlayFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromEnv returns the configuration described by the environment, with
// defaults for everything unset. It does not validate.
func FromEnv() *Config {
	return &Config{
		BackendURL:           getEnv("BACKEND_URL", "http://localhost:3001"),
		BackendTimeout:       time.Duration(getEnvInt("BACKEND_TIMEOUT_MS", 10000)) * time.Millisecond,
		DefaultWindowDays:    getEnvInt("DEFAULT_WINDOW_DAYS", 30),
		AllowedWindows:       getEnvInts("ALLOWED_WINDOWS", []int{7, 30, 90}),
		BatchEndpoint:        getEnvBool("BATCH_ENDPOINT", true),
		MetricsFailurePolicy: getEnv("METRICS_FAILURE_POLICY", "unknown"),
		ServerAddr:           getEnv("SERVER_ADDR", ":8080"),
		RefreshInterval:      getEnvDuration("REFRESH_INTERVAL", 60*time.Second),
		RefreshRatePerMinute: getEnvInt("REFRESH_RATE_PER_MINUTE", 6),
		RedisAddr:            getEnv("REDIS_ADDR", ""),
		RedisPassword:        getEnv("REDIS_PASSWORD", ""),
		RedisDB:              getEnvInt("REDIS_DB", 0),
		CacheTTL:             getEnvDuration("CACHE_TTL", 30*time.Second),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		LogFormat:            getEnv("LOG_FORMAT", "json"),
		NotifyType:           getEnv("NOTIFY_TYPE", ""),
		NotifyWebhookURL:     getEnv("NOTIFY_WEBHOOK_URL", ""),
		NotifyToken:          getEnv("NOTIFY_TOKEN", ""),
		NotifyChatID:         getEnv("NOTIFY_CHAT_ID", ""),
	}
}

func (c *Config) overlayFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.NotifyType == "slack" && c.NotifyWebhookURL == "" {
		return fmt.Errorf("invalid configuration: slack notifications need a webhook url")
	}
	if !c.IsAllowedWindow(c.DefaultWindowDays) {
		return fmt.Errorf("invalid configuration: default window %d is not one of %v", c.DefaultWindowDays, c.AllowedWindows)
	}
	return nil
}

func (c *Config) IsAllowedWindow(days int) bool {
	return slices.Contains(c.AllowedWindows, days)
}

func (c *Config) CacheEnabled() bool {
	return c.RedisAddr != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(strings.TrimSpace(value)); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvInts parses a comma separated list such as "7,30,90".
func getEnvInts(key string, defaultValue []int) []int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var out []int
	for _, part := range strings.Split(value, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return defaultValue
		}
		out = append(out, n)
	}
	return out
}
