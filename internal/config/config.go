// Package config loads service configuration from the environment.
// Every variable carries the RANDEVU_ prefix.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Database DatabaseConfig
	Redis    RedisConfig
	Server   ServerConfig
	LLM      LLMConfig
	Agent    AgentConfig
	Channel  ChannelConfig
	Slack    SlackConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
	MaxConns int
}

// DSN builds a pgx-compatible connection string.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode)
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type ServerConfig struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type LLMConfig struct {
	Provider    string // "openai" or "anthropic"
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int
	RateRPS     float64
	RateBurst   int
}

type AgentConfig struct {
	MaxIterations      int
	MaxRoutedTools     int
	SessionBackend     string // "memory" or "redis"
	SessionIdleTTL     time.Duration
	SessionMaxMessages int
	SweepInterval      time.Duration
}

type ChannelConfig struct {
	WebhookToken string
}

type SlackConfig struct {
	BotToken string
}

// Load reads configuration from environment variables and validates it.
func Load() (*Config, error) {
	cfg := &Config{
		Database: DatabaseConfig{
			Host:     getEnv("RANDEVU_DB_HOST", "localhost"),
			Port:     getEnvInt("RANDEVU_DB_PORT", 5432),
			User:     getEnv("RANDEVU_DB_USER", "randevu"),
			Password: getEnv("RANDEVU_DB_PASSWORD", ""),
			Name:     getEnv("RANDEVU_DB_NAME", "randevu"),
			SSLMode:  getEnv("RANDEVU_DB_SSLMODE", "disable"),
			MaxConns: getEnvInt("RANDEVU_DB_MAX_CONNS", 10),
		},
		Redis: RedisConfig{
			Addr:     getEnv("RANDEVU_REDIS_ADDR", "localhost:6379"),
			Password: getEnv("RANDEVU_REDIS_PASSWORD", ""),
			DB:       getEnvInt("RANDEVU_REDIS_DB", 0),
		},
		Server: ServerConfig{
			Addr:         getEnv("RANDEVU_SERVER_ADDR", ":8080"),
			ReadTimeout:  getEnvDuration("RANDEVU_SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout: getEnvDuration("RANDEVU_SERVER_WRITE_TIMEOUT", 120*time.Second),
		},
		LLM: LLMConfig{
			Provider:    getEnv("RANDEVU_LLM_PROVIDER", "openai"),
			APIKey:      getEnv("RANDEVU_LLM_API_KEY", ""),
			Model:       getEnv("RANDEVU_LLM_MODEL", ""),
			Temperature: getEnvFloat("RANDEVU_LLM_TEMPERATURE", 0.2),
			MaxTokens:   getEnvInt("RANDEVU_LLM_MAX_TOKENS", 1024),
			RateRPS:     getEnvFloat("RANDEVU_LLM_RATE_RPS", 2),
			RateBurst:   getEnvInt("RANDEVU_LLM_RATE_BURST", 4),
		},
		Agent: AgentConfig{
			MaxIterations:      getEnvInt("RANDEVU_AGENT_MAX_ITERATIONS", 7),
			MaxRoutedTools:     getEnvInt("RANDEVU_AGENT_MAX_ROUTED_TOOLS", 3),
			SessionBackend:     getEnv("RANDEVU_SESSION_BACKEND", "memory"),
			SessionIdleTTL:     getEnvDuration("RANDEVU_SESSION_IDLE_TTL", 15*time.Minute),
			SessionMaxMessages: getEnvInt("RANDEVU_SESSION_MAX_MESSAGES", 16),
			SweepInterval:      getEnvDuration("RANDEVU_SESSION_SWEEP_INTERVAL", 5*time.Minute),
		},
		Channel: ChannelConfig{
			WebhookToken: getEnv("RANDEVU_WEBHOOK_TOKEN", ""),
		},
		Slack: SlackConfig{
			BotToken: getEnv("RANDEVU_SLACK_BOT_TOKEN", ""),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.LLM.Provider {
	case "openai", "anthropic":
	default:
		return fmt.Errorf("unknown LLM provider %q", c.LLM.Provider)
	}
	if c.LLM.APIKey == "" {
		return fmt.Errorf("RANDEVU_LLM_API_KEY is required")
	}
	if c.LLM.Model == "" {
		return fmt.Errorf("RANDEVU_LLM_MODEL is required")
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("RANDEVU_LLM_TEMPERATURE must be in [0, 2], got %v", c.LLM.Temperature)
	}
	if c.Channel.WebhookToken == "" {
		return fmt.Errorf("RANDEVU_WEBHOOK_TOKEN is required")
	}
	if c.Agent.MaxIterations < 1 {
		return fmt.Errorf("RANDEVU_AGENT_MAX_ITERATIONS must be at least 1")
	}
	if c.Agent.MaxRoutedTools < 1 {
		return fmt.Errorf("RANDEVU_AGENT_MAX_ROUTED_TOOLS must be at least 1")
	}
	switch c.Agent.SessionBackend {
	case "memory", "redis":
	default:
		return fmt.Errorf("unknown session backend %q", c.Agent.SessionBackend)
	}
	if c.Agent.SessionIdleTTL <= 0 {
		return fmt.Errorf("RANDEVU_SESSION_IDLE_TTL must be positive")
	}
	if c.Agent.SessionMaxMessages < 4 {
		return fmt.Errorf("RANDEVU_SESSION_MAX_MESSAGES must be at least 4")
	}
	if c.Database.MaxConns < 1 {
		return fmt.Errorf("RANDEVU_DB_MAX_CONNS must be at least 1")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return fallback
	}
	return f
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil {
		return fallback
	}
	return d
}
