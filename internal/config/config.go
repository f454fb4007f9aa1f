package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/liamashdown/bigfishalert/internal/secrets"
)

// Config holds all application configuration
type Config struct {
	// Environment
	Environment string
	LogLevel    string

	// HTTP API
	HTTPPort int

	// Database (optional, empty DSN disables history and alert dedup)
	DatabaseDSN         string
	DatabaseMaxConns    int
	DatabaseMaxIdleTime time.Duration

	// Upstreams
	SolanaRPCURL       string
	HeliusAPIKey       string
	HeliusBaseURL      string
	DexscreenerBaseURL string
	RugcheckBaseURL    string
	OpenAIAPIKey       string
	OpenAIModel        string
	OpenAIBaseURL      string

	// Rate limits (requests per second)
	SolanaRPS      float64
	HeliusRPS      float64
	DexscreenerRPS float64
	RugcheckRPS    float64

	// Upstream resilience
	UpstreamTimeout  time.Duration
	UpstreamMaxRetry time.Duration

	// Scanning
	TopHoldersLimit  int
	RecentTxLimit    int
	OceanScanWorkers int
	OceanMaxTokens   int
	ExplainLanguage  string

	// Monitor
	WatchlistFile      string
	MonitorIntervalSec int
	MonitorWorkers     int
	AlertMinScore      int
	AlertCooldownMins  int

	// Alerts
	AlertMode          string // comma-separated: log, discord, smtp, telegram
	DiscordWebhookURLs []string
	SMTPHost           string
	SMTPPort           int
	SMTPUser           string
	SMTPPassword       string
	SMTPFrom           string
	SMTPTo             []string
	TelegramBotToken   string
	TelegramChatID     int64
}

// Load reads configuration from environment variables, after loading an
// optional .env file from the working directory
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Environment:         getEnv("ENVIRONMENT", "production"),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		HTTPPort:            getEnvInt("HTTP_PORT", 8080),
		DatabaseDSN:         secrets.GetOptional("DATABASE_DSN", ""),
		DatabaseMaxConns:    getEnvInt("DATABASE_MAX_CONNS", 10),
		DatabaseMaxIdleTime: time.Duration(getEnvInt("DATABASE_MAX_IDLE_TIME_MINS", 5)) * time.Minute,
		SolanaRPCURL:        getEnv("SOLANA_RPC_URL", "https://api.mainnet-beta.solana.com"),
		HeliusAPIKey:        secrets.GetOptional("HELIUS_API_KEY", ""),
		HeliusBaseURL:       getEnv("HELIUS_API_BASE_URL", "https://api.helius.xyz"),
		DexscreenerBaseURL:  getEnv("DEXSCREENER_BASE_URL", "https://api.dexscreener.com"),
		RugcheckBaseURL:     getEnv("RUGCHECK_BASE_URL", "https://api.rugcheck.xyz"),
		OpenAIAPIKey:        secrets.GetOptional("OPENAI_API_KEY", ""),
		OpenAIModel:         getEnv("OPENAI_MODEL", "gpt-4"),
		OpenAIBaseURL:       getEnv("OPENAI_BASE_URL", ""),
		SolanaRPS:           getEnvFloat("SOLANA_RPS", 5.0),
		HeliusRPS:           getEnvFloat("HELIUS_RPS", 2.0),
		DexscreenerRPS:      getEnvFloat("DEXSCREENER_RPS", 4.0),
		RugcheckRPS:         getEnvFloat("RUGCHECK_RPS", 2.0),
		UpstreamTimeout:     time.Duration(getEnvInt("UPSTREAM_TIMEOUT_SEC", 10)) * time.Second,
		UpstreamMaxRetry:    time.Duration(getEnvInt("UPSTREAM_MAX_RETRY_SEC", 15)) * time.Second,
		TopHoldersLimit:     getEnvInt("TOP_HOLDERS_LIMIT", 20),
		RecentTxLimit:       getEnvInt("RECENT_TX_LIMIT", 100),
		OceanScanWorkers:    getEnvInt("OCEAN_SCAN_WORKERS", 4),
		OceanMaxTokens:      getEnvInt("OCEAN_MAX_TOKENS", 25),
		ExplainLanguage:     getEnv("EXPLAIN_LANGUAGE", "en"),
		WatchlistFile:       getEnv("WATCHLIST_FILE", ""),
		MonitorIntervalSec:  getEnvInt("MONITOR_INTERVAL_SEC", 300),
		MonitorWorkers:      getEnvInt("MONITOR_WORKERS", 3),
		AlertMinScore:       getEnvInt("ALERT_MIN_SCORE", 70),
		AlertCooldownMins:   getEnvInt("ALERT_COOLDOWN_MINS", 60),
		AlertMode:           getEnv("ALERT_MODE", "log"),
		SMTPHost:            getEnv("SMTP_HOST", ""),
		SMTPPort:            getEnvInt("SMTP_PORT", 587),
		SMTPUser:            getEnv("SMTP_USER", ""),
		SMTPPassword:        secrets.GetOptional("SMTP_PASSWORD", ""),
		SMTPFrom:            getEnv("SMTP_FROM", "bigfishalert@example.com"),
		SMTPTo:              parseCSV(getEnv("SMTP_TO", "")),
		TelegramBotToken:    secrets.GetOptional("TELEGRAM_BOT_TOKEN", ""),
		TelegramChatID:      getEnvInt64("TELEGRAM_CHAT_ID", 0),
	}

	webhooks, err := secrets.GetList("DISCORD_WEBHOOK_URLS")
	if err != nil {
		return nil, fmt.Errorf("load discord webhooks: %w", err)
	}
	cfg.DiscordWebhookURLs = webhooks

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// AlertModes returns the configured alert modes, trimmed
func (c *Config) AlertModes() []string {
	return parseCSV(c.AlertMode)
}

// StorageEnabled reports whether a database is configured
func (c *Config) StorageEnabled() bool {
	return c.DatabaseDSN != ""
}

// Validate checks configuration for errors
func (c *Config) Validate() error {
	if c.SolanaRPCURL == "" {
		return fmt.Errorf("SOLANA_RPC_URL is required")
	}

	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP_PORT: %d", c.HTTPPort)
	}

	if c.AlertMinScore < 0 || c.AlertMinScore > 100 {
		return fmt.Errorf("ALERT_MIN_SCORE must be within 0-100, got %d", c.AlertMinScore)
	}

	if c.TopHoldersLimit < 10 {
		return fmt.Errorf("TOP_HOLDERS_LIMIT must be at least 10, got %d", c.TopHoldersLimit)
	}

	if c.OceanScanWorkers < 1 || c.MonitorWorkers < 1 {
		return fmt.Errorf("worker counts must be positive")
	}

	if c.MonitorIntervalSec < 10 {
		return fmt.Errorf("MONITOR_INTERVAL_SEC must be at least 10, got %d", c.MonitorIntervalSec)
	}

	switch c.ExplainLanguage {
	case "en", "id":
	default:
		return fmt.Errorf("invalid EXPLAIN_LANGUAGE: %s (must be en or id)", c.ExplainLanguage)
	}

	modes := c.AlertModes()
	if len(modes) == 0 {
		return fmt.Errorf("ALERT_MODE must name at least one mode")
	}

	for _, mode := range modes {
		switch mode {
		case "log":
		case "discord":
			if len(c.DiscordWebhookURLs) == 0 {
				return fmt.Errorf("DISCORD_WEBHOOK_URLS is required when discord is in ALERT_MODE")
			}
		case "smtp":
			if c.SMTPHost == "" {
				return fmt.Errorf("SMTP_HOST is required when smtp is in ALERT_MODE")
			}
			if len(c.SMTPTo) == 0 {
				return fmt.Errorf("SMTP_TO is required when smtp is in ALERT_MODE")
			}
		case "telegram":
			if c.TelegramBotToken == "" || c.TelegramChatID == 0 {
				return fmt.Errorf("TELEGRAM_BOT_TOKEN and TELEGRAM_CHAT_ID are required when telegram is in ALERT_MODE")
			}
		default:
			return fmt.Errorf("invalid ALERT_MODE value: %s (valid values: log, discord, smtp, telegram)", mode)
		}
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func parseCSV(s string) []string {
	var result []string
	for _, item := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
