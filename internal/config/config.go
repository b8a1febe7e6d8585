package config

import (
	"encoding/json"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for guildflow.
// Values are loaded from environment variables (a .env file is honored when
// present); see the CLI usage text for the full list.
type Config struct {
	// Game-data API collaborator.
	GameAPIBaseURL string `json:"game_api_base_url"`
	GameAPIKey     string `json:"game_api_key"`
	AllyCode       string `json:"ally_code"`
	GuildID        string `json:"guild_id"`

	// Bronze object storage root.
	BlobRoot string `json:"blob_root"`

	// Analytical warehouse.
	WarehouseURL    string `json:"warehouse_url"`
	WarehouseSchema string `json:"warehouse_schema"`

	// Notification stage.
	WebhookURL   string `json:"webhook_url"`
	OpenAIAPIKey string `json:"openai_api_key"`
	SummaryModel string `json:"summary_model"`

	// Scheduling.
	BinPath        string `json:"bin_path"`
	LeadMinutes    int    `json:"lead_minutes"`
	CrontabCommand string `json:"crontab_command"`

	HTTPTimeout    time.Duration `json:"-"`
	HTTPTimeoutStr string        `json:"http_timeout"`

	// Optional run-history analytics.
	RedisAddr             string        `json:"redis_addr,omitempty"`
	AnalyticsRetention    time.Duration `json:"-"`
	AnalyticsRetentionStr string        `json:"analytics_retention"`

	MetricsEnabled bool   `json:"metrics_enabled"`
	MetricsAddr    string `json:"metrics_addr"`

	EventBusBufferSize int `json:"eventbus_buffer_size"`
}

// Load reads configuration from the environment with defaults. A .env file
// in the working directory is loaded first when present, without overriding
// variables already set in the environment.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("config: skipping .env: %v", err)
	}

	cfg := Config{
		GameAPIBaseURL:        os.Getenv("GAME_API_BASE_URL"),
		GameAPIKey:            os.Getenv("GAME_API_KEY"),
		AllyCode:              os.Getenv("ALLY_CODE"),
		GuildID:               os.Getenv("GUILD_ID"),
		BlobRoot:              os.Getenv("BLOB_ROOT"),
		WarehouseURL:          os.Getenv("WAREHOUSE_URL"),
		WarehouseSchema:       os.Getenv("WAREHOUSE_SCHEMA"),
		WebhookURL:            os.Getenv("WEBHOOK_URL"),
		OpenAIAPIKey:          os.Getenv("OPENAI_API_KEY"),
		SummaryModel:          os.Getenv("SUMMARY_MODEL"),
		BinPath:               os.Getenv("BIN_PATH"),
		CrontabCommand:        os.Getenv("CRONTAB_COMMAND"),
		HTTPTimeoutStr:        os.Getenv("HTTP_TIMEOUT"),
		RedisAddr:             os.Getenv("REDIS_ADDR"),
		AnalyticsRetentionStr: os.Getenv("ANALYTICS_RETENTION"),
		MetricsEnabled:        os.Getenv("METRICS_ENABLED") == "true",
		MetricsAddr:           os.Getenv("METRICS_ADDR"),
	}

	if leadStr := os.Getenv("LEAD_MINUTES"); leadStr != "" {
		if n, err := strconv.Atoi(leadStr); err == nil && n > 0 {
			cfg.LeadMinutes = n
		} else {
			log.Printf("config: invalid LEAD_MINUTES %q (must be a positive integer), using default 1", leadStr)
		}
	}
	if cfg.LeadMinutes == 0 {
		cfg.LeadMinutes = 1
	}

	if bufStr := os.Getenv("EVENTBUS_BUFFER_SIZE"); bufStr != "" {
		if n, err := strconv.Atoi(bufStr); err == nil && n > 0 {
			cfg.EventBusBufferSize = n
		} else {
			log.Printf("config: invalid EVENTBUS_BUFFER_SIZE %q (must be a positive integer), using default 100", bufStr)
		}
	}
	if cfg.EventBusBufferSize == 0 {
		cfg.EventBusBufferSize = 100
	}

	if cfg.WarehouseSchema == "" {
		cfg.WarehouseSchema = "silver"
	}
	if cfg.SummaryModel == "" {
		cfg.SummaryModel = "gpt-4o-mini"
	}
	if cfg.CrontabCommand == "" {
		cfg.CrontabCommand = "crontab"
	}
	if cfg.HTTPTimeoutStr == "" {
		cfg.HTTPTimeoutStr = "30s"
	}
	if cfg.AnalyticsRetentionStr == "" {
		cfg.AnalyticsRetentionStr = "720h"
	}
	if cfg.MetricsAddr == "" {
		cfg.MetricsAddr = ":9090"
	}
	if cfg.BinPath == "" {
		if exe, err := os.Executable(); err == nil {
			cfg.BinPath = exe
		}
	}

	// Parsed after validation so Validate can report bad strings; values
	// here fall back to defaults on parse failure.
	cfg.HTTPTimeout = parseDurationOr(cfg.HTTPTimeoutStr, 30*time.Second)
	cfg.AnalyticsRetention = parseDurationOr(cfg.AnalyticsRetentionStr, 720*time.Hour)

	return cfg
}

func parseDurationOr(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// MaskedJSON renders the configuration as indented JSON with secrets masked,
// for the `config` subcommand.
func (c Config) MaskedJSON() ([]byte, error) {
	masked := c
	masked.GameAPIKey = mask(c.GameAPIKey)
	masked.OpenAIAPIKey = mask(c.OpenAIAPIKey)
	masked.WebhookURL = mask(c.WebhookURL)
	masked.WarehouseURL = mask(c.WarehouseURL)
	return json.MarshalIndent(masked, "", "  ")
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return "****"
	}
	return s[:4] + "****"
}
