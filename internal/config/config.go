package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port         int
	DevMode      bool
	LogLevel     string
	DatabasePath string

	PredictorServiceURL string
	DiscordWebhookURL   string
	AdminToken          string

	// Final-prediction window. CheckInterval must stay below Tolerance so
	// at least one tick lands inside every race's firing window.
	CheckInterval  time.Duration
	FinalLead      time.Duration
	FinalTolerance time.Duration

	// Evening initial-prediction run for tomorrow's card.
	EveningHour   int
	EveningMinute int

	// Per external call class.
	ListTimeout    time.Duration
	PredictTimeout time.Duration
	NotifyTimeout  time.Duration
	DBQueryTimeout time.Duration
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Port:         getEnvAsInt("PORT", 8090),
		DevMode:      getEnvAsBool("DEV_MODE", false),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		DatabasePath: getEnv("DATABASE_PATH", "./data/raceday.db"),

		PredictorServiceURL: getEnv("PREDICTOR_SERVICE_URL", "http://localhost:8000"),
		DiscordWebhookURL:   getEnv("DISCORD_WEBHOOK_URL", ""),
		AdminToken:          getEnv("ADMIN_TOKEN", ""),

		CheckInterval:  getEnvAsMinutes("CHECK_INTERVAL_MINUTES", 3),
		FinalLead:      getEnvAsMinutes("FINAL_LEAD_MINUTES", 60),
		FinalTolerance: getEnvAsMinutes("FINAL_TOLERANCE_MINUTES", 8),

		EveningHour:   getEnvAsInt("EVENING_PREDICTION_HOUR", 21),
		EveningMinute: getEnvAsInt("EVENING_PREDICTION_MINUTE", 0),

		ListTimeout:    getEnvAsSeconds("LIST_TIMEOUT_SECONDS", 10),
		PredictTimeout: getEnvAsSeconds("PREDICT_TIMEOUT_SECONDS", 60),
		NotifyTimeout:  getEnvAsSeconds("NOTIFY_TIMEOUT_SECONDS", 10),
		DBQueryTimeout: getEnvAsSeconds("DB_QUERY_TIMEOUT_SECONDS", 5),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present and coherent
func (c *Config) Validate() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("DATABASE_PATH is required")
	}
	if c.PredictorServiceURL == "" {
		return fmt.Errorf("PREDICTOR_SERVICE_URL is required")
	}
	if c.CheckInterval <= 0 {
		return fmt.Errorf("CHECK_INTERVAL_MINUTES must be positive")
	}
	if c.FinalLead < 0 {
		return fmt.Errorf("FINAL_LEAD_MINUTES must not be negative")
	}
	// A tick interval at or above the tolerance half-width can skip an
	// entire firing window.
	if c.CheckInterval >= c.FinalTolerance {
		return fmt.Errorf("CHECK_INTERVAL_MINUTES (%v) must be below FINAL_TOLERANCE_MINUTES (%v)",
			c.CheckInterval, c.FinalTolerance)
	}
	if c.EveningHour < 0 || c.EveningHour > 23 || c.EveningMinute < 0 || c.EveningMinute > 59 {
		return fmt.Errorf("invalid evening prediction time %02d:%02d", c.EveningHour, c.EveningMinute)
	}

	// Note: DISCORD_WEBHOOK_URL is optional; without it the notifier
	// degrades to no delivery while predictions keep running.
	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsMinutes(key string, defaultValue int) time.Duration {
	return time.Duration(getEnvAsInt(key, defaultValue)) * time.Minute
}

func getEnvAsSeconds(key string, defaultValue int) time.Duration {
	return time.Duration(getEnvAsInt(key, defaultValue)) * time.Second
}
