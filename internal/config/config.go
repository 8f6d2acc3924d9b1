package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Backend selection
	DataBackend string

	// Database
	SQLiteDBPath string
	SeedFile     string

	// AMQP (optional: empty URL disables the broker)
	AMQPURL         string
	AMQPExchange    string
	AMQPAlertQueue  string
	AMQPLedgerQueue string

	// Cache
	CacheSweepInterval time.Duration
	CacheMaxEntries    int

	// Budget notifier
	NotifierInterval     time.Duration
	NotifyWarningPercent float64
	NotifyDedupWindow    time.Duration

	// Google Sheets report export
	GoogleSpreadsheetID   string
	GoogleReportSheetName string

	LogLevel string
}

func Load() *Config {
	cfg := &Config{
		DataBackend: getEnv("DATA_BACKEND", "memory"),

		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/fintrack.db"),
		SeedFile:     getEnv("SEED_FILE", ""),

		AMQPURL:         getEnv("AMQP_URL", ""),
		AMQPExchange:    getEnv("AMQP_EXCHANGE", "fintrack"),
		AMQPAlertQueue:  getEnv("AMQP_ALERT_QUEUE", "budget_alerts"),
		AMQPLedgerQueue: getEnv("AMQP_LEDGER_QUEUE", "ledger_changed"),

		CacheSweepInterval: getEnvDuration("CACHE_SWEEP_INTERVAL", 60*time.Second),
		CacheMaxEntries:    getEnvInt("CACHE_MAX_ENTRIES", 10000),

		NotifierInterval:     getEnvDuration("NOTIFIER_INTERVAL", time.Hour),
		NotifyWarningPercent: getEnvFloat("NOTIFY_WARNING_PERCENT", 90),
		NotifyDedupWindow:    getEnvDuration("NOTIFY_DEDUP_WINDOW", 24*time.Hour),

		GoogleSpreadsheetID:   getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleReportSheetName: getEnv("GOOGLE_REPORT_SHEET_NAME", "Reports"),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate data backend
	validBackends := []string{"memory", "sqlite"}
	isValidBackend := false
	for _, backend := range validBackends {
		if c.DataBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	// Validate SQLite configuration if backend is sqlite
	if c.DataBackend == "sqlite" {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			// Check if directory exists or can be created
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	}

	if c.SeedFile != "" {
		if _, err := os.Stat(c.SeedFile); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("seed file does not exist: %s", c.SeedFile))
		}
	}

	// Validate AMQP URL if provided
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}

		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPAlertQueue == "" || c.AMQPLedgerQueue == "" {
			errors = append(errors, "AMQP alert and ledger queue names cannot be empty when AMQP URL is provided")
		}
		if c.AMQPAlertQueue != "" && c.AMQPAlertQueue == c.AMQPLedgerQueue {
			errors = append(errors, "AMQP alert and ledger queues must differ")
		}
	}

	if c.CacheSweepInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid cache sweep interval %v: must be at least 1 second", c.CacheSweepInterval))
	}
	if c.CacheMaxEntries < 0 {
		errors = append(errors, fmt.Sprintf("invalid cache max entries %d: must not be negative", c.CacheMaxEntries))
	}

	if c.NotifierInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid notifier interval %v: must be at least 1 second", c.NotifierInterval))
	} else if c.NotifierInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid notifier interval %v: must be at most 24 hours", c.NotifierInterval))
	}
	if c.NotifyWarningPercent < 80 || c.NotifyWarningPercent >= 100 {
		errors = append(errors, fmt.Sprintf("invalid warning percent %v: must be in [80, 100)", c.NotifyWarningPercent))
	}
	if c.NotifyDedupWindow < 0 {
		errors = append(errors, fmt.Sprintf("invalid dedup window %v: must not be negative", c.NotifyDedupWindow))
	}

	switch strings.ToLower(c.LogLevel) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be debug, info, warn or error", c.LogLevel))
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
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
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
