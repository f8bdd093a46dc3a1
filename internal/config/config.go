package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"
)

var (
	LogLevels  = []string{"debug", "info", "warn", "error"}
	LogFormats = []string{"text", "json", "pretty"}
)

type Config struct {
	// Database; empty means search the default locations
	DBPath string

	// HTTP Server
	Port               string
	RateLimitPerMinute int
	ShutdownTimeout    time.Duration

	// Logging
	LogLevel  string
	LogFormat string

	// AMQP; empty URL disables change events
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets export
	GoogleSpreadsheetID      string
	GoogleOperationsSheet    string
	GoogleSummarySheet       string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string
}

func Load() *Config {
	cfg := &Config{
		DBPath: getEnv("FINTRACK_DB_PATH", ""),

		Port:               getEnv("PORT", "8081"),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 60),
		ShutdownTimeout:    getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),

		LogLevel:  strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat: strings.ToLower(getEnv("LOG_FORMAT", "")),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "fintrack"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "fintrack_changes"),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleOperationsSheet:    getEnv("GOOGLE_OPERATIONS_SHEET", "Operations"),
		GoogleSummarySheet:       getEnv("GOOGLE_SUMMARY_SHEET", "Summary"),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")),
	}

	return cfg
}

// AMQPEnabled reports whether change events should be published.
func (c *Config) AMQPEnabled() bool {
	return c.AMQPURL != ""
}

// ExportEnabled reports whether a spreadsheet is configured.
func (c *Config) ExportEnabled() bool {
	return c.GoogleSpreadsheetID != ""
}

// SlogLevel maps LogLevel to a slog.Level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// LogFormatFor returns the configured log format. When LOG_FORMAT is unset,
// interactive commands get the colored pretty format and services get text.
func (c *Config) LogFormatFor(interactive bool) string {
	if c.LogFormat != "" {
		return c.LogFormat
	}
	if interactive {
		return "pretty"
	}
	return "text"
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if !slices.Contains(LogLevels, c.LogLevel) {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of %v", c.LogLevel, LogLevels))
	}
	if c.LogFormat != "" && !slices.Contains(LogFormats, c.LogFormat) {
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be one of %v", c.LogFormat, LogFormats))
	}

	if c.DBPath != "" {
		if info, err := os.Stat(c.DBPath); err == nil && info.IsDir() {
			errors = append(errors, fmt.Sprintf("database path '%s' is a directory", c.DBPath))
		}
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.GoogleSpreadsheetID != "" {
		if c.GoogleOperationsSheet == "" {
			errors = append(errors, "operations sheet name is required when a spreadsheet is configured")
		}
		if c.GoogleSummarySheet == "" {
			errors = append(errors, "summary sheet name is required when a spreadsheet is configured")
		}
		if c.GoogleOperationsSheet != "" && c.GoogleOperationsSheet == c.GoogleSummarySheet {
			errors = append(errors, fmt.Sprintf("operations and summary sheets must differ, both are '%s'", c.GoogleSummarySheet))
		}
		if c.GoogleServiceAccountJSON == "" && c.GoogleServiceAccountFile == "" {
			errors = append(errors, "either GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE must be provided for export")
		}
		if c.GoogleServiceAccountFile != "" {
			if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
			}
		}
	}

	if c.RateLimitPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1", c.RateLimitPerMinute))
	} else if c.RateLimitPerMinute > 10000 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at most 10000", c.RateLimitPerMinute))
	}

	if c.ShutdownTimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid shutdown timeout %v: must be at least 1 second", c.ShutdownTimeout))
	} else if c.ShutdownTimeout > 5*time.Minute {
		errors = append(errors, fmt.Sprintf("invalid shutdown timeout %v: must be at most 5 minutes", c.ShutdownTimeout))
	}

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

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
