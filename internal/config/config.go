package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"installerpro/internal/core"
	"installerpro/internal/pricing"
	"installerpro/internal/store"
)

type Config struct {
	// HTTP Server
	Port string

	// Storage backend: "sqlite" or "memory"
	Backend      string
	SQLiteDBPath string

	// AMQP change feed (optional; empty URL disables it)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Business policies
	CodePolicy        core.CodePolicy
	RequireClientName bool
	DailyTotalPolicy  pricing.TotalPolicy
	RolloverMode      store.RolloverMode

	// Backup worker
	BackupDir      string
	BackupDebounce time.Duration
	BackupInterval time.Duration
	BackupKeep     int
}

func Load() *Config {
	return &Config{
		Port: getEnv("PORT", "8081"),

		Backend:      getEnv("STORAGE_BACKEND", "sqlite"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/installerpro.db"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "installerpro"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "record_changes"),

		CodePolicy:        core.CodePolicy(getEnv("CODE_POLICY", string(core.CodeStrict))),
		RequireClientName: getEnvBool("REQUIRE_CLIENT_NAME", false),
		DailyTotalPolicy:  pricing.TotalPolicy(getEnv("DAILY_TOTAL_POLICY", string(pricing.FlatTier))),
		RolloverMode:      store.RolloverMode(getEnv("ROLLOVER_MODE", string(store.RolloverArchival))),

		BackupDir:      getEnv("BACKUP_DIR", "./data/backups"),
		BackupDebounce: getEnvDuration("BACKUP_DEBOUNCE", 5*time.Second),
		BackupInterval: getEnvDuration("BACKUP_INTERVAL", 6*time.Hour),
		BackupKeep:     getEnvInt("BACKUP_KEEP", 10),
	}
}

// Validate checks the configuration, collecting every problem into one
// error so misconfiguration is reported in a single pass.
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	switch c.Backend {
	case "sqlite":
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else if dir := filepath.Dir(c.SQLiteDBPath); dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	case "memory":
	default:
		errors = append(errors, fmt.Sprintf("invalid storage backend '%s': must be one of [sqlite memory]", c.Backend))
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

	if !c.CodePolicy.IsValid() {
		errors = append(errors, fmt.Sprintf("invalid code policy '%s': must be one of [strict relaxed]", c.CodePolicy))
	}
	if !c.DailyTotalPolicy.IsValid() {
		errors = append(errors, fmt.Sprintf("invalid daily total policy '%s': must be one of [flat-tier fixed-brackets]", c.DailyTotalPolicy))
	}
	if !c.RolloverMode.IsValid() {
		errors = append(errors, fmt.Sprintf("invalid rollover mode '%s': must be one of [archival destructive]", c.RolloverMode))
	}

	if c.BackupKeep < 1 {
		errors = append(errors, fmt.Sprintf("invalid backup keep count %d: must be at least 1", c.BackupKeep))
	}
	if c.BackupDebounce < time.Second {
		errors = append(errors, fmt.Sprintf("invalid backup debounce %v: must be at least 1 second", c.BackupDebounce))
	}
	if c.BackupInterval < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid backup interval %v: must be at least 1 minute", c.BackupInterval))
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

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
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
