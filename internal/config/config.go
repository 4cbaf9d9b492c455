package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Mirror backends.
const (
	MirrorNone   = "none"
	MirrorMemory = "memory"
	MirrorSheets = "sheets"
)

var validMirrorBackends = []string{MirrorNone, MirrorMemory, MirrorSheets}

type Config struct {
	// Inputs and output
	BudgetPath     string
	ActualsPath    string
	OutputPath     string
	CurrencyFormat string

	// Top movers
	MinBudget decimal.Decimal
	TopN      int

	LogLevel string

	// Run archive, disabled when empty
	ArchiveDBPath string

	// AMQP, disabled when URL is empty
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Spreadsheet mirror
	MirrorBackend            string
	GoogleSpreadsheetID      string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string
	GoogleSheetPrefix        string
}

func Load() *Config {
	return &Config{
		BudgetPath:     getEnv("BUDGET_PATH", ""),
		ActualsPath:    getEnv("ACTUALS_PATH", ""),
		OutputPath:     getEnv("REPORT_OUTPUT_PATH", "budget_vs_actuals.xlsx"),
		CurrencyFormat: getEnv("CURRENCY_FORMAT", "$#,##0.00"),

		MinBudget: getEnvDecimal("MIN_BUDGET", decimal.NewFromInt(1)),
		TopN:      getEnvInt("TOP_N", 5),

		LogLevel: getEnv("LOG_LEVEL", "info"),

		ArchiveDBPath: getEnv("ARCHIVE_DB_PATH", ""),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "budgetreport"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "report_generated"),

		MirrorBackend:            getEnv("MIRROR_BACKEND", MirrorNone),
		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", getEnv("GOOGLE_APPLICATION_CREDENTIALS", "")),
		GoogleSheetPrefix:        getEnv("GOOGLE_SHEET_PREFIX", ""),
	}
}

// Validate validates the configuration and returns an error if invalid.
// Input paths are not checked here: they may come from flags.
func (c *Config) Validate() error {
	var errors []string

	if c.OutputPath == "" {
		errors = append(errors, "report output path cannot be empty")
	}
	if strings.TrimSpace(c.CurrencyFormat) == "" {
		errors = append(errors, "currency format cannot be empty")
	}

	if c.MinBudget.IsNegative() {
		errors = append(errors, fmt.Sprintf("invalid min budget %s: must not be negative", c.MinBudget))
	}
	if c.TopN < 1 || c.TopN > 100 {
		errors = append(errors, fmt.Sprintf("invalid top n %d: must be between 1 and 100", c.TopN))
	}

	validLevels := []string{"debug", "info", "warn", "error"}
	if !slices.Contains(validLevels, strings.ToLower(c.LogLevel)) {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of %v", c.LogLevel, validLevels))
	}

	if c.ArchiveDBPath != "" {
		dir := filepath.Dir(c.ArchiveDBPath)
		if dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create archive database directory '%s': %v", dir, err))
				}
			}
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

	if !slices.Contains(validMirrorBackends, c.MirrorBackend) {
		errors = append(errors, fmt.Sprintf("invalid mirror backend '%s': must be one of %v", c.MirrorBackend, validMirrorBackends))
	}

	if c.MirrorBackend == MirrorSheets {
		if c.GoogleSpreadsheetID == "" {
			errors = append(errors, "Google Spreadsheet ID is required when using sheets mirror")
		}
		if c.GoogleServiceAccountJSON == "" && c.GoogleServiceAccountFile == "" {
			errors = append(errors, "either GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE must be provided for sheets mirror")
		}
		if c.GoogleServiceAccountFile != "" {
			if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
			}
		}
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

func getEnvDecimal(key string, defaultValue decimal.Decimal) decimal.Decimal {
	if value := os.Getenv(key); value != "" {
		if d, err := decimal.NewFromString(strings.TrimSpace(value)); err == nil {
			return d
		}
	}
	return defaultValue
}
