package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Bot
	TokenFile     string
	CommandPrefix string
	PromptTimeout time.Duration
	EditCount     int
	LogLevel      string
	RateLimit     int

	// Storage
	DataBackend  string
	DataDir      string
	ExpenseFile  string
	IncomeFile   string
	PlanFile     string
	SQLiteDBPath string
	ReportDir    string

	// AMQP (optional ledger events)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets mirror
	GoogleSpreadsheetID   string
	GoogleCredentialsFile string
	GoogleCredentialsJSON string

	// Month-end report
	MonthEndUserID    string
	MonthEndInterval  time.Duration
	MonthEndStateFile string
}

func Load() *Config {
	dataDir := getEnv("DATA_DIR", ".")

	cfg := &Config{
		TokenFile:     getEnv("TOKEN_FILE", "token.json"),
		CommandPrefix: getEnv("COMMAND_PREFIX", "!"),
		PromptTimeout: getEnvDuration("PROMPT_TIMEOUT", 60*time.Second),
		EditCount:     getEnvInt("EDIT_COUNT", 5),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		RateLimit:     getEnvInt("COMMANDS_PER_MINUTE", 30),

		DataBackend:  getEnv("DATA_BACKEND", "csv"),
		DataDir:      dataDir,
		ExpenseFile:  getEnv("EXPENSE_FILE", filepath.Join(dataDir, "budget_data.csv")),
		IncomeFile:   getEnv("INCOME_FILE", filepath.Join(dataDir, "income_data.csv")),
		PlanFile:     getEnv("PLAN_FILE", filepath.Join(dataDir, "budget_plan.json")),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", filepath.Join(dataDir, "budgetbot.db")),
		ReportDir:    getEnv("REPORT_DIR", filepath.Join(dataDir, "reports")),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "budgetbot"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "ledger_events"),

		GoogleSpreadsheetID:   getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleCredentialsFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", getEnv("GOOGLE_APPLICATION_CREDENTIALS", "")),
		GoogleCredentialsJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),

		MonthEndUserID:    getEnv("MONTH_END_USER_ID", ""),
		MonthEndInterval:  getEnvDuration("MONTH_END_INTERVAL", 24*time.Hour),
		MonthEndStateFile: getEnv("MONTH_END_STATE_FILE", filepath.Join(dataDir, "month_end_sent")),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if strings.TrimSpace(c.CommandPrefix) == "" {
		errors = append(errors, "command prefix cannot be empty")
	}

	if c.PromptTimeout < 5*time.Second {
		errors = append(errors, fmt.Sprintf("invalid prompt timeout %v: must be at least 5 seconds", c.PromptTimeout))
	} else if c.PromptTimeout > 10*time.Minute {
		errors = append(errors, fmt.Sprintf("invalid prompt timeout %v: must be at most 10 minutes", c.PromptTimeout))
	}

	if c.EditCount < 1 || c.EditCount > 25 {
		errors = append(errors, fmt.Sprintf("invalid edit count %d: must be between 1 and 25", c.EditCount))
	}

	if c.RateLimit < 1 {
		errors = append(errors, fmt.Sprintf("invalid commands per minute %d: must be at least 1", c.RateLimit))
	}

	validBackends := []string{"csv", "sqlite"}
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

	switch c.DataBackend {
	case "csv":
		if c.ExpenseFile == "" || c.IncomeFile == "" || c.PlanFile == "" {
			errors = append(errors, "expense, income and plan file paths cannot be empty when using csv backend")
		}
	case "sqlite":
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		}
	}

	if c.ReportDir == "" {
		errors = append(errors, "report directory cannot be empty")
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

	if c.MonthEndUserID != "" && c.MonthEndInterval < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid month-end interval %v: must be at least 1 minute", c.MonthEndInterval))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// ValidateMirror checks the settings the Google Sheets mirror worker needs on top of Validate.
func (c *Config) ValidateMirror() error {
	var errors []string
	if c.AMQPURL == "" {
		errors = append(errors, "AMQP_URL is required for the sheets mirror")
	}
	if c.GoogleSpreadsheetID == "" {
		errors = append(errors, "Google Spreadsheet ID is required for the sheets mirror")
	}
	if c.GoogleCredentialsFile == "" && c.GoogleCredentialsJSON == "" {
		errors = append(errors, "either GOOGLE_SERVICE_ACCOUNT_FILE or GOOGLE_SERVICE_ACCOUNT_JSON must be provided for the sheets mirror")
	}
	if c.GoogleCredentialsFile != "" {
		if _, err := os.Stat(c.GoogleCredentialsFile); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("Google credentials file does not exist: %s", c.GoogleCredentialsFile))
		}
	}
	if len(errors) > 0 {
		return fmt.Errorf("mirror configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

type tokenFile struct {
	Token string `json:"token"`
}

// LoadToken reads the bot token from a JSON document of the form {"token": "..."}.
func LoadToken(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read token file: %w", err)
	}
	var tf tokenFile
	if err := json.Unmarshal(data, &tf); err != nil {
		return "", fmt.Errorf("parse token file %s: %w", path, err)
	}
	token := strings.TrimSpace(tf.Token)
	if token == "" {
		return "", errors.New("token file has no token")
	}
	return token, nil
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
