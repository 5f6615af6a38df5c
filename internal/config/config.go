package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config represents the full application configuration surface.
type Config struct {
	Server    ServerConfig
	Assistant AssistantConfig
	Approval  ApprovalConfig
	Contract  ContractConfig
	WhatsApp  WhatsAppConfig
	Sheets    SheetsConfig
	Reporting ReportingConfig
	AI        AIConfig
	MongoDB   MongoDBConfig
	RabbitMQ  RabbitMQConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port     string
	LogLevel string
}

// AssistantConfig points at the recommendation backend and the contract renderer.
type AssistantConfig struct {
	BaseURL         string
	RendererBaseURL string
	Timeout         time.Duration
}

// ApprovalConfig drives the approval policy.
type ApprovalConfig struct {
	Threshold         decimal.Decimal
	AdminPassword     string
	AttemptsPerMinute int
	Requester         string
}

// ContractConfig holds the fixed parties printed on every supply contract.
type ContractConfig struct {
	Currency         string
	SenderName       string
	SenderAddress    []string
	RecipientName    string
	RecipientAddress []string
	PaymentTerms     string
}

// WhatsAppConfig contains credentials and options for the Meta WhatsApp Cloud API.
type WhatsAppConfig struct {
	AccessToken   string
	PhoneNumberID string
	BaseURL       string
	APIVersion    string
	ApproverID    string
}

// Enabled reports whether approval notifications should be sent.
func (c WhatsAppConfig) Enabled() bool {
	return c.AccessToken != ""
}

// SheetsConfig contains configuration required to interact with Google Sheets.
type SheetsConfig struct {
	CredentialsPath string
	SpreadsheetID   string
}

// Enabled reports whether the order log sheet is configured.
func (c SheetsConfig) Enabled() bool {
	return c.CredentialsPath != "" && c.SpreadsheetID != ""
}

// ReportingConfig holds scheduler-related settings.
type ReportingConfig struct {
	CronSchedule string
	Timezone     string
}

// AIConfig holds settings for LLM providers.
type AIConfig struct {
	AnthropicKey string
}

// MongoDBConfig holds settings for MongoDB.
type MongoDBConfig struct {
	URI    string
	DBName string
}

// RabbitMQConfig holds the order event broker settings.
type RabbitMQConfig struct {
	URI   string
	Queue string
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// Missing .env files are fine when configuration comes from the environment.
		_ = godotenv.Load()
	}

	threshold, err := decimal.NewFromString(getenvWithDefault("APPROVAL_THRESHOLD", "200"))
	if err != nil {
		return nil, fmt.Errorf("APPROVAL_THRESHOLD must be a decimal: %w", err)
	}
	timeout, err := time.ParseDuration(getenvWithDefault("ASSISTANT_TIMEOUT", "60s"))
	if err != nil {
		return nil, fmt.Errorf("ASSISTANT_TIMEOUT must be a duration: %w", err)
	}
	attempts, err := strconv.Atoi(getenvWithDefault("APPROVAL_ATTEMPTS_PER_MINUTE", "5"))
	if err != nil {
		return nil, fmt.Errorf("APPROVAL_ATTEMPTS_PER_MINUTE must be an integer: %w", err)
	}

	assistantURL := getenvWithDefault("ASSISTANT_API_BASE_URL", "http://localhost:8000")

	cfg := &Config{
		Server: ServerConfig{
			Port:     getenvWithDefault("APP_PORT", "8080"),
			LogLevel: getenvWithDefault("LOG_LEVEL", "info"),
		},
		Assistant: AssistantConfig{
			BaseURL:         assistantURL,
			RendererBaseURL: getenvWithDefault("RENDERER_BASE_URL", assistantURL),
			Timeout:         timeout,
		},
		Approval: ApprovalConfig{
			Threshold:         threshold,
			AdminPassword:     os.Getenv("ADMIN_PASSWORD"),
			AttemptsPerMinute: attempts,
			Requester:         getenvWithDefault("ORDER_REQUESTER", "Site Foreman"),
		},
		Contract: ContractConfig{
			Currency:         getenvWithDefault("CURRENCY", "EUR"),
			SenderName:       getenvWithDefault("CONTRACT_SENDER_NAME", "Hammer Inc."),
			SenderAddress:    splitLines(getenvWithDefault("CONTRACT_SENDER_ADDRESS", "420 Hammer Street;6969 Hammer City")),
			RecipientName:    getenvWithDefault("CONTRACT_RECIPIENT_NAME", "Supplier GmbH"),
			RecipientAddress: splitLines(getenvWithDefault("CONTRACT_RECIPIENT_ADDRESS", "Supplier GmbH;Industriestraße 8;74653 Künzelsau")),
			PaymentTerms:     os.Getenv("CONTRACT_PAYMENT_TERMS"),
		},
		WhatsApp: WhatsAppConfig{
			AccessToken:   os.Getenv("WHATSAPP_TOKEN"),
			PhoneNumberID: os.Getenv("WHATSAPP_PHONE_NUMBER_ID"),
			BaseURL:       getenvWithDefault("WHATSAPP_BASE_URL", "https://graph.facebook.com"),
			APIVersion:    getenvWithDefault("WHATSAPP_API_VERSION", "v20.0"),
			ApproverID:    os.Getenv("WHATSAPP_APPROVER_ID"),
		},
		Sheets: SheetsConfig{
			CredentialsPath: os.Getenv("GOOGLE_SHEETS_CREDENTIALS_PATH"),
			SpreadsheetID:   os.Getenv("GOOGLE_SHEET_DATABASE_ID"),
		},
		Reporting: ReportingConfig{
			CronSchedule: getenvWithDefault("REPORT_CRON_SCHEDULE", "0 20 * * 5"),
			Timezone:     getenvWithDefault("TIMEZONE", "Europe/Berlin"),
		},
		AI: AIConfig{
			AnthropicKey: os.Getenv("ANTHROPIC_API_KEY"),
		},
		MongoDB: MongoDBConfig{
			URI:    os.Getenv("MONGODB_URI"),
			DBName: getenvWithDefault("MONGODB_DB_NAME", "hamma"),
		},
		RabbitMQ: RabbitMQConfig{
			URI:   os.Getenv("RABBITMQ_URI"),
			Queue: getenvWithDefault("RABBITMQ_QUEUE", "orders"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}

	if c.Assistant.BaseURL == "" {
		return errors.New("ASSISTANT_API_BASE_URL must be provided")
	}
	if c.Assistant.Timeout <= 0 {
		return errors.New("ASSISTANT_TIMEOUT must be positive")
	}

	switch {
	case c.Approval.AdminPassword == "":
		return errors.New("ADMIN_PASSWORD must be provided")
	case c.Approval.Threshold.IsNegative():
		return errors.New("APPROVAL_THRESHOLD must not be negative")
	case c.Approval.AttemptsPerMinute <= 0:
		return errors.New("APPROVAL_ATTEMPTS_PER_MINUTE must be positive")
	}

	if c.Contract.Currency == "" {
		return errors.New("CURRENCY must not be empty")
	}

	if c.WhatsApp.Enabled() {
		switch {
		case c.WhatsApp.PhoneNumberID == "":
			return errors.New("WHATSAPP_PHONE_NUMBER_ID must be provided with WHATSAPP_TOKEN")
		case c.WhatsApp.ApproverID == "":
			return errors.New("WHATSAPP_APPROVER_ID must be provided with WHATSAPP_TOKEN")
		case c.WhatsApp.BaseURL == "":
			return errors.New("WHATSAPP_BASE_URL must not be empty")
		case c.WhatsApp.APIVersion == "":
			return errors.New("WHATSAPP_API_VERSION must not be empty")
		}
	}

	if (c.Sheets.CredentialsPath == "") != (c.Sheets.SpreadsheetID == "") {
		return errors.New("GOOGLE_SHEETS_CREDENTIALS_PATH and GOOGLE_SHEET_DATABASE_ID must be provided together")
	}

	if c.MongoDB.URI != "" && c.MongoDB.DBName == "" {
		return errors.New("MONGODB_DB_NAME must not be empty")
	}

	if c.RabbitMQ.URI != "" && c.RabbitMQ.Queue == "" {
		return errors.New("RABBITMQ_QUEUE must not be empty")
	}

	if c.Reporting.CronSchedule == "" {
		return errors.New("REPORT_CRON_SCHEDULE must be provided")
	}

	if c.Reporting.Timezone == "" {
		return errors.New("TIMEZONE must be provided")
	}

	return nil
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func splitLines(value string) []string {
	var lines []string
	for _, line := range strings.Split(value, ";") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
