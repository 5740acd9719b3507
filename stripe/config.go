package stripe

import (
	"fmt"
	"os"
)

// Config holds the complete Stripe configuration
type Config struct {
	APIKey          string `yaml:"api_key" json:"api_key"`
	WebhookSecret   string `yaml:"webhook_secret" json:"webhook_secret"`
	DefaultCurrency string `yaml:"default_currency" json:"default_currency"`
	// Price IDs of the recurring prices offered for subscriptions.
	MonthlyPriceID string `yaml:"monthly_price_id" json:"monthly_price_id"`
	YearlyPriceID  string `yaml:"yearly_price_id" json:"yearly_price_id"`
}

// NewConfig creates a new Stripe configuration from environment variables
func NewConfig() (*Config, error) {
	apiKey := os.Getenv("PAYMENTS_STRIPEAPISECRET")
	if apiKey == "" {
		return nil, fmt.Errorf("PAYMENTS_STRIPEAPISECRET environment variable is required")
	}

	webhookSecret := os.Getenv("PAYMENTS_STRIPEWEBHOOKSECRET")
	if webhookSecret == "" {
		return nil, fmt.Errorf("PAYMENTS_STRIPEWEBHOOKSECRET environment variable is required")
	}

	return &Config{
		APIKey:          apiKey,
		WebhookSecret:   webhookSecret,
		DefaultCurrency: getEnvOrDefault("PAYMENTS_DEFAULT_CURRENCY", "usd"),
		MonthlyPriceID:  os.Getenv("STRIPE_MONTHLY_PRICE_ID"),
		YearlyPriceID:   os.Getenv("STRIPE_YEARLY_PRICE_ID"),
	}, nil
}

// getEnvOrDefault returns the environment variable value or a default value
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
