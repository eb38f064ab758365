package config

import (
	"os"
	"time"
)

// Config holds application configuration
type Config struct {
	Port     string
	Env      string
	LogLevel string

	DatabaseURL string

	// Twilio credentials double as the flow endpoint's basic-auth pair.
	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFlowURL    string

	// The service's own WhatsApp number; recorded as the recipient of every
	// inbound message and used as the sender of every platform reply.
	WhatsAppNumber string

	// Base URL of the generic notification service used for mobile-channel
	// recipients.
	NotifyBaseURL string

	HTTPTimeout time.Duration
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:             getEnv("PORT", "8080"),
		Env:              getEnv("ENV", "development"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		DatabaseURL:      getEnv("DATABASE_URL", ""),
		TwilioAccountSID: getEnv("TWILIO_SID", ""),
		TwilioAuthToken:  getEnv("TWILIO_KEY", ""),
		TwilioFlowURL:    getEnv("TWILIO_FLOW_URL", ""),
		WhatsAppNumber:   getEnv("WHATSAPP_NUMBER", ""),
		NotifyBaseURL:    getEnv("APP_BASE_URL", ""),
		HTTPTimeout:      getEnvAsDuration("HTTP_TIMEOUT", 10*time.Second),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
