package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port               string
	Env                string
	LogLevel           string
	DatabaseURL        string
	CORSAllowedOrigins []string

	// Auth
	AuthJWTSecret string

	// Scheduling defaults, used when a doctor or clinic has no explicit hours.
	SlotIntervalMinutes int
	DefaultDayStart     string
	DefaultDayEnd       string

	// WhatsApp gateway
	WhatsAppAPIEndpoint      string
	WhatsAppAPIToken         string
	WhatsAppTimeout          time.Duration
	WhatsAppRetryMaxAttempts int
	WhatsAppRetryBaseDelay   time.Duration
	DefaultCountryCode       string

	// Email
	SendGridAPIKey    string
	SendGridFromEmail string
	SendGridFromName  string
	SESFromEmail      string

	// Queue / workers
	UseMemoryQueue   bool
	WorkerCount      int
	DeliveryQueueURL string

	// AWS
	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string

	// Redis
	RedisAddr     string
	RedisPassword string
	RedisTLS      bool
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:               getEnv("PORT", "8080"),
		Env:                getEnv("ENV", "development"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		CORSAllowedOrigins: splitAndTrim(getEnv("CORS_ALLOWED_ORIGINS", "")),

		AuthJWTSecret: getEnv("AUTH_JWT_SECRET", ""),

		SlotIntervalMinutes: getEnvAsInt("SLOT_INTERVAL_MINUTES", 30),
		DefaultDayStart:     getEnv("DEFAULT_DAY_START", "09:00"),
		DefaultDayEnd:       getEnv("DEFAULT_DAY_END", "17:00"),

		WhatsAppAPIEndpoint:      getEnv("WA_API_ENDPOINT", ""),
		WhatsAppAPIToken:         getEnv("WA_API_TOKEN", ""),
		WhatsAppTimeout:          getEnvAsDuration("WA_TIMEOUT", 10*time.Second),
		WhatsAppRetryMaxAttempts: getEnvAsInt("WA_RETRY_MAX_ATTEMPTS", 5),
		WhatsAppRetryBaseDelay:   getEnvAsDuration("WA_RETRY_BASE_DELAY", 2*time.Minute),
		DefaultCountryCode:       getEnv("DEFAULT_COUNTRY_CODE", "20"),

		SendGridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail: getEnv("SENDGRID_FROM_EMAIL", ""),
		SendGridFromName:  getEnv("SENDGRID_FROM_NAME", "Tabibah Clinics"),
		SESFromEmail:      getEnv("SES_FROM_EMAIL", ""),

		UseMemoryQueue:   getEnvAsBool("USE_MEMORY_QUEUE", false),
		WorkerCount:      getEnvAsInt("WORKER_COUNT", 2),
		DeliveryQueueURL: getEnv("DELIVERY_QUEUE_URL", ""),

		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
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

func splitAndTrim(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
