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

type Config struct {
	// Server configuration
	Environment   string
	PublicBaseURL string

	// Redis configuration
	RedisURL      string
	RedisPassword string
	RedisDB       int

	// PubNub configuration
	PubNubPublishKey   string
	PubNubSubscribeKey string
	PubNubSecretKey    string
	PubNubUserID       string
	PubNubChannel      string

	// Kafka configuration
	KafkaBrokers     []string
	KafkaTopicTicket string

	// Payment provider configuration
	PaymentProvider string
	RazorpayKeyID   string
	RazorpaySecret  string
	RazorpayBaseURL string
	ProviderTimeout time.Duration

	// Event configuration
	EventName   string
	EventCode   string
	TicketPrice decimal.Decimal
	Currency    string
	MaxTickets  int

	// Storage configuration
	StoreBackend   string
	SessionBackend string
	SessionTTL     time.Duration

	// Operator configuration
	AdminEmail        string
	AdminPasswordHash string
	LoginRateLimit    int

	// Keepalive configuration
	KeepaliveURL   string
	KeepaliveSpec  string
	EmbeddedWorker bool

	// Monitoring
	EnableMetrics bool
	MetricsPort   string
}

const (
	BackendPocketBase = "pocketbase"
	BackendRedis      = "redis"
	BackendMemory     = "memory"

	ProviderRazorpay = "razorpay"
	ProviderSandbox  = "sandbox"
)

func LoadConfig() *Config {
	_ = godotenv.Load(".env")
	_ = godotenv.Load("../.env")

	return &Config{
		// Server
		Environment:   getEnv("ENVIRONMENT", "development"),
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", "http://localhost:8090"),

		// Redis
		RedisURL:      getEnv("REDIS_URL", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		// PubNub
		PubNubPublishKey:   getEnv("PUBNUB_PUBLISH_KEY", ""),
		PubNubSubscribeKey: getEnv("PUBNUB_SUBSCRIBE_KEY", ""),
		PubNubSecretKey:    getEnv("PUBNUB_SECRET_KEY", ""),
		PubNubUserID:       getEnv("PUBNUB_USER_ID", "festival-tickets"),
		PubNubChannel:      getEnv("PUBNUB_CHANNEL", "gate-events"),

		// Kafka
		KafkaBrokers:     getEnvAsList("KAFKA_BROKERS"),
		KafkaTopicTicket: getEnv("KAFKA_TOPIC_TICKET", "festival.tickets"),

		// Payment provider
		PaymentProvider: getEnv("PAYMENT_PROVIDER", ProviderRazorpay),
		RazorpayKeyID:   getEnv("RAZORPAY_KEY_ID", "rzp_test_your_key_id_here"),
		RazorpaySecret:  getEnv("RAZORPAY_KEY_SECRET", "your_key_secret_here"),
		RazorpayBaseURL: getEnv("RAZORPAY_BASE_URL", "https://api.razorpay.com/v1"),
		ProviderTimeout: getEnvAsDuration("PROVIDER_TIMEOUT", "10s"),

		// Event
		EventName:   getEnv("EVENT_NAME", "Mona Squad Festival 2025"),
		EventCode:   getEnv("EVENT_CODE", "MONA"),
		TicketPrice: getEnvAsDecimal("TICKET_PRICE", "100"),
		Currency:    getEnv("CURRENCY", "INR"),
		MaxTickets:  getEnvAsInt("MAX_TICKETS", 10),

		// Storage
		StoreBackend:   getEnv("STORE_BACKEND", BackendPocketBase),
		SessionBackend: getEnv("SESSION_BACKEND", BackendRedis),
		SessionTTL:     getEnvAsDuration("SESSION_TTL", "12h"),

		// Operators
		AdminEmail:        getEnv("ADMIN_EMAIL", ""),
		AdminPasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),
		LoginRateLimit:    getEnvAsInt("LOGIN_RATE_LIMIT", 10),

		// Keepalive
		KeepaliveURL:   getEnv("KEEPALIVE_URL", ""),
		KeepaliveSpec:  getEnv("KEEPALIVE_SPEC", "*/5 * * * *"),
		EmbeddedWorker: getEnvAsBool("EMBEDDED_WORKER", true),

		// Monitoring
		EnableMetrics: getEnvAsBool("ENABLE_METRICS", true),
		MetricsPort:   getEnv("METRICS_PORT", "9090"),
	}
}

func (c *Config) Validate() error {
	switch c.StoreBackend {
	case BackendPocketBase, BackendRedis:
	default:
		return fmt.Errorf("config: unknown STORE_BACKEND %q", c.StoreBackend)
	}
	switch c.SessionBackend {
	case BackendRedis, BackendMemory:
	default:
		return fmt.Errorf("config: unknown SESSION_BACKEND %q", c.SessionBackend)
	}
	switch c.PaymentProvider {
	case ProviderRazorpay, ProviderSandbox:
	default:
		return fmt.Errorf("config: unknown PAYMENT_PROVIDER %q", c.PaymentProvider)
	}
	if c.IsProduction() && c.PaymentProvider == ProviderSandbox {
		return errors.New("config: sandbox payment provider is not allowed in production")
	}
	if c.RazorpaySecret == "" {
		return errors.New("config: RAZORPAY_KEY_SECRET is required")
	}
	if !c.TicketPrice.IsPositive() {
		return errors.New("config: TICKET_PRICE must be positive")
	}
	if c.MaxTickets < 1 {
		return errors.New("config: MAX_TICKETS must be at least 1")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}

func getEnvAsDecimal(key string, defaultValue string) decimal.Decimal {
	valueStr := getEnv(key, defaultValue)
	if value, err := decimal.NewFromString(valueStr); err == nil {
		return value
	}
	return decimal.RequireFromString(defaultValue)
}

// getEnvAsList splits "host1:9092,host2:9092" into its parts.
func getEnvAsList(key string) []string {
	var out []string
	for _, part := range strings.Split(getEnv(key, ""), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
