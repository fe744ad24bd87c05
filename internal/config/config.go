package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all configuration values
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Payments PaymentsConfig
	Webhooks WebhooksConfig
	Jobs     JobsConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port string
	Env  string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// URL returns the database connection URL
func (c DatabaseConfig) URL() string {
	return "postgres://" + c.User + ":" + c.Password + "@" + c.Host + ":" + strconv.Itoa(c.Port) + "/" + c.DBName + "?sslmode=" + c.SSLMode
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	URL      string
	Password string
}

// PaymentsConfig holds the settlement rail configuration
type PaymentsConfig struct {
	// Disabled administratively rejects every purchase with no side effects.
	Disabled bool
	// Simulated selects the executor that never touches the chain.
	Simulated bool
	RPCURL    string
	// USDCContract is the ERC-20 token contract address. Empty forces
	// simulated mode since no transfer can be built without it.
	USDCContract string
	// BuyerPrivateKey is the hex key of the custodial test buyer wallet.
	BuyerPrivateKey string
	ExecuteTimeout  time.Duration
}

// WebhooksConfig holds outbound webhook delivery configuration
type WebhooksConfig struct {
	AllowPrivateHosts bool
	AllowHTTP         bool
	DeliveryTimeout   time.Duration
}

// JobsConfig holds background job tuning
type JobsConfig struct {
	AutoPaymentPollInterval time.Duration
	AutoPaymentConcurrency  int
	TxVerifyConcurrency     int
	WebhookConcurrency      int
}

// Load loads configuration from environment variables
func Load() *Config {
	simulated := getEnvAsBool("PAYMENTS_SIMULATED", false)
	usdc := getEnv("USDC_CONTRACT_ADDRESS", "")
	if usdc == "" {
		simulated = true
	}

	return &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
			Env:  getEnv("SERVER_ENV", "development"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "agentmart"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			URL:      getEnv("REDIS_URL", "redis://localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
		},
		Payments: PaymentsConfig{
			Disabled:        getEnvAsBool("PAYMENTS_DISABLED", false),
			Simulated:       simulated,
			RPCURL:          getEnv("RPC_URL", "http://localhost:8545"),
			USDCContract:    usdc,
			BuyerPrivateKey: getEnv("BUYER_PRIVATE_KEY", ""),
			ExecuteTimeout:  getEnvAsDuration("PAYMENT_EXECUTE_TIMEOUT", 60*time.Second),
		},
		Webhooks: WebhooksConfig{
			AllowPrivateHosts: getEnvAsBool("ALLOW_PRIVATE_WEBHOOK_URLS", false),
			AllowHTTP:         getEnvAsBool("ALLOW_HTTP_WEBHOOKS", false),
			DeliveryTimeout:   getEnvAsDuration("WEBHOOK_DELIVERY_TIMEOUT", 10*time.Second),
		},
		Jobs: JobsConfig{
			AutoPaymentPollInterval: getEnvAsDuration("AUTO_PAYMENT_POLL_INTERVAL", 30*time.Second),
			AutoPaymentConcurrency:  getEnvAsInt("AUTO_PAYMENT_CONCURRENCY", 4),
			TxVerifyConcurrency:     getEnvAsInt("TX_VERIFY_CONCURRENCY", 2),
			WebhookConcurrency:      getEnvAsInt("WEBHOOK_CONCURRENCY", 10),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
