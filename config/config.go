package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	GinMode     string
	LogLevel    string
	Environment string

	StoreDriver string
	FixturePath string
	DBUser      string
	DBPassword  string
	DBHost      string
	DBPort      string
	DBName      string

	JWTSecret string

	RabbitMQURL       string
	OrderExchange     string
	OrderQueue        string
	DeadLetterQueue   string
	DelayExchange     string
	MaxPriority       int
	PaymentCheckDelay time.Duration

	SearchDefaultLimit int
	SearchMaxLimit     int
}

// LoadConfig reads the environment, after loading a .env file when one is
// present in the working directory.
func LoadConfig() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:        getEnv("PORT", "8080"),
		GinMode:     getEnv("GIN_MODE", "release"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		Environment: getEnv("APP_ENV", "development"),

		StoreDriver: strings.ToLower(getEnv("STORE_DRIVER", "memory")),
		FixturePath: getEnv("FIXTURE_PATH", ""),
		DBUser:      getEnv("DB_USER", "root"),
		DBPassword:  getEnvFromFile("DB_PASSWORD_FILE", "DB_PASSWORD", ""),
		DBHost:      getEnv("DB_HOST", "localhost"),
		DBPort:      getEnv("DB_PORT", "3306"),
		DBName:      getEnv("DB_NAME", "commerce"),

		JWTSecret: getEnvFromFile("JWT_SECRET_FILE", "JWT_SECRET", "dev-secret-change-me"),

		RabbitMQURL:       getEnv("RABBITMQ_URL", ""),
		OrderExchange:     getEnv("ORDER_EXCHANGE", "orders_exchange"),
		OrderQueue:        getEnv("ORDER_QUEUE", "orders_queue"),
		DeadLetterQueue:   getEnv("DEAD_LETTER_QUEUE", "dead_letter_queue"),
		DelayExchange:     getEnv("DELAY_EXCHANGE", "delay_exchange"),
		MaxPriority:       10, // x-max-priority of the order queue
		PaymentCheckDelay: getEnvDuration("PAYMENT_CHECK_DELAY", 15*time.Minute),

		SearchDefaultLimit: getEnvInt("SEARCH_DEFAULT_LIMIT", 50),
		SearchMaxLimit:     getEnvInt("SEARCH_MAX_LIMIT", 250),
	}
}

// DSN is the go-sql-driver/mysql connection string.
func (c *Config) DSN() string {
	return c.DBUser + ":" + c.DBPassword + "@tcp(" + c.DBHost + ":" + c.DBPort + ")/" + c.DBName +
		"?parseTime=true&charset=utf8mb4"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFromFile(fileKey, envKey, defaultValue string) string {
	if filePath := os.Getenv(fileKey); filePath != "" {
		if content, err := os.ReadFile(filePath); err == nil {
			return strings.TrimSpace(string(content))
		}
	}
	return getEnv(envKey, defaultValue)
}

func getEnvInt(key string, defaultValue int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return n
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return d
	}
	return defaultValue
}
