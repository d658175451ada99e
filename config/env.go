package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPPort string
	Redis    RedisConfig
	DB       DBConfig
	Kafka    KafkaConfig
	AeroPay  AeroPayConfig
	OrderAPI OrderAPIConfig
	Auth     AuthConfig
	Store    StoreConfig
}

type DBConfig struct {
	DSN string
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
}

type AeroPayConfig struct {
	BaseURL    string
	MerchantID string
	APIKey     string
	APISecret  string
}

type OrderAPIConfig struct {
	BaseURL string
	APIKey  string
}

type AuthConfig struct {
	JWTSecret string
}

type StoreConfig struct {
	LocationID string
	Timezone   string
}

func LoadConfig() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))

	return Config{
		HTTPPort: getEnv("HTTP_PORT", "8080"),
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		DB: DBConfig{
			DSN: getEnv("DATABASE_DSN", "host=localhost user=postgres password=postgres dbname=bloomcart port=5432 sslmode=disable"),
		},
		Kafka: KafkaConfig{
			Brokers: splitCSV(getEnv("KAFKA_BROKERS", "localhost:9092")),
			Topic:   getEnv("KAFKA_ORDER_TOPIC", "storefront.orders"),
		},
		AeroPay: AeroPayConfig{
			BaseURL:    getEnv("AEROPAY_BASE_URL", "https://api.aeropay.com/v1"),
			MerchantID: getEnv("AEROPAY_MERCHANT_ID", ""),
			APIKey:     getEnv("AEROPAY_API_KEY", ""),
			APISecret:  getEnv("AEROPAY_API_SECRET", ""),
		},
		OrderAPI: OrderAPIConfig{
			BaseURL: getEnv("ORDER_API_BASE_URL", "http://localhost:9000"),
			APIKey:  getEnv("ORDER_API_KEY", ""),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
		},
		Store: StoreConfig{
			LocationID: getEnv("STORE_LOCATION_ID", "1000"),
			Timezone:   getEnv("STORE_TIMEZONE", "America/New_York"),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
