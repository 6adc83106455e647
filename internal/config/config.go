package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	PORT string

	DB_HOST     string
	DB_PORT     string
	DB_USER     string
	DB_PASSWORD string
	DB_NAME     string

	ES_URL      string
	ES_USER     string
	ES_PASSWORD string
	ES_INDEX    string

	JWT_SECRET        string
	ACCESS_TOKEN_EXP  time.Duration
	REFRESH_TOKEN_EXP time.Duration

	KAFKA_ADDRESS string
	LOG_LEVEL     string
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Notice: .env file not found: %v. Using system environment variables", err)
	}

	config := &Config{
		PORT:              getenv("PORT", "8080"),
		DB_HOST:           getenv("DATABASE_HOST", "localhost"),
		DB_PORT:           getenv("DATABASE_PORT", "5432"),
		DB_USER:           getenv("DATABASE_USER", "postgres"),
		DB_PASSWORD:       getenv("DATABASE_PASSWORD", "postgres"),
		DB_NAME:           getenv("DATABASE_NAME", "postgres"),
		ES_URL:            os.Getenv("ES_URL"),
		ES_USER:           os.Getenv("ES_USER"),
		ES_PASSWORD:       os.Getenv("ES_PASSWORD"),
		ES_INDEX:          getenv("ES_INDEX", "todos"),
		JWT_SECRET:        getenv("JWT_SECRET_KEY", "secret"),
		ACCESS_TOKEN_EXP:  getseconds("ACCESS_TOKEN_EXP", 15*time.Minute),
		REFRESH_TOKEN_EXP: getseconds("REFRESH_TOKEN_EXP", 15*24*time.Hour),
		KAFKA_ADDRESS:     os.Getenv("KAFKA_ADDRESS"),
		LOG_LEVEL:         getenv("LOG_LEVEL", "info"),
	}

	return config, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Token expiries are configured in seconds, like the rest of the stack
// expects them.
func getseconds(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	secs, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("Notice: invalid %s=%q, using default", key, v)
		return fallback
	}
	return time.Duration(secs) * time.Second
}
