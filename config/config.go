package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

var (
	PORT       string
	APP_ENV    string
	LOG_LEVEL  string
	DB_DRIVER  string
	DB_URL     string
	JWT_SECRET string

	GOOGLE_CLIENT_ID         string
	GOOGLE_CLIENT_SECRET     string
	GOOGLE_REDIRECT_URL      string
	GOOGLE_FRONTEND_REDIRECT string

	STRIPE_SECRET_KEY     string
	STRIPE_WEBHOOK_SECRET string

	APP_URL     string
	CORS_ORIGIN string

	REDIS_ADDR string
	REDIS_PASS string

	GEO_API_URL     string
	DEFAULT_REGION  string
	DEFAULT_PLAN_ID string
)

func LoadEnv() {
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found. Using system environment variables.")
	}

	PORT = getEnv("PORT", "8080")
	APP_ENV = getEnv("APP_ENV", "production")
	LOG_LEVEL = getEnv("LOG_LEVEL", "info")
	DB_DRIVER = getEnv("DB_DRIVER", "postgres")
	DB_URL = mustEnv("DB_URL")
	JWT_SECRET = mustEnv("JWT_SECRET")

	// social sign-in is optional; the routes answer 503 when unset
	GOOGLE_CLIENT_ID = getEnv("GOOGLE_CLIENT_ID", "")
	GOOGLE_CLIENT_SECRET = getEnv("GOOGLE_CLIENT_SECRET", "")
	GOOGLE_REDIRECT_URL = getEnv("GOOGLE_REDIRECT_URL", "")
	GOOGLE_FRONTEND_REDIRECT = getEnv("GOOGLE_FRONTEND_REDIRECT", "")

	STRIPE_SECRET_KEY = getEnv("STRIPE_SECRET_KEY", "")
	STRIPE_WEBHOOK_SECRET = getEnv("STRIPE_WEBHOOK_SECRET", "")

	APP_URL = getEnv("APP_URL", "http://localhost:5173")
	CORS_ORIGIN = getEnv("CORS_ORIGIN", APP_URL)

	REDIS_ADDR = getEnv("REDIS_ADDR", "")
	REDIS_PASS = getEnv("REDIS_PASS", "")

	GEO_API_URL = getEnv("GEO_API_URL", "http://ip-api.com/json")
	DEFAULT_REGION = getEnv("DEFAULT_REGION", "BR")
	DEFAULT_PLAN_ID = getEnv("DEFAULT_PLAN_ID", "basic")
}

// IsDevelopment reports whether the process runs with development defaults.
func IsDevelopment() bool {
	return APP_ENV == "development"
}

func mustEnv(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("Missing required environment variable: %s", key)
	}
	return v
}

func getEnv(key string, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return fallback
}
