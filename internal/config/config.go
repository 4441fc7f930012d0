package config

import (
	"fmt"
	"log"
	"os"
)

// Config carries the environment-derived settings for the service. Secrets
// come from .env in development and the process environment in production.
type Config struct {
	Port string

	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string

	RedisAddr     string
	RedisPassword string

	// Discord application credentials.
	AppID     string
	BotToken  string
	PublicKey string

	// MagicKey is the shared secret appended to every magic token.
	MagicKey string
	// JWTSecret signs moderator tokens for the review surface.
	JWTSecret string
	// PortalBaseURL is the web portal address embedded in magic links.
	PortalBaseURL string
}

// Load reads the configuration from the environment. Missing secrets are
// fatal; connection settings fall back to local development defaults.
func Load() *Config {
	cfg := &Config{
		Port:          getEnv("PORT", "3000"),
		DBHost:        getEnv("DB_HOST", "localhost"),
		DBUser:        getEnv("DB_USER", "user"),
		DBPassword:    getEnv("DB_PASSWORD", "password"),
		DBName:        getEnv("DB_NAME", "privacyreporting"),
		DBPort:        getEnv("DB_PORT", "5432"),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		AppID:         mustGetEnv("APP_ID"),
		BotToken:      mustGetEnv("DISCORD_TOKEN"),
		PublicKey:     mustGetEnv("PUBLIC_KEY"),
		MagicKey:      mustGetEnv("MAGIC_KEY"),
		JWTSecret:     mustGetEnv("JWT_SECRET"),
		PortalBaseURL: getEnv("PORTAL_BASE_URL", "http://localhost:5173"),
	}
	return cfg
}

// DSN builds the PostgreSQL connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort)
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func mustGetEnv(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok {
		log.Fatalf("missing env: %s", key)
	}
	return v
}
