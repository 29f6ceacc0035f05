package config

import (
	"fmt"
	"os"
)

// Config carries everything the server needs from the environment.
type Config struct {
	Port      string
	JWTSecret string

	DBUser     string
	DBPassword string
	DBHost     string
	DBPort     string
	DBName     string

	// Backend selects the wallet store: "postgres" (default) or "memory".
	Backend string
}

func Load() Config {
	cfg := Config{
		Port:       getenv("PORT", "8080"),
		JWTSecret:  os.Getenv("JWT_SECRET"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBHost:     getenv("DB_HOST", "localhost"),
		DBPort:     getenv("DB_PORT", "5432"),
		DBName:     os.Getenv("DB_NAME"),
		Backend:    getenv("WALLET_BACKEND", "postgres"),
	}
	return cfg
}

// DSN composes the Postgres connection string from the DB_* parts.
func (c Config) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName)
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
