// Package config reads process configuration from the environment, with
// an optional .env file for local development.
package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// LoadEnv merges a .env file into the environment when one exists. Called
// before the logger is initialized, so failures go to the stdlib log.
func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}
}

// GetEnv returns the value of key, or defaultVal when unset or empty.
func GetEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// GetIntEnv returns key parsed as an int, or defaultVal when unset or
// unparseable.
func GetIntEnv(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

// GetSecondsEnv returns key, an integer number of seconds, as a duration.
// Non-positive or unparseable values fall back to defaultVal.
func GetSecondsEnv(key string, defaultVal time.Duration) time.Duration {
	if n := GetIntEnv(key, 0); n > 0 {
		return time.Duration(n) * time.Second
	}
	return defaultVal
}

// IsProduction reports whether ENV is set to production.
func IsProduction() bool {
	return GetEnv("ENV", "development") == "production"
}
