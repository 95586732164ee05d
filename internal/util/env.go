package util

import (
	"os"
	"strconv"
)

// EnvOrDefault returns the environment variable value or fallback when it is
// empty.
func EnvOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// EnvBool parses the environment variable as a boolean, returning fallback
// when it is empty or unparseable.
func EnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}
