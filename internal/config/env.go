// Package config reads process configuration from the environment. The .env
// file, when present, is loaded by the godotenv autoload import in the mains.
package config

import (
	"os"
	"strconv"
)

// Getenv reads an environment variable or returns a default value.
func Getenv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

// GetenvInt parses an environment variable as an integer, else a default.
func GetenvInt(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
