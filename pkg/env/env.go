package env

import (
	"os"
	"strings"
)

// Get returns the trimmed value of key, or fallback when unset or blank.
func Get(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

// Port prefers the platform-assigned PORT over the configured one.
func Port(configured string) string {
	return Get("PORT", configured)
}
