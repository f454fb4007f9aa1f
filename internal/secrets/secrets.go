package secrets

import (
	"fmt"
	"os"
	"strings"
)

// fileSuffix marks an env var that points at a file holding the real value
// (Docker and Kubernetes secret mounts)
const fileSuffix = "_FILE"

// Get resolves a secret from KEY_FILE first, then KEY, then the default.
// Only an unreadable KEY_FILE is an error.
func Get(envKey, defaultValue string) (string, error) {
	if path := os.Getenv(envKey + fileSuffix); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read secret file for %s: %w", envKey, err)
		}
		return strings.TrimSpace(string(data)), nil
	}

	if value := os.Getenv(envKey); value != "" {
		return value, nil
	}

	return defaultValue, nil
}

// GetOptional is Get without the error: an unreadable file yields the default
func GetOptional(envKey, defaultValue string) string {
	value, err := Get(envKey, defaultValue)
	if err != nil {
		return defaultValue
	}
	return value
}

// GetList resolves a comma-separated secret, such as several webhook URLs
func GetList(envKey string) ([]string, error) {
	raw, err := Get(envKey, "")
	if err != nil {
		return nil, err
	}

	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out, nil
}

// Redact shortens a secret for logs, keeping only a recognisable prefix
func Redact(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= 6 {
		return "***"
	}
	return secret[:4] + "***"
}
