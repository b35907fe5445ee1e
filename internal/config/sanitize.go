package config

import "strings"

// Sanitize returns a copy of cfg with sensitive fields masked, suitable for
// logging the effective configuration at startup.
func Sanitize(cfg *Config) *Config {
	sanitized := *cfg
	if sanitized.Storage.EncryptionKey != "" {
		sanitized.Storage.EncryptionKey = maskSecret(sanitized.Storage.EncryptionKey)
	}
	return &sanitized
}

func maskSecret(s string) string {
	if len(s) <= 4 {
		return "****"
	}
	return s[:2] + strings.Repeat("*", len(s)-4) + s[len(s)-2:]
}
