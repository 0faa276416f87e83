package logger

import (
	"log/slog"
	"strings"
)

// Key fragments that mark an attribute as sensitive. Matching is
// case-insensitive and by substring, so "captcha_solution" and
// "X-GC-Credential" are both covered.
var sensitiveKeyPatterns = []string{
	"password",
	"secret",
	"token",
	"credential",
	"passcode",
	"captcha_solution",
	"authorization",
}

// redactedValue is the placeholder for redacted sensitive data.
const redactedValue = "***REDACTED***"

// redactSensitive replaces the value of sensitive string attributes.
// Groups are walked recursively.
func redactSensitive(a slog.Attr) slog.Attr {
	switch a.Value.Kind() {
	case slog.KindString:
		if a.Value.String() != "" && IsSensitiveKey(a.Key) {
			return slog.String(a.Key, redactedValue)
		}
	case slog.KindGroup:
		attrs := a.Value.Group()
		newAttrs := make([]slog.Attr, len(attrs))
		for i, attr := range attrs {
			newAttrs[i] = redactSensitive(attr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(newAttrs...)}
	}
	return a
}

// RedactString masks a secret for display, keeping the first and last
// three characters of long values.
// Format: first 3 chars + "..." + last 3 chars
func RedactString(value string) string {
	if value == "" {
		return ""
	}
	if len(value) <= 10 {
		return "***"
	}
	return value[:3] + "..." + value[len(value)-3:]
}

// IsSensitiveKey checks if a key name suggests sensitive content.
func IsSensitiveKey(key string) bool {
	keyLower := strings.ToLower(key)
	for _, pattern := range sensitiveKeyPatterns {
		if strings.Contains(keyLower, pattern) {
			return true
		}
	}
	return false
}
