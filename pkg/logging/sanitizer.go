package logging

import (
	"regexp"
	"strings"
)

// RedactedText is the replacement text for sensitive data.
const RedactedText = "[REDACTED]"

var (
	// password=xxx, pwd=xxx, pass=xxx (until next delimiter)
	passwordPattern = regexp.MustCompile(`(?i)(password|pwd|pass)=[^;&\s]+`)

	// Bearer headers carrying a session token
	bearerPattern = regexp.MustCompile(`(?i)Bearer\s+[A-Za-z0-9\-_=.]+`)

	// Bare JWTs (three base64url segments); the signature may be empty for unsigned test tokens
	jwtPattern = regexp.MustCompile(`eyJ[A-Za-z0-9\-_]*\.[A-Za-z0-9\-_]+\.[A-Za-z0-9\-_]*`)

	// user:pass@host in connection URLs
	connStringPattern = regexp.MustCompile(`://[^:/\s]+:[^@\s]+@`)

	emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
)

// SanitizeConnectionString removes credentials from a connection string.
// Use this before logging any database or Redis target.
func SanitizeConnectionString(connStr string) string {
	if connStr == "" {
		return ""
	}

	sanitized := passwordPattern.ReplaceAllString(connStr, "${1}="+RedactedText)
	return connStringPattern.ReplaceAllString(sanitized, "://"+RedactedText+"@")
}

// SanitizeError renders err with tokens, credentials and e-mail addresses removed.
// Store and identity-provider errors can echo request data back, so every error
// that is logged from a request path goes through here.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}

	sanitized := err.Error()
	sanitized = bearerPattern.ReplaceAllString(sanitized, "Bearer "+RedactedText)
	sanitized = jwtPattern.ReplaceAllString(sanitized, RedactedText)
	sanitized = SanitizeConnectionString(sanitized)
	return emailPattern.ReplaceAllStringFunc(sanitized, RedactEmail)
}

// RedactEmail keeps the first character of the local part and the domain,
// e.g. "alice@example.com" becomes "a***@example.com".
func RedactEmail(email string) string {
	local, domain, ok := strings.Cut(email, "@")
	if !ok || local == "" {
		return RedactedText
	}
	return local[:1] + "***@" + domain
}

// TruncateString truncates s to maxLen bytes and adds an ellipsis if needed.
func TruncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
