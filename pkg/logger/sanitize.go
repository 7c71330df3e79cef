package logger

import (
	"net/url"
	"strings"
)

// SanitizedEmail masks an email address for logging (e.g. "s****@*******.th").
// Audit records need to correlate attempts per account without storing the
// address in cleartext logs.
func SanitizedEmail(email string) string {
	at := strings.IndexByte(email, '@')
	if at <= 0 || at == len(email)-1 {
		return "[invalid-email]"
	}

	local, domain := email[:at], email[at+1:]
	masked := string(local[0]) + strings.Repeat("*", len(local)-1)

	if dot := strings.LastIndexByte(domain, '.'); dot > 0 {
		masked += "@" + strings.Repeat("*", dot) + domain[dot:]
	} else {
		masked += "@" + strings.Repeat("*", len(domain))
	}

	return masked
}

// QueryHasSensitiveParams reports whether a raw query string carries a
// parameter that must never reach the logs.
func QueryHasSensitiveParams(rawQuery string) bool {
	if rawQuery == "" {
		return false
	}

	values, err := url.ParseQuery(rawQuery)
	if err != nil {
		// Unparsable query strings are redacted wholesale.
		return true
	}

	for key := range values {
		switch strings.ToLower(key) {
		case "token", "password", "secret", "authorization", "api_key":
			return true
		}
	}
	return false
}
