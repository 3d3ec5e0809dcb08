package service

import (
	"strings"
	"time"
)

// maxRegLimit bounds reg_limit on event creation.
const maxRegLimit = 100_000

// datetimeLocalLayout is what an HTML <input type="datetime-local"> submits.
const datetimeLocalLayout = "2006-01-02T15:04"

// normalizeEmail trims and lower-cases an email so it can be used as a key.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// isValidEmail does a basic structural check.
func isValidEmail(email string) bool {
	local, domain, ok := strings.Cut(email, "@")
	if !ok || strings.Contains(domain, "@") {
		return false
	}
	return len(local) > 0 && strings.Contains(domain, ".") &&
		!strings.HasPrefix(domain, ".") && !strings.HasSuffix(domain, ".")
}

// optionalString returns nil for missing or blank values.
func optionalString(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

// parseEventDateTime accepts RFC 3339 and datetime-local input. The latter
// carries no zone and is read as UTC.
func parseEventDateTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(datetimeLocalLayout, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
