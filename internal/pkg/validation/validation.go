package validation

import (
	"strings"
	"time"
)

// IsValidEmail accepts an address containing "@" whose domain part contains a dot.
func IsValidEmail(email string) bool {
	at := strings.LastIndex(email, "@")
	if at <= 0 || at == len(email)-1 {
		return false
	}
	return strings.Contains(email[at+1:], ".")
}

// NormalizeEmail trims the address and returns nil when it is empty or invalid.
func NormalizeEmail(email *string) *string {
	if email == nil {
		return nil
	}
	v := strings.TrimSpace(*email)
	if v == "" || !IsValidEmail(v) {
		return nil
	}
	return &v
}

// NormalizeOptional trims s and returns nil when nothing is left.
func NormalizeOptional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

var eventDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseEventDate accepts ISO-8601 with a zone marker ("Z" or an offset), a local
// ISO-8601 date-time, or a bare YYYY-MM-DD date. Zoneless values are read as UTC.
func ParseEventDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range eventDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
