package classify

import (
	"regexp"
	"strings"
)

// Type is the coarse content category assigned to recognized text.
type Type string

const (
	TypeText    Type = "text"
	TypeURL     Type = "url"
	TypeEmail   Type = "email"
	TypePhone   Type = "phone"
	TypeUnknown Type = "unknown"
)

var (
	urlRe   = regexp.MustCompile(`(?i)^https?://\S+$`)
	emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phoneRe = regexp.MustCompile(`^[+]?[\d\s\-()]{10,}$`)
	wsRe    = regexp.MustCompile(`\s`)
)

// Detect classifies raw text as url, email, phone or plain text. The checks
// run in that order and the first match wins. The phone check runs against
// the text with all whitespace stripped and requires at least 10 characters.
// Detect never returns TypeUnknown; that value exists only for records whose
// origin did not go through classification.
func Detect(text string) Type {
	trimmed := strings.TrimSpace(text)

	if urlRe.MatchString(trimmed) {
		return TypeURL
	}
	if emailRe.MatchString(trimmed) {
		return TypeEmail
	}
	if phoneRe.MatchString(wsRe.ReplaceAllString(trimmed, "")) {
		return TypePhone
	}
	return TypeText
}
