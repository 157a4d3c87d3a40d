// Package redact masks personally identifiable information in free text
// before it is stored.
package redact

import (
	"regexp"
	"strings"
)

// Placeholders substituted for each detected category.
const (
	EmailPlaceholder = "[EMAIL REDACTED]"
	PhonePlaceholder = "[PHONE REDACTED]"
	IPPlaceholder    = "[IP REDACTED]"
)

// Category names a kind of PII the redactor detects.
type Category string

const (
	CategoryEmail Category = "email"
	CategoryPhone Category = "phone"
	CategoryIP    Category = "ip"
)

var (
	emailPattern = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Z|a-z]{2,}\b`)
	// Loose US/international shape: optional +1 prefix, 3-3-4 digits.
	phonePattern = regexp.MustCompile(`\b(\+?1?[-.]?)?\(?\d{3}\)?[-.]?\d{3}[-.]?\d{4}\b`)
	// Octets are not range-checked.
	ipPattern = regexp.MustCompile(`\b\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}\b`)
)

// rules are applied in order; earlier placeholders are never re-matched by
// later patterns.
var rules = []struct {
	category    Category
	pattern     *regexp.Regexp
	placeholder string
}{
	{CategoryEmail, emailPattern, EmailPlaceholder},
	{CategoryPhone, phonePattern, PhonePlaceholder},
	{CategoryIP, ipPattern, IPPlaceholder},
}

// Matches reports which categories were found in the redacted text.
type Matches struct {
	Email bool `json:"email"`
	Phone bool `json:"phone"`
	IP    bool `json:"ip"`
}

// Any reports whether at least one category matched.
func (m Matches) Any() bool {
	return m.Email || m.Phone || m.IP
}

// Categories lists the matched categories in detection order.
func (m Matches) Categories() []Category {
	var out []Category
	if m.Email {
		out = append(out, CategoryEmail)
	}
	if m.Phone {
		out = append(out, CategoryPhone)
	}
	if m.IP {
		out = append(out, CategoryIP)
	}
	return out
}

// String joins the matched categories with commas, or returns "none".
func (m Matches) String() string {
	cats := m.Categories()
	if len(cats) == 0 {
		return "none"
	}
	parts := make([]string, len(cats))
	for i, c := range cats {
		parts[i] = string(c)
	}
	return strings.Join(parts, ",")
}

func (m *Matches) set(c Category) {
	switch c {
	case CategoryEmail:
		m.Email = true
	case CategoryPhone:
		m.Phone = true
	case CategoryIP:
		m.IP = true
	}
}

// Redact replaces every email address, phone number and IPv4 address in text
// with the placeholder for its category. It is a best-effort heuristic:
// obfuscated PII slips through and PII-shaped non-PII is masked.
func Redact(text string) (string, Matches) {
	var m Matches
	for _, r := range rules {
		if !r.pattern.MatchString(text) {
			continue
		}
		text = r.pattern.ReplaceAllLiteralString(text, r.placeholder)
		m.set(r.category)
	}
	return text, m
}
