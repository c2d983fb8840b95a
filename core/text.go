package core

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	strayCharRegex = regexp.MustCompile(`[^\w\s.,!?-]`)
	accentRegex    = regexp.MustCompile("[̀-ͯ]")
	rutSepRegex    = regexp.MustCompile(`[.\-]`)
	rutRegex       = regexp.MustCompile(`^\d{1,8}[0-9K]$`)
)

// Normalize lowers and trims s and strips accents, yielding a key suitable
// for case- and accent-insensitive comparison.
func Normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = norm.NFD.String(s)
	s = strayCharRegex.ReplaceAllString(s, "")
	return accentRegex.ReplaceAllString(s, "")
}

// ParseIDList extracts identifiers from free text; commas and spaces act as
// separators like newlines. Order is preserved and duplicates are kept.
func ParseIDList(text string) []string {
	text = strings.ReplaceAll(text, ",", "\n")
	text = strings.ReplaceAll(text, " ", "\n")
	var ids []string
	for _, part := range strings.Split(text, "\n") {
		if part = strings.TrimSpace(part); part != "" {
			ids = append(ids, part)
		}
	}
	return ids
}

// FormatRUT formats a Chilean RUT: 193745040 -> 19.374.504-0.
// Input that does not match the body+check-digit pattern is returned as is.
func FormatRUT(raw string) string {
	clean := strings.ToUpper(rutSepRegex.ReplaceAllString(raw, ""))
	if !rutRegex.MatchString(clean) {
		return raw
	}
	body, dv := clean[:len(clean)-1], clean[len(clean)-1:]

	groups := make([]string, 0, 3)
	for end := len(body); end > 0; end -= 3 {
		start := end - 3
		if start < 0 {
			start = 0
		}
		groups = append([]string{body[start:end]}, groups...)
	}
	return strings.Join(groups, ".") + "-" + dv
}
