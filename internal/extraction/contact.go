package extraction

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/jonathan/resume-analyzer/internal/types"
)

var emailPattern = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)

// ExtractEmail returns the first email address in text, or types.NotFound.
func ExtractEmail(text string) string {
	if m := emailPattern.FindString(text); m != "" {
		return m
	}
	return types.NotFound
}

// PhoneMatcher is one named phone pattern.
type PhoneMatcher struct {
	Name    string
	Pattern *regexp.Regexp
}

// Match returns the digits of the first match in text.
func (m PhoneMatcher) Match(text string) (string, bool) {
	raw := m.Pattern.FindString(text)
	if raw == "" {
		return "", false
	}
	digits := digitsOnly(raw)
	return digits, digits != ""
}

// DefaultPhoneMatchers returns the phone patterns in the order they are tried:
// international prefix with grouped digits, a plain 9-10 digit run, then a
// generic separated 3-3-4 grouping.
func DefaultPhoneMatchers() []PhoneMatcher {
	return []PhoneMatcher{
		{Name: "international", Pattern: regexp.MustCompile(`\+\d{1,3}(?:[\s.-]?\(?\d{2,}\)?){2,5}`)},
		{Name: "plain", Pattern: regexp.MustCompile(`\b\d{9,10}\b`)},
		{Name: "separated", Pattern: regexp.MustCompile(`\(?\b\d{3}\)?[\s.-]?\d{3}[\s.-]\d{4}\b`)},
	}
}

// ExtractPhone tries matchers in order and returns the first match as digits,
// or "" when none matches.
func ExtractPhone(text string, matchers []PhoneMatcher) string {
	for _, m := range matchers {
		if digits, ok := m.Match(text); ok {
			return digits
		}
	}
	return ""
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
