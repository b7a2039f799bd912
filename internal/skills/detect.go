package skills

import (
	"sort"
	"strings"

	"github.com/jonathan/resume-analyzer/internal/catalog"
)

// Detect returns the catalog keywords that occur in text, in canonical form,
// sorted and without duplicates.
//
// Matching is plain substring containment on the lower-cased text, so short
// keywords such as "ui" also match inside longer words like "build".
func Detect(text string, cat *catalog.Catalog) []string {
	found := []string{}
	if strings.TrimSpace(text) == "" || cat == nil {
		return found
	}

	lower := strings.ToLower(text)
	seen := make(map[string]bool)
	for _, kw := range cat.Keywords() {
		needle := strings.ToLower(kw)
		if needle == "" || !strings.Contains(lower, needle) {
			continue
		}
		display := Canonical(kw)
		key := strings.ToLower(display)
		if seen[key] {
			continue
		}
		seen[key] = true
		found = append(found, display)
	}

	sort.Strings(found)
	return found
}

// Set returns the lower-cased skills as a lookup set.
func Set(skills []string) map[string]bool {
	set := make(map[string]bool, len(skills))
	for _, s := range skills {
		set[strings.ToLower(strings.TrimSpace(s))] = true
	}
	return set
}
