package extraction

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/jonathan/resume-analyzer/internal/types"
)

// Strictness controls how permissive name extraction is.
type Strictness int

const (
	// StrictNames scans the first few non-empty lines for a name-shaped line
	// and returns types.NotFound when none qualifies.
	StrictNames Strictness = iota
	// LooseNames only looks at the first non-empty line and returns it as is
	// when it does not look like a name.
	LooseNames
)

const strictNameLines = 5

var nameBlocklist = []string{"@", "http", ":", "www"}

func (s Strictness) String() string {
	switch s {
	case LooseNames:
		return "loose"
	default:
		return "strict"
	}
}

// ParseStrictness maps "strict" or "loose" to a Strictness. Empty means strict.
func ParseStrictness(s string) (Strictness, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "strict":
		return StrictNames, nil
	case "loose":
		return LooseNames, nil
	default:
		return StrictNames, &OptionError{Option: "name strictness", Value: s}
	}
}

// ExtractName returns the candidate's name from the top of the text.
func ExtractName(text string, strictness Strictness) string {
	limit := strictNameLines
	if strictness == LooseNames {
		limit = 1
	}

	lines := nonEmptyLines(text, limit)
	if len(lines) == 0 {
		return types.NotFound
	}

	for _, line := range lines {
		if looksLikeName(line) {
			return normalizeNameCase(line)
		}
	}

	if strictness == LooseNames {
		return lines[0]
	}
	return types.NotFound
}

// looksLikeName reports whether line has 2 to 4 words and none of the markers
// of contact details or headings.
func looksLikeName(line string) bool {
	words := strings.Fields(line)
	if len(words) < 2 || len(words) > 4 {
		return false
	}
	if strings.IndexFunc(line, unicode.IsDigit) >= 0 {
		return false
	}
	lower := strings.ToLower(line)
	for _, marker := range nameBlocklist {
		if strings.Contains(lower, marker) {
			return false
		}
	}
	return true
}

// normalizeNameCase title-cases names written entirely in one case and keeps
// mixed-case names as written.
func normalizeNameCase(line string) string {
	name := strings.Join(strings.Fields(line), " ")
	if name != strings.ToLower(name) && name != strings.ToUpper(name) {
		return name
	}
	return cases.Title(language.English).String(name)
}

func nonEmptyLines(text string, limit int) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		out = append(out, line)
		if len(out) == limit {
			break
		}
	}
	return out
}
