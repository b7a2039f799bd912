// Package prediction maps a detected skill set to the catalog field it best fits.
package prediction

import (
	"fmt"
	"strings"

	"github.com/jonathan/resume-analyzer/internal/catalog"
	"github.com/jonathan/resume-analyzer/internal/skills"
	"github.com/jonathan/resume-analyzer/internal/types"
)

// Policy selects how a field is chosen from the overlap counts.
type Policy int

const (
	// BestMatch picks the field whose keywords overlap the skills most.
	// Ties go to the field declared first.
	BestMatch Policy = iota
	// FirstMatch picks the first field in declaration order with any overlap.
	FirstMatch
)

func (p Policy) String() string {
	if p == FirstMatch {
		return "first_match"
	}
	return "best_match"
}

// ParsePolicy maps "best_match" or "first_match" to a Policy. Empty means BestMatch.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "best_match", "best":
		return BestMatch, nil
	case "first_match", "first":
		return FirstMatch, nil
	default:
		return BestMatch, fmt.Errorf("unknown predictor policy: %q", s)
	}
}

// FieldScore is the overlap between the skills and one field's keywords.
type FieldScore struct {
	Field   string
	Matches int
}

// Scores returns the overlap count for every field in declaration order.
// Comparison ignores case.
func Scores(detected []string, cat *catalog.Catalog) []FieldScore {
	have := skills.Set(detected)
	entries := cat.Entries()
	out := make([]FieldScore, 0, len(entries))
	for _, e := range entries {
		n := 0
		for _, kw := range e.Keywords {
			if have[strings.ToLower(kw)] {
				n++
			}
		}
		out = append(out, FieldScore{Field: e.Name, Matches: n})
	}
	return out
}

// Predict returns the field name for the detected skills, or types.GeneralField
// when no field's keywords overlap them.
func Predict(detected []string, cat *catalog.Catalog, policy Policy) string {
	if len(detected) == 0 || cat == nil {
		return types.GeneralField
	}

	best := FieldScore{Field: types.GeneralField}
	for _, fs := range Scores(detected, cat) {
		if fs.Matches == 0 {
			continue
		}
		if policy == FirstMatch {
			return fs.Field
		}
		if fs.Matches > best.Matches {
			best = fs
		}
	}
	return best.Field
}
