// Package scoring computes the resume quality score, the section checklist and
// the experience level.
package scoring

import (
	"fmt"
	"strings"

	"github.com/jonathan/resume-analyzer/internal/types"
)

// Strategy selects the scoring rule set.
type Strategy int

const (
	// AttributeCompleteness rewards present contact fields and detected skills.
	AttributeCompleteness Strategy = iota
	// SectionPresence rewards the standard resume sections found in the text.
	SectionPresence
)

const (
	maxScore           = 100
	contactFieldPoints = 10
	sectionPoints      = 20
	skillPointsEach    = 2
	skillPointsCap     = 30
)

// skillTiers are checked in order; the first satisfied tier gives its bonus.
var skillTiers = []struct {
	minSkills int
	bonus     int
}{
	{minSkills: 10, bonus: 40},
	{minSkills: 7, bonus: 30},
	{minSkills: 5, bonus: 20},
	{minSkills: 3, bonus: 10},
}

func (s Strategy) String() string {
	if s == SectionPresence {
		return "section_presence"
	}
	return "attribute_completeness"
}

// ParseStrategy maps "attribute_completeness" or "section_presence" to a
// Strategy. Empty means AttributeCompleteness.
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "attribute_completeness", "attributes":
		return AttributeCompleteness, nil
	case "section_presence", "sections":
		return SectionPresence, nil
	default:
		return AttributeCompleteness, fmt.Errorf("unknown score strategy: %q", s)
	}
}

// Input carries the signals a score is computed from.
type Input struct {
	Contact    types.ContactInfo
	SkillCount int
	Text       string
}

// Score returns the resume score in [0, 100].
func Score(in Input, strategy Strategy) int {
	var score int
	switch strategy {
	case SectionPresence:
		for _, check := range CheckSections(in.Text) {
			if check.Found {
				score += sectionPoints
			}
		}
	default:
		score = attributeScore(in)
	}
	return clamp(score)
}

func attributeScore(in Input) int {
	score := 0
	for _, v := range []string{in.Contact.Name, in.Contact.Email, in.Contact.Phone} {
		if types.Present(v) {
			score += contactFieldPoints
		}
	}

	for _, tier := range skillTiers {
		if in.SkillCount >= tier.minSkills {
			score += tier.bonus
			break
		}
	}

	if in.SkillCount > 0 {
		score += min(skillPointsCap, in.SkillCount*skillPointsEach)
	}
	return score
}

func clamp(score int) int {
	return max(0, min(maxScore, score))
}
