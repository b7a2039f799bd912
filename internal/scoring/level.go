package scoring

import (
	"fmt"
	"strings"

	"github.com/jonathan/resume-analyzer/internal/types"
)

// LevelRule selects how the experience level is derived.
type LevelRule int

const (
	// ScoreSkillsRule uses the score and the number of detected skills.
	ScoreSkillsRule LevelRule = iota
	// PageCountRule uses the document length.
	PageCountRule
)

func (r LevelRule) String() string {
	if r == PageCountRule {
		return "page_count"
	}
	return "score_skills"
}

// ParseLevelRule maps "score_skills" or "page_count" to a LevelRule. Empty
// means ScoreSkillsRule.
func ParseLevelRule(s string) (LevelRule, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "score_skills":
		return ScoreSkillsRule, nil
	case "page_count", "pages":
		return PageCountRule, nil
	default:
		return ScoreSkillsRule, fmt.Errorf("unknown level rule: %q", s)
	}
}

// ClassifyLevel derives the experience level from the profile's score, skill
// count and page count. It never returns anything but the three known labels.
func ClassifyLevel(p *types.ResumeProfile, rule LevelRule) types.ExperienceLevel {
	if p == nil {
		return types.LevelFresher
	}

	if rule == PageCountRule {
		switch {
		case p.PageCount >= 3:
			return types.LevelExperienced
		case p.PageCount == 2:
			return types.LevelIntermediate
		default:
			return types.LevelFresher
		}
	}

	n := len(p.Skills)
	switch {
	case p.Score >= 80 && n >= 8:
		return types.LevelExperienced
	case p.Score >= 60 && n >= 5:
		return types.LevelIntermediate
	default:
		return types.LevelFresher
	}
}
