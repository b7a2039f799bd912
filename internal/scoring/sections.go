package scoring

import (
	"strings"

	"github.com/jonathan/resume-analyzer/internal/types"
)

var sections = []struct {
	name string
	tip  string
}{
	{name: "Objective", tip: "Include a career objective to state your intentions."},
	{name: "Declaration", tip: "Add a declaration to affirm the authenticity of your resume."},
	{name: "Projects", tip: "Showcase your practical experience by including projects."},
	{name: "Achievements", tip: "Highlight your accomplishments to stand out."},
	{name: "Hobbies", tip: "Mention hobbies to give a glimpse of your personality."},
}

// SectionNames returns the checked section names in order.
func SectionNames() []string {
	names := make([]string, len(sections))
	for i, s := range sections {
		names[i] = s.name
	}
	return names
}

// CheckSections reports, for each standard section, whether its name occurs
// in text (ignoring case). Missing sections carry an improvement tip.
func CheckSections(text string) []types.SectionCheck {
	lower := strings.ToLower(text)
	checks := make([]types.SectionCheck, 0, len(sections))
	for _, s := range sections {
		check := types.SectionCheck{
			Section: s.name,
			Found:   strings.Contains(lower, strings.ToLower(s.name)),
		}
		if !check.Found {
			check.Tip = s.tip
		}
		checks = append(checks, check)
	}
	return checks
}
