// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/jonathan/resume-analyzer/internal/db"
	"github.com/jonathan/resume-analyzer/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// truncate shortens s to at most n runes, ending in "..." when cut.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// writeList appends up to limit items as bullets, with a remainder line.
func writeList(sb *strings.Builder, items []string, limit int) {
	count := min(len(items), limit)
	for i := 0; i < count; i++ {
		sb.WriteString(fmt.Sprintf("  • %s\n", items[i]))
	}
	if len(items) > limit {
		sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(items)-limit))
	}
}

// PrintProfile outputs a human-readable summary of an analyzed resume.
func (p *Printer) PrintProfile(source string, profile *types.ResumeProfile) {
	if profile == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Name:     %s\n", profile.Name))
	sb.WriteString(fmt.Sprintf("Email:    %s\n", profile.Email))
	if profile.Phone != "" {
		sb.WriteString(fmt.Sprintf("Phone:    %s\n", profile.Phone))
	}
	sb.WriteString(fmt.Sprintf("Pages:    %d\n", profile.PageCount))
	sb.WriteString(fmt.Sprintf("Field:    %s\n", profile.PredictedField))
	sb.WriteString(fmt.Sprintf("Level:    %s\n", profile.ExperienceLevel))
	sb.WriteString(fmt.Sprintf("Score:    %d/100\n", profile.Score))
	sb.WriteString("\n")

	if len(profile.Skills) > 0 {
		sb.WriteString(fmt.Sprintf("Skills (%d):\n", len(profile.Skills)))
		writeList(&sb, profile.Skills, maxItemsToShow)
	} else {
		sb.WriteString("Skills: none detected\n")
	}

	title := "RESUME PROFILE"
	if source != "" {
		title += ": " + source
	}
	p.printBox(title, strings.TrimSuffix(sb.String(), "\n"))
}

// PrintSections outputs which resume sections were found, with tips for the
// missing ones.
func (p *Printer) PrintSections(sections []types.SectionCheck) {
	if len(sections) == 0 {
		return
	}

	var sb strings.Builder
	found := 0
	for _, s := range sections {
		if s.Found {
			found++
			sb.WriteString(fmt.Sprintf("✓ %s\n", s.Section))
			continue
		}
		sb.WriteString(fmt.Sprintf("✗ %s\n", s.Section))
		if s.Tip != "" {
			sb.WriteString(fmt.Sprintf("  %s\n", s.Tip))
		}
	}
	sb.WriteString(fmt.Sprintf("\n%d of %d sections present", found, len(sections)))

	p.printBox("RESUME SECTIONS", sb.String())
}

// PrintRecommendations outputs the recommended skills and courses.
func (p *Printer) PrintRecommendations(profile *types.ResumeProfile) {
	if profile == nil || (len(profile.RecommendedSkills) == 0 && len(profile.RecommendedCourses) == 0) {
		return
	}

	var sb strings.Builder
	if len(profile.RecommendedSkills) > 0 {
		sb.WriteString("Skills to add:\n")
		writeList(&sb, profile.RecommendedSkills, maxItemsToShow)
		sb.WriteString("\n")
	}

	if len(profile.RecommendedCourses) > 0 {
		sb.WriteString("Courses:\n")
		for i, c := range profile.RecommendedCourses {
			sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, c.Title))
			sb.WriteString(fmt.Sprintf("     %s\n", c.URL))
		}
	}

	p.printBox("RECOMMENDATIONS", strings.TrimSuffix(sb.String(), "\n"))
}

// BatchFailure names a document that could not be analyzed.
type BatchFailure struct {
	Source string
	Err    error
}

// PrintBatchSummary outputs counts for a directory run, grouped by field.
func (p *Printer) PrintBatchSummary(profiles []*types.ResumeProfile, failures []BatchFailure) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Analyzed: %d\n", len(profiles)))
	sb.WriteString(fmt.Sprintf("Failed:   %d\n", len(failures)))

	if len(profiles) > 0 {
		byField := map[string]int{}
		total := 0
		for _, prof := range profiles {
			byField[prof.PredictedField]++
			total += prof.Score
		}
		sb.WriteString(fmt.Sprintf("Average score: %.1f\n\n", float64(total)/float64(len(profiles))))
		sb.WriteString("By field:\n")
		sb.WriteString(formatCounts(byField))
	}

	if len(failures) > 0 {
		sb.WriteString("\nFailures:\n")
		count := min(len(failures), maxItemsToShow)
		for i := 0; i < count; i++ {
			sb.WriteString(fmt.Sprintf("  ⚠ %s: %v\n", failures[i].Source, failures[i].Err))
		}
		if len(failures) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(failures)-maxItemsToShow))
		}
	}

	p.printBox("BATCH SUMMARY", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintStats outputs aggregate counts over stored profiles.
func (p *Printer) PrintStats(stats *db.Stats) {
	if stats == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Stored profiles: %d\n", stats.Total))
	sb.WriteString(fmt.Sprintf("Average score:   %.1f\n", stats.AverageScore))
	if len(stats.ByField) > 0 {
		sb.WriteString("\nBy field:\n")
		sb.WriteString(formatCounts(stats.ByField))
	}
	if len(stats.ByLevel) > 0 {
		sb.WriteString("\nBy level:\n")
		sb.WriteString(formatCounts(stats.ByLevel))
	}

	p.printBox("PROFILE HISTORY", strings.TrimSuffix(sb.String(), "\n"))
}

// formatCounts lists counts in descending order, ties broken by name.
func formatCounts(counts map[string]int) string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})

	var sb strings.Builder
	for _, k := range keys {
		sb.WriteString(fmt.Sprintf("  %-24s %d\n", k, counts[k]))
	}
	return sb.String()
}
