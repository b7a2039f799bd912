package ingestion

import (
	"regexp"
	"strings"
)

var (
	inlineSpace  = regexp.MustCompile(`[ \t\x{00A0}]+`)
	excessBlanks = regexp.MustCompile(`\n{3,}`)
)

// bulletGlyphs are list markers produced by PDF and Word exports.
var bulletGlyphs = []string{"•", "·", "▪", "●", "◦"}

// CleanText normalizes extracted resume text while keeping its line structure,
// which name extraction depends on.
func CleanText(content string) string {
	if content == "" {
		return ""
	}

	// 1. Normalize line endings and page breaks
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")
	content = strings.ReplaceAll(content, "\f", "\n")
	content = strings.ReplaceAll(content, "\x00", "")

	// 2. Clean each line
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = cleanLine(line)
	}

	// 3. Collapse runs of blank lines
	result := excessBlanks.ReplaceAllString(strings.Join(lines, "\n"), "\n\n")

	return strings.TrimSpace(result)
}

func cleanLine(line string) string {
	line = strings.TrimSpace(inlineSpace.ReplaceAllString(line, " "))
	if line == "" {
		return ""
	}
	for _, glyph := range bulletGlyphs {
		if rest, ok := strings.CutPrefix(line, glyph); ok {
			return "- " + strings.TrimSpace(rest)
		}
	}
	return line
}

// estimatePages approximates the page count of a document without layout
// information from its non-empty line count.
func estimatePages(text string) int {
	n := 0
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) != "" {
			n++
		}
	}
	return max(1, (n+linesPerPage-1)/linesPerPage)
}
