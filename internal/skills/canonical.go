// Package skills detects catalog skill keywords in resume text and renders
// them in a canonical display form.
package skills

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// displayOverrides maps lower-case keywords to forms that title casing gets wrong
var displayOverrides = map[string]string{
	"ui":  "UI",
	"ux":  "UX",
	"ios": "IOS",
	"php": "PHP",
	"xml": "XML",
	"c#":  "C#",
	"css": "CSS",
}

// Canonical returns the display form of a catalog keyword. Keywords written
// with capitals in the catalog keep their casing.
func Canonical(keyword string) string {
	kw := strings.TrimSpace(keyword)
	if kw == "" {
		return ""
	}

	lower := strings.ToLower(kw)
	if kw != lower {
		return kw
	}
	if display, ok := displayOverrides[lower]; ok {
		return display
	}
	return cases.Title(language.English).String(kw)
}
