// Package types provides type definitions for structured data used throughout the resume-analyzer system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import "strings"

// Sentinel values used when a field could not be determined.
const (
	// NotFound marks a name or email that the extractor could not locate.
	NotFound = "Not Found"
	// GeneralField is the predicted field when no catalog field matches.
	GeneralField = "General"
)

// ExperienceLevel classifies a candidate's seniority.
type ExperienceLevel string

const (
	LevelFresher      ExperienceLevel = "Fresher"
	LevelIntermediate ExperienceLevel = "Intermediate"
	LevelExperienced  ExperienceLevel = "Experienced"
)

// Valid reports whether the level is one of the three known labels.
func (l ExperienceLevel) Valid() bool {
	switch l {
	case LevelFresher, LevelIntermediate, LevelExperienced:
		return true
	default:
		return false
	}
}

// RawDocument is the plain-text form of an uploaded resume.
type RawDocument struct {
	Text      string `json:"text"`
	PageCount int    `json:"page_count" validate:"gte=0"`
	Source    string `json:"source,omitempty"` // file name or object key, informational only
}

// ContactInfo holds the identity fields pulled from resume text.
type ContactInfo struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// SectionCheck reports whether a resume section was found, with a tip when it was not.
type SectionCheck struct {
	Section string `json:"section"`
	Found   bool   `json:"found"`
	Tip     string `json:"tip,omitempty"`
}

// Recommendation is the complementary skill list and course list for a field.
type Recommendation struct {
	Skills  []string `json:"skills"`
	Courses []Course `json:"courses"`
}

// ResumeProfile is the result of analyzing one resume.
type ResumeProfile struct {
	Name               string          `json:"name"`
	Email              string          `json:"email"`
	Phone              string          `json:"phone"`
	Skills             []string        `json:"skills"`
	PageCount          int             `json:"page_count"`
	PredictedField     string          `json:"predicted_field"`
	ExperienceLevel    ExperienceLevel `json:"experience_level"`
	Score              int             `json:"score"`
	Sections           []SectionCheck  `json:"sections"`
	RecommendedSkills  []string        `json:"recommended_skills"`
	RecommendedCourses []Course        `json:"recommended_courses"`
}

// Contact returns the profile's identity fields.
func (p *ResumeProfile) Contact() ContactInfo {
	return ContactInfo{Name: p.Name, Email: p.Email, Phone: p.Phone}
}

// Present reports whether an extracted value carries information,
// i.e. it is neither empty nor a sentinel.
func Present(value string) bool {
	v := strings.TrimSpace(value)
	return v != "" && v != NotFound
}

// EmptyProfile returns the all-sentinel profile used for documents without text.
func EmptyProfile(pageCount int) *ResumeProfile {
	return &ResumeProfile{
		Name:               NotFound,
		Email:              NotFound,
		Phone:              "",
		Skills:             []string{},
		PageCount:          pageCount,
		PredictedField:     GeneralField,
		ExperienceLevel:    LevelFresher,
		Score:              0,
		Sections:           []SectionCheck{},
		RecommendedSkills:  []string{},
		RecommendedCourses: []Course{},
	}
}
