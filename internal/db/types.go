package db

import (
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/resume-analyzer/internal/types"
)

// ProfileRecord is a stored analysis result
type ProfileRecord struct {
	ID                 uuid.UUID      `json:"id"`
	Name               string         `json:"name"`
	Email              string         `json:"email"`
	Phone              string         `json:"phone"`
	Score              int            `json:"score"`
	PageCount          int            `json:"page_count"`
	PredictedField     string         `json:"predicted_field"`
	ExperienceLevel    string         `json:"experience_level"`
	Skills             []string       `json:"skills"`
	RecommendedSkills  []string       `json:"recommended_skills"`
	RecommendedCourses []types.Course `json:"recommended_courses"`
	ContentHash        string         `json:"content_hash,omitempty"`
	Source             string         `json:"source,omitempty"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
}

// ListOptions filters and pages ListProfiles
type ListOptions struct {
	Field  string
	Level  string
	Limit  int
	Offset int
}

// DefaultListLimit applies when ListOptions.Limit is zero
const DefaultListLimit = 50

// MaxListLimit caps ListOptions.Limit
const MaxListLimit = 500

// Stats summarizes stored profiles
type Stats struct {
	Total        int            `json:"total"`
	AverageScore float64        `json:"average_score"`
	ByField      map[string]int `json:"by_field"`
	ByLevel      map[string]int `json:"by_level"`
}

// NewRecord builds a record from an analyzed profile. ID and timestamps are
// assigned by the store.
func NewRecord(p *types.ResumeProfile, source, contentHash string) *ProfileRecord {
	return &ProfileRecord{
		Name:               p.Name,
		Email:              p.Email,
		Phone:              p.Phone,
		Score:              p.Score,
		PageCount:          p.PageCount,
		PredictedField:     p.PredictedField,
		ExperienceLevel:    string(p.ExperienceLevel),
		Skills:             nonNil(p.Skills),
		RecommendedSkills:  nonNil(p.RecommendedSkills),
		RecommendedCourses: append([]types.Course{}, p.RecommendedCourses...),
		ContentHash:        contentHash,
		Source:             source,
	}
}

// Profile rebuilds the analysis result held by the record. Section checks
// are not stored.
func (r *ProfileRecord) Profile() *types.ResumeProfile {
	return &types.ResumeProfile{
		Name:               r.Name,
		Email:              r.Email,
		Phone:              r.Phone,
		Skills:             nonNil(r.Skills),
		PageCount:          r.PageCount,
		PredictedField:     r.PredictedField,
		ExperienceLevel:    types.ExperienceLevel(r.ExperienceLevel),
		Score:              r.Score,
		Sections:           []types.SectionCheck{},
		RecommendedSkills:  nonNil(r.RecommendedSkills),
		RecommendedCourses: append([]types.Course{}, r.RecommendedCourses...),
	}
}

func (o ListOptions) normalized() ListOptions {
	if o.Limit <= 0 {
		o.Limit = DefaultListLimit
	}
	if o.Limit > MaxListLimit {
		o.Limit = MaxListLimit
	}
	if o.Offset < 0 {
		o.Offset = 0
	}
	return o
}

func newStats() *Stats {
	return &Stats{ByField: map[string]int{}, ByLevel: map[string]int{}}
}

func nonNil(s []string) []string {
	return append([]string{}, s...)
}
