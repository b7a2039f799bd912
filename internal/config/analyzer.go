package config

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/rs/zerolog"

	"github.com/jonathan/resume-analyzer/internal/analysis"
	"github.com/jonathan/resume-analyzer/internal/catalog"
	"github.com/jonathan/resume-analyzer/internal/extraction"
	"github.com/jonathan/resume-analyzer/internal/prediction"
	"github.com/jonathan/resume-analyzer/internal/recommend"
	"github.com/jonathan/resume-analyzer/internal/scoring"
)

// RecommendOptions returns the recommendation bounds, with a process-wide
// locked shuffler when course shuffling is enabled.
func (c *Config) RecommendOptions() recommend.Options {
	opts := recommend.Options{
		MaxSkills:   c.MaxSkills,
		CourseCount: recommend.ClampCourseCount(c.CourseCount),
	}
	if c.ShuffleCourses {
		seed := uint64(time.Now().UnixNano())
		opts.Shuffler = recommend.NewLockedShuffler(rand.New(rand.NewPCG(seed, seed>>1)))
	}
	return opts
}

// AnalyzerOptions translates the strategy names into analyzer options.
func (c *Config) AnalyzerOptions(logger zerolog.Logger) ([]analysis.Option, error) {
	strictness, err := extraction.ParseStrictness(c.NameStrictness)
	if err != nil {
		return nil, err
	}
	policy, err := prediction.ParsePolicy(c.PredictorPolicy)
	if err != nil {
		return nil, err
	}
	strategy, err := scoring.ParseStrategy(c.ScoreStrategy)
	if err != nil {
		return nil, err
	}
	rule, err := scoring.ParseLevelRule(c.LevelRule)
	if err != nil {
		return nil, err
	}

	return []analysis.Option{
		analysis.WithStrictness(strictness),
		analysis.WithPolicy(policy),
		analysis.WithStrategy(strategy),
		analysis.WithLevelRule(rule),
		analysis.WithRecommendOptions(c.RecommendOptions()),
		analysis.WithLogger(logger),
	}, nil
}

// CacheVariant identifies the settings and catalog contents that change a
// profile for the same text, so cached profiles are never shared across
// configurations or catalog edits.
func (c *Config) CacheVariant(cat *catalog.Catalog) string {
	return fmt.Sprintf("%s|%s|%s|%s|skills=%d|courses=%d|shuffle=%t|catalog=%s",
		c.NameStrictness, c.PredictorPolicy, c.ScoreStrategy, c.LevelRule,
		c.MaxSkills, recommend.ClampCourseCount(c.CourseCount), c.ShuffleCourses, cat.Fingerprint())
}
