// Package analysis composes extraction, skill detection, field prediction,
// scoring, level classification and recommendation into one profile per
// resume.
package analysis

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/resume-analyzer/internal/catalog"
	"github.com/jonathan/resume-analyzer/internal/extraction"
	"github.com/jonathan/resume-analyzer/internal/prediction"
	"github.com/jonathan/resume-analyzer/internal/recommend"
	"github.com/jonathan/resume-analyzer/internal/scoring"
	"github.com/jonathan/resume-analyzer/internal/skills"
	"github.com/jonathan/resume-analyzer/internal/types"
)

// DefaultConcurrency bounds AnalyzeBatch when the caller passes zero.
const DefaultConcurrency = 4

// Analyzer turns raw documents into profiles against one catalog. It holds no
// mutable state and is safe for concurrent use as long as the configured
// Shuffler is.
type Analyzer struct {
	catalog    *catalog.Catalog
	extractor  *extraction.Extractor
	strictness extraction.Strictness
	policy     prediction.Policy
	strategy   scoring.Strategy
	levelRule  scoring.LevelRule
	recOpts    recommend.Options
	logger     zerolog.Logger
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithStrictness sets the name extraction mode.
func WithStrictness(s extraction.Strictness) Option {
	return func(a *Analyzer) { a.strictness = s }
}

// WithPolicy sets the field prediction policy.
func WithPolicy(p prediction.Policy) Option {
	return func(a *Analyzer) { a.policy = p }
}

// WithStrategy sets the scoring strategy.
func WithStrategy(s scoring.Strategy) Option {
	return func(a *Analyzer) { a.strategy = s }
}

// WithLevelRule sets the experience level rule.
func WithLevelRule(r scoring.LevelRule) Option {
	return func(a *Analyzer) { a.levelRule = r }
}

// WithRecommendOptions sets the recommendation bounds and shuffler.
func WithRecommendOptions(o recommend.Options) Option {
	return func(a *Analyzer) { a.recOpts = o }
}

// WithLogger sets the logger used for per-document debug output.
func WithLogger(l zerolog.Logger) Option {
	return func(a *Analyzer) { a.logger = l }
}

// New creates an Analyzer. A nil catalog selects catalog.Default().
func New(cat *catalog.Catalog, opts ...Option) *Analyzer {
	if cat == nil {
		cat = catalog.Default()
	}
	a := &Analyzer{
		catalog:   cat,
		policy:    prediction.BestMatch,
		strategy:  scoring.AttributeCompleteness,
		levelRule: scoring.ScoreSkillsRule,
		recOpts:   recommend.DefaultOptions(),
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.extractor = extraction.New(extraction.WithStrictness(a.strictness))
	return a
}

// Catalog returns the catalog the analyzer reads from.
func (a *Analyzer) Catalog() *catalog.Catalog {
	return a.catalog
}

// Recommend computes recommendations with the analyzer's options. A positive
// courseCount overrides the configured course count, clamped to 1..10.
func (a *Analyzer) Recommend(field string, detected []string, courseCount int) types.Recommendation {
	opts := a.recOpts
	if courseCount > 0 {
		opts.CourseCount = recommend.ClampCourseCount(courseCount)
	}
	return recommend.Recommend(field, detected, a.catalog, opts)
}

// Analyze builds the profile for doc. Empty or whitespace-only text yields the
// sentinel profile with the document's page count.
func (a *Analyzer) Analyze(doc types.RawDocument) *types.ResumeProfile {
	log := a.logger.With().Str("source", doc.Source).Int("pages", doc.PageCount).Logger()

	if strings.TrimSpace(doc.Text) == "" {
		log.Debug().Msg("empty document, returning sentinel profile")
		p := types.EmptyProfile(doc.PageCount)
		p.Sections = scoring.CheckSections("")
		return p
	}

	contact := a.extractor.Extract(doc.Text)
	detected := skills.Detect(doc.Text, a.catalog)
	field := prediction.Predict(detected, a.catalog, a.policy)
	score := scoring.Score(scoring.Input{
		Contact:    contact,
		SkillCount: len(detected),
		Text:       doc.Text,
	}, a.strategy)

	p := &types.ResumeProfile{
		Name:           contact.Name,
		Email:          contact.Email,
		Phone:          contact.Phone,
		Skills:         detected,
		PageCount:      doc.PageCount,
		PredictedField: field,
		Score:          score,
		Sections:       scoring.CheckSections(doc.Text),
	}
	p.ExperienceLevel = scoring.ClassifyLevel(p, a.levelRule)

	rec := recommend.Recommend(field, detected, a.catalog, a.recOpts)
	p.RecommendedSkills = rec.Skills
	p.RecommendedCourses = rec.Courses

	log.Debug().
		Str("field", field).
		Int("skills", len(detected)).
		Int("score", score).
		Str("level", string(p.ExperienceLevel)).
		Msg("document analyzed")

	return p
}

// AnalyzeBatch analyzes docs with at most concurrency documents in flight and
// returns the profiles in input order. It stops early when ctx is cancelled.
func (a *Analyzer) AnalyzeBatch(ctx context.Context, docs []types.RawDocument, concurrency int) ([]*types.ResumeProfile, error) {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	results := make([]*types.ResumeProfile, len(docs))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, doc := range docs {
		if err := gCtx.Err(); err != nil {
			break
		}
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return fmt.Errorf("analysis of %q cancelled: %w", doc.Source, err)
			}
			results[i] = a.Analyze(doc)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}
