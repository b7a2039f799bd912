// Package pipeline runs one resume through ingestion, the profile cache,
// analysis and persistence. The CLI, the HTTP server and the queue worker all
// go through Runner so they share the same behavior.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jonathan/resume-analyzer/internal/analysis"
	"github.com/jonathan/resume-analyzer/internal/cache"
	"github.com/jonathan/resume-analyzer/internal/db"
	"github.com/jonathan/resume-analyzer/internal/ingestion"
	"github.com/jonathan/resume-analyzer/internal/types"
)

// ErrTooLarge is returned for inputs above ingestion.MaxDocumentBytes.
var ErrTooLarge = errors.New("document too large")

// Step names reported through ProgressEvent.
const (
	StepIngest  = "ingest"
	StepCache   = "cache"
	StepAnalyze = "analyze"
	StepStore   = "store"
)

// ProgressEvent represents a progress update during a run
type ProgressEvent struct {
	Step    string `json:"step"`
	Message string `json:"message"`
	Source  string `json:"source,omitempty"`
	Content any    `json:"content,omitempty"`
}

// ProgressCallback is called when pipeline progress occurs
type ProgressCallback func(event ProgressEvent)

// Input is one document to run. Either Data (raw file bytes named by
// Filename) or Document (already extracted text) must be set.
type Input struct {
	Filename   string
	Data       []byte
	Document   *types.RawDocument
	OnProgress ProgressCallback

	// CourseCount overrides the number of recommended courses when positive.
	CourseCount int
}

// Result is the outcome of a run.
type Result struct {
	Profile  *types.ResumeProfile `json:"profile"`
	Metadata *ingestion.Metadata  `json:"metadata"`
	RecordID uuid.UUID            `json:"record_id,omitempty"`
	Cached   bool                 `json:"cached"`
}

// Runner wires the analyzer to its optional cache and store.
type Runner struct {
	analyzer *analysis.Analyzer
	cache    cache.ProfileCache
	variant  string
	store    db.Store
	logger   zerolog.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithCache enables profile caching. variant identifies the analyzer settings
// so results produced under different settings never collide.
func WithCache(c cache.ProfileCache, variant string) Option {
	return func(r *Runner) {
		r.cache = c
		r.variant = variant
	}
}

// WithStore enables persistence of every produced profile.
func WithStore(s db.Store) Option {
	return func(r *Runner) { r.store = s }
}

// WithLogger sets the logger for cache and storage warnings.
func WithLogger(l zerolog.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// NewRunner creates a Runner around a.
func NewRunner(a *analysis.Analyzer, opts ...Option) *Runner {
	r := &Runner{analyzer: a, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Analyzer returns the wrapped analyzer.
func (r *Runner) Analyzer() *analysis.Analyzer {
	return r.analyzer
}

// Store returns the configured store, or nil.
func (r *Runner) Store() db.Store {
	return r.store
}

// Run processes one input. Cache failures are logged and ignored. A storage
// failure returns the completed Result together with a *PersistError.
func (r *Runner) Run(ctx context.Context, in Input) (*Result, error) {
	doc, meta, err := r.ingest(in)
	if err != nil {
		return nil, err
	}
	emit(in, StepIngest, doc.Source, fmt.Sprintf("Extracted %d characters from %d page(s)", len(doc.Text), doc.PageCount), meta)

	res := &Result{Metadata: meta}
	log := r.logger.With().Str("source", doc.Source).Logger()

	var key string
	if r.cache != nil {
		key = cache.Key(doc, r.variant)
		p, ok, err := r.cache.Get(ctx, key)
		switch {
		case err != nil:
			log.Warn().Err(err).Msg("profile cache lookup failed")
		case ok:
			res.Profile = p
			res.Cached = true
			emit(in, StepCache, doc.Source, "Profile served from cache", nil)
		}
	}

	if res.Profile == nil {
		res.Profile = r.analyzer.Analyze(doc)
		emit(in, StepAnalyze, doc.Source,
			fmt.Sprintf("Predicted %s, score %d, level %s", res.Profile.PredictedField, res.Profile.Score, res.Profile.ExperienceLevel),
			res.Profile)

		if r.cache != nil {
			if err := r.cache.Set(ctx, key, res.Profile); err != nil {
				log.Warn().Err(err).Msg("profile cache write failed")
			}
		}
	}

	if in.CourseCount > 0 {
		p := *res.Profile
		rec := r.analyzer.Recommend(p.PredictedField, p.Skills, in.CourseCount)
		p.RecommendedSkills = rec.Skills
		p.RecommendedCourses = rec.Courses
		res.Profile = &p
	}

	if r.store != nil {
		id, err := r.store.SaveProfile(ctx, db.NewRecord(res.Profile, doc.Source, meta.Hash))
		if err != nil {
			return res, &PersistError{Source: doc.Source, Cause: err}
		}
		res.RecordID = id
		emit(in, StepStore, doc.Source, fmt.Sprintf("Saved profile %s", id), nil)
	}

	return res, nil
}

func (r *Runner) ingest(in Input) (types.RawDocument, *ingestion.Metadata, error) {
	if in.Document != nil {
		doc := *in.Document
		if doc.PageCount < 0 {
			return types.RawDocument{}, nil, fmt.Errorf("page count must be non-negative, got %d", doc.PageCount)
		}
		return doc, ingestion.NewMetadata(doc, ingestion.FormatText, len(doc.Text)), nil
	}

	if len(in.Data) > ingestion.MaxDocumentBytes {
		return types.RawDocument{}, nil, fmt.Errorf("%w: %q is %d bytes", ErrTooLarge, in.Filename, len(in.Data))
	}
	doc, format, err := ingestion.Extract(in.Filename, in.Data)
	if err != nil {
		return types.RawDocument{}, nil, fmt.Errorf("ingestion of %q failed: %w", in.Filename, err)
	}
	return doc, ingestion.NewMetadata(doc, format, len(in.Data)), nil
}

func emit(in Input, step, source, message string, content any) {
	if in.OnProgress != nil {
		in.OnProgress(ProgressEvent{Step: step, Message: message, Source: source, Content: content})
	}
}

// PersistError reports that a profile was produced but could not be saved.
type PersistError struct {
	Source string
	Cause  error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("failed to save profile for %q: %v", e.Source, e.Cause)
}

func (e *PersistError) Unwrap() error {
	return e.Cause
}

// IsPersistError reports whether err is or wraps a *PersistError.
func IsPersistError(err error) bool {
	var pe *PersistError
	return errors.As(err, &pe)
}
