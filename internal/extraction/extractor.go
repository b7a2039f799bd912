// Package extraction pulls contact identity (name, email, phone) out of
// free-form resume text with ordered heuristic rules.
package extraction

import "github.com/jonathan/resume-analyzer/internal/types"

// Extractor holds the configured rules. It is immutable and safe for concurrent use.
type Extractor struct {
	strictness Strictness
	phones     []PhoneMatcher
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithStrictness sets the name extraction mode.
func WithStrictness(s Strictness) Option {
	return func(e *Extractor) {
		e.strictness = s
	}
}

// WithPhoneMatchers replaces the phone pattern chain.
func WithPhoneMatchers(matchers []PhoneMatcher) Option {
	return func(e *Extractor) {
		e.phones = append([]PhoneMatcher(nil), matchers...)
	}
}

// New creates an Extractor using StrictNames and DefaultPhoneMatchers unless overridden.
func New(opts ...Option) *Extractor {
	e := &Extractor{
		strictness: StrictNames,
		phones:     DefaultPhoneMatchers(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Strictness returns the configured name mode.
func (e *Extractor) Strictness() Strictness {
	return e.strictness
}

// Extract returns the contact fields found in text. Missing fields carry
// their sentinel values.
func (e *Extractor) Extract(text string) types.ContactInfo {
	return types.ContactInfo{
		Name:  ExtractName(text, e.strictness),
		Email: ExtractEmail(text),
		Phone: ExtractPhone(text, e.phones),
	}
}
