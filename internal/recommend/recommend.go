// Package recommend suggests the skills a candidate is missing for their
// predicted field, along with courses from the catalog.
package recommend

import (
	"strings"
	"sync"

	"github.com/jonathan/resume-analyzer/internal/catalog"
	"github.com/jonathan/resume-analyzer/internal/skills"
	"github.com/jonathan/resume-analyzer/internal/types"
)

const (
	DefaultMaxSkills   = 10
	DefaultCourseCount = 5
	MinCourseCount     = 1
	MaxCourseCount     = 10
)

// Shuffler permutes n elements through swap. *math/rand/v2.Rand satisfies it.
type Shuffler interface {
	Shuffle(n int, swap func(i, j int))
}

// Options bounds the recommendation lists. A nil Shuffler keeps catalog order.
type Options struct {
	MaxSkills   int
	CourseCount int
	Shuffler    Shuffler
}

// DefaultOptions returns 10 skills, 5 courses and no shuffling.
func DefaultOptions() Options {
	return Options{MaxSkills: DefaultMaxSkills, CourseCount: DefaultCourseCount}
}

// ClampCourseCount forces n into [1, 10]; zero or negative selects the default.
func ClampCourseCount(n int) int {
	if n <= 0 {
		return DefaultCourseCount
	}
	return max(MinCourseCount, min(MaxCourseCount, n))
}

// Recommend returns the field's recommended skills that are not in
// currentSkills (ignoring case), in catalog order, and a possibly shuffled
// selection of the field's courses. An unknown field yields empty lists.
func Recommend(field string, currentSkills []string, cat *catalog.Catalog, opts Options) types.Recommendation {
	rec := types.Recommendation{Skills: []string{}, Courses: []types.Course{}}
	if cat == nil {
		return rec
	}
	entry, ok := cat.Entry(field)
	if !ok {
		return rec
	}

	maxSkills := opts.MaxSkills
	if maxSkills <= 0 {
		maxSkills = DefaultMaxSkills
	}
	have := skills.Set(currentSkills)
	for _, s := range entry.Skills {
		if len(rec.Skills) == maxSkills {
			break
		}
		if have[strings.ToLower(s)] {
			continue
		}
		rec.Skills = append(rec.Skills, s)
	}

	// Entry already returns a copy, so shuffling cannot touch the catalog.
	courses := entry.Courses
	if opts.Shuffler != nil && len(courses) > 1 {
		opts.Shuffler.Shuffle(len(courses), func(i, j int) {
			courses[i], courses[j] = courses[j], courses[i]
		})
	}
	n := min(ClampCourseCount(opts.CourseCount), len(courses))
	rec.Courses = append(rec.Courses, courses[:n]...)

	return rec
}

// LockedShuffler serializes access to a Shuffler that is not safe for
// concurrent use, such as *rand.Rand.
type LockedShuffler struct {
	mu    sync.Mutex
	inner Shuffler
}

// NewLockedShuffler wraps s.
func NewLockedShuffler(s Shuffler) *LockedShuffler {
	return &LockedShuffler{inner: s}
}

// Shuffle implements Shuffler.
func (l *LockedShuffler) Shuffle(n int, swap func(i, j int)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.inner.Shuffle(n, swap)
}
