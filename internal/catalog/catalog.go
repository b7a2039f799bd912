// Package catalog provides the read-only recommendation catalog that maps
// career fields to identifying keywords, recommended skills and courses.
package catalog

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/resume-analyzer/internal/types"
)

var validate = validator.New()

// Catalog is an immutable, ordered set of field entries. Declaration order is
// significant: it breaks ties in field prediction. A Catalog is safe for
// concurrent use; accessors return copies.
type Catalog struct {
	entries  []types.FieldCatalogEntry
	index    map[string]int // lower-cased field name -> position
	keywords []string       // union of all keyword sets, first spelling wins
}

// New validates entries and builds a catalog from a private copy of them.
// Keywords, skills and course titles are trimmed; duplicate field names
// (case-insensitive) are rejected.
func New(entries []types.FieldCatalogEntry) (*Catalog, error) {
	if len(entries) == 0 {
		return nil, &ValidationError{Message: "catalog has no fields"}
	}

	c := &Catalog{
		entries: make([]types.FieldCatalogEntry, 0, len(entries)),
		index:   make(map[string]int, len(entries)),
	}
	seenKeywords := make(map[string]bool)

	for _, e := range entries {
		entry := cloneEntry(e)
		entry.Name = strings.TrimSpace(entry.Name)
		entry.Keywords = trimAll(entry.Keywords)
		entry.Skills = trimAll(entry.Skills)

		if err := validate.Struct(entry); err != nil {
			return nil, &ValidationError{Field: entry.Name, Message: "entry failed validation", Cause: err}
		}

		key := strings.ToLower(entry.Name)
		if _, dup := c.index[key]; dup {
			return nil, &ValidationError{Field: entry.Name, Message: "duplicate field name"}
		}
		c.index[key] = len(c.entries)
		c.entries = append(c.entries, entry)

		for _, kw := range entry.Keywords {
			lower := strings.ToLower(kw)
			if !seenKeywords[lower] {
				seenKeywords[lower] = true
				c.keywords = append(c.keywords, kw)
			}
		}
	}

	return c, nil
}

// MustNew is New for tables known to be valid at compile time.
func MustNew(entries []types.FieldCatalogEntry) *Catalog {
	c, err := New(entries)
	if err != nil {
		panic(fmt.Sprintf("catalog: %v", err))
	}
	return c
}

// Len returns the number of fields.
func (c *Catalog) Len() int {
	return len(c.entries)
}

// Fields returns the field names in declaration order.
func (c *Catalog) Fields() []string {
	names := make([]string, len(c.entries))
	for i, e := range c.entries {
		names[i] = e.Name
	}
	return names
}

// Entry returns a copy of the named field's entry. Lookup ignores case.
func (c *Catalog) Entry(name string) (types.FieldCatalogEntry, bool) {
	i, ok := c.index[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return types.FieldCatalogEntry{}, false
	}
	return cloneEntry(c.entries[i]), true
}

// Has reports whether name is a catalog field.
func (c *Catalog) Has(name string) bool {
	_, ok := c.index[strings.ToLower(strings.TrimSpace(name))]
	return ok
}

// Entries returns copies of all entries in declaration order.
func (c *Catalog) Entries() []types.FieldCatalogEntry {
	out := make([]types.FieldCatalogEntry, len(c.entries))
	for i, e := range c.entries {
		out[i] = cloneEntry(e)
	}
	return out
}

// Keywords returns the union of every field's keyword set, as spelled in the catalog.
func (c *Catalog) Keywords() []string {
	return append([]string(nil), c.keywords...)
}

func cloneEntry(e types.FieldCatalogEntry) types.FieldCatalogEntry {
	return types.FieldCatalogEntry{
		Name:     e.Name,
		Keywords: append([]string(nil), e.Keywords...),
		Skills:   append([]string(nil), e.Skills...),
		Courses:  append([]types.Course(nil), e.Courses...),
	}
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, strings.TrimSpace(v))
	}
	return out
}
