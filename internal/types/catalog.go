// Package types provides type definitions for structured data used throughout the resume-analyzer system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Course is a recommended course or certificate.
type Course struct {
	Title string `json:"title" yaml:"title" validate:"required"`
	URL   string `json:"url" yaml:"url" validate:"required,url"`
}

// UnmarshalJSON accepts both the object form and the legacy [title, url] pair.
func (c *Course) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		var pair []string
		if err := json.Unmarshal(data, &pair); err != nil {
			return fmt.Errorf("failed to parse course pair: %w", err)
		}
		return c.fromPair(pair)
	}

	type plain Course
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("failed to parse course: %w", err)
	}
	*c = Course(p)
	return nil
}

// UnmarshalYAML accepts both the mapping form and the legacy [title, url] sequence.
func (c *Course) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.SequenceNode {
		var pair []string
		if err := node.Decode(&pair); err != nil {
			return fmt.Errorf("failed to parse course pair: %w", err)
		}
		return c.fromPair(pair)
	}

	type plain Course
	var p plain
	if err := node.Decode(&p); err != nil {
		return fmt.Errorf("failed to parse course: %w", err)
	}
	*c = Course(p)
	return nil
}

func (c *Course) fromPair(pair []string) error {
	if len(pair) != 2 {
		return fmt.Errorf("course pair must have exactly 2 elements, got %d", len(pair))
	}
	c.Title = pair[0]
	c.URL = pair[1]
	return nil
}

// FieldCatalogEntry describes one career field: the keywords that identify it,
// the skills to recommend and the courses to suggest.
type FieldCatalogEntry struct {
	Name     string   `json:"name" yaml:"name" validate:"required"`
	Keywords []string `json:"keywords,omitempty" yaml:"keywords" validate:"required,min=1,dive,required"`
	Skills   []string `json:"skills,omitempty" yaml:"skills,omitempty" validate:"dive,required"`
	Courses  []Course `json:"courses,omitempty" yaml:"courses,omitempty" validate:"dive"`
}
