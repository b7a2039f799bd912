package catalog

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/jonathan/resume-analyzer/internal/schemas"
	"github.com/jonathan/resume-analyzer/internal/types"
)

// document is the canonical on-disk form of a catalog.
type document struct {
	Fields []types.FieldCatalogEntry `json:"fields" yaml:"fields"`
}

// legacyEntry is one value of the older mapping form:
// {"<field>": {"skills": [...], "courses": [[title, url], ...]}}.
type legacyEntry struct {
	Keywords []string       `yaml:"keywords"`
	Skills   []string       `yaml:"skills"`
	Courses  []types.Course `yaml:"courses"`
}

// Load reads the catalog at path. Any failure (missing file, malformed
// content, schema or validation errors) is logged and the built-in catalog is
// returned instead, so callers always get a usable catalog.
func Load(path string, logger zerolog.Logger) *Catalog {
	if path == "" {
		logger.Debug().Msg("no catalog path configured, using built-in catalog")
		return Default()
	}

	c, err := LoadStrict(path)
	if err != nil {
		logger.Warn().Err(err).Str("path", path).Msg("catalog unavailable, falling back to built-in catalog")
		return Default()
	}

	logger.Info().Str("path", path).Int("fields", c.Len()).Msg("catalog loaded")
	return c
}

// LoadStrict reads and validates the catalog at path, returning the error
// instead of falling back.
func LoadStrict(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Message: "failed to read file", Cause: err}
	}

	c, err := Parse(data)
	if err != nil {
		var loadErr *LoadError
		if errors.As(err, &loadErr) && loadErr.Path == "" {
			loadErr.Path = path
		}
		return nil, err
	}
	return c, nil
}

// Parse decodes a catalog document in YAML or JSON, canonical or legacy form.
// Field declaration order is preserved in both forms.
func Parse(data []byte) (*Catalog, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, &LoadError{Message: "malformed catalog document", Cause: err}
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return nil, &LoadError{Message: "empty catalog document"}
	}

	top := root.Content[0]
	if top.Kind != yaml.MappingNode {
		return nil, &LoadError{Message: "catalog document must be a mapping"}
	}

	var doc document
	if isCanonical(top) {
		if err := top.Decode(&doc); err != nil {
			return nil, &LoadError{Message: "failed to decode fields", Cause: err}
		}
	} else {
		fields, err := decodeLegacy(top)
		if err != nil {
			return nil, err
		}
		doc.Fields = fields
	}

	if err := schemas.ValidateDocument(schemas.CatalogSchema, doc); err != nil {
		return nil, &ValidationError{Message: "document does not match catalog schema", Cause: err}
	}

	return New(doc.Fields)
}

// isCanonical reports whether the top-level mapping has a "fields" sequence.
func isCanonical(top *yaml.Node) bool {
	for i := 0; i+1 < len(top.Content); i += 2 {
		if top.Content[i].Value == "fields" && top.Content[i+1].Kind == yaml.SequenceNode {
			return true
		}
	}
	return false
}

func decodeLegacy(top *yaml.Node) ([]types.FieldCatalogEntry, error) {
	fields := make([]types.FieldCatalogEntry, 0, len(top.Content)/2)
	for i := 0; i+1 < len(top.Content); i += 2 {
		name := top.Content[i].Value

		var le legacyEntry
		if err := top.Content[i+1].Decode(&le); err != nil {
			return nil, &LoadError{Message: fmt.Sprintf("failed to decode field %q", name), Cause: err}
		}

		keywords := le.Keywords
		if len(keywords) == 0 {
			keywords = defaultKeywordsFor(name)
		}
		if len(keywords) == 0 {
			for _, s := range le.Skills {
				keywords = append(keywords, strings.ToLower(s))
			}
		}

		fields = append(fields, types.FieldCatalogEntry{
			Name:     name,
			Keywords: keywords,
			Skills:   le.Skills,
			Courses:  le.Courses,
		})
	}
	return fields, nil
}

// Marshal encodes the catalog in canonical form. format is "json" or "yaml".
func Marshal(c *Catalog, format string) ([]byte, error) {
	doc := document{Fields: c.Entries()}
	switch strings.ToLower(format) {
	case "json":
		return json.MarshalIndent(doc, "", "  ")
	case "yaml", "yml":
		return yaml.Marshal(doc)
	default:
		return nil, fmt.Errorf("unsupported catalog format: %s", format)
	}
}

// Fingerprint returns a sha256 hex digest of the catalog's canonical JSON
// form. Catalogs with the same entries in the same order share a fingerprint.
func (c *Catalog) Fingerprint() string {
	if c == nil {
		c = Default()
	}
	data, err := Marshal(c, "json")
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// FormatForPath picks the export format from a file extension, defaulting to YAML.
func FormatForPath(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return "json"
	}
	return "yaml"
}
