package ingestion

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jonathan/resume-analyzer/internal/types"
)

// Metadata describes an ingested resume document.
type Metadata struct {
	Source    string `json:"source,omitempty"`
	Format    Format `json:"format"`
	PageCount int    `json:"page_count"`
	Bytes     int    `json:"bytes"`
	Hash      string `json:"hash"`      // SHA256 hex digest of the extracted text
	Timestamp string `json:"timestamp"` // RFC3339 format
}

// NewMetadata describes doc, extracted from size bytes of the given format.
func NewMetadata(doc types.RawDocument, format Format, size int) *Metadata {
	return &Metadata{
		Source:    doc.Source,
		Format:    format,
		PageCount: doc.PageCount,
		Bytes:     size,
		Hash:      ContentHash(doc.Text),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// ContentHash returns the SHA256 hex digest of text.
func ContentHash(text string) string {
	hash := sha256.Sum256([]byte(text))
	return hex.EncodeToString(hash[:])
}

// ToJSON marshals Metadata to pretty-printed JSON
func (m *Metadata) ToJSON() ([]byte, error) {
	jsonBytes, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal metadata to JSON: %w", err)
	}
	return jsonBytes, nil
}
