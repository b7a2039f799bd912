// Package ingestion turns uploaded resume files (PDF, DOCX, plain text) into
// the plain text and page count the analyzer consumes.
package ingestion

import (
	"bytes"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"

	"github.com/jonathan/resume-analyzer/internal/types"
)

// Format identifies a supported document type.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
	FormatText Format = "txt"
)

// linesPerPage is the line budget used to estimate pages for formats
// without layout information.
const linesPerPage = 50

// MaxDocumentBytes caps uploads accepted by the server and worker.
const MaxDocumentBytes = 10 << 20

var (
	docxParagraphEnd = regexp.MustCompile(`</w:p>|<w:br/>|<w:tab/>`)
	xmlTag           = regexp.MustCompile(`<[^>]+>`)
)

// DetectFormat picks the format from the file extension, falling back to the
// content's magic bytes.
func DetectFormat(filename string, data []byte) (Format, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return FormatPDF, nil
	case ".docx":
		return FormatDOCX, nil
	case ".txt", ".text", ".md":
		return FormatText, nil
	}

	switch {
	case bytes.HasPrefix(data, []byte("%PDF")):
		return FormatPDF, nil
	case bytes.HasPrefix(data, []byte("PK\x03\x04")):
		return FormatDOCX, nil
	case len(data) > 0 && utf8.Valid(data):
		return FormatText, nil
	}
	return "", &UnsupportedFormatError{Filename: filename}
}

// ExtractDocument decodes data and returns the cleaned text and page count.
// A readable document without text (e.g. a scanned PDF) is not an error: it
// yields empty text, which the analyzer maps to the sentinel profile.
func ExtractDocument(filename string, data []byte) (types.RawDocument, error) {
	doc, _, err := Extract(filename, data)
	return doc, err
}

// Extract is ExtractDocument that also reports the detected format.
func Extract(filename string, data []byte) (types.RawDocument, Format, error) {
	format, err := DetectFormat(filename, data)
	if err != nil {
		return types.RawDocument{}, "", err
	}

	var (
		text  string
		pages int
	)
	switch format {
	case FormatPDF:
		text, pages, err = extractPDF(data)
	case FormatDOCX:
		text, err = extractDOCX(data)
	default:
		text = string(data)
	}
	if err != nil {
		return types.RawDocument{}, format, err
	}

	text = CleanText(text)
	if pages <= 0 {
		pages = estimatePages(text)
	}

	return types.RawDocument{Text: text, PageCount: pages, Source: filepath.Base(filename)}, format, nil
}

// IngestFromFile reads and extracts a resume from disk.
func IngestFromFile(path string) (types.RawDocument, *Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return types.RawDocument{}, nil, fmt.Errorf("file not found: %w", err)
		}
		return types.RawDocument{}, nil, fmt.Errorf("failed to read file: %w", err)
	}

	doc, format, err := Extract(path, data)
	if err != nil {
		return types.RawDocument{}, nil, err
	}
	return doc, NewMetadata(doc, format, len(data)), nil
}

// extractPDF returns the text of every readable page and the page count.
// An unreadable page count falls back to 1.
func extractPDF(data []byte) (string, int, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", 0, &ExtractionError{Format: FormatPDF, Message: "failed to open pdf", Cause: err}
	}

	pages := reader.NumPage()
	var sb strings.Builder
	for i := 1; i <= pages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}

	if pages < 1 {
		pages = 1
	}
	return sb.String(), pages, nil
}

// extractDOCX returns the body text of a Word document, one paragraph per line.
func extractDOCX(data []byte) (string, error) {
	r, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", &ExtractionError{Format: FormatDOCX, Message: "failed to parse docx", Cause: err}
	}
	defer r.Close()

	return docxXMLToText(r.Editable().GetContent()), nil
}

// docxXMLToText strips WordprocessingML markup, keeping paragraph breaks.
func docxXMLToText(content string) string {
	content = docxParagraphEnd.ReplaceAllString(content, "\n")
	content = xmlTag.ReplaceAllString(content, "")
	return html.UnescapeString(content)
}
