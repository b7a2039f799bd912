package ingestion

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		data     []byte
		want     Format
		wantErr  bool
	}{
		{name: "pdf extension", filename: "cv.PDF", want: FormatPDF},
		{name: "docx extension", filename: "cv.docx", want: FormatDOCX},
		{name: "txt extension", filename: "cv.txt", want: FormatText},
		{name: "pdf magic", filename: "upload", data: []byte("%PDF-1.7\n..."), want: FormatPDF},
		{name: "zip magic", filename: "upload", data: []byte("PK\x03\x04rest"), want: FormatDOCX},
		{name: "utf8 text", filename: "upload", data: []byte("Jane Doe\nEngineer"), want: FormatText},
		{name: "binary", filename: "photo.png", data: []byte{0xff, 0xd8, 0xff, 0xe0, 0x80}, wantErr: true},
		{name: "empty unknown", filename: "upload", data: nil, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DetectFormat(tt.filename, tt.data)
			if tt.wantErr {
				var target *UnsupportedFormatError
				assert.True(t, errors.As(err, &target))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractDocument_Text(t *testing.T) {
	doc, err := ExtractDocument("resumes/jane.txt", []byte("Jane   Doe\r\njane@example.com\r\n• Go\r\n"))
	require.NoError(t, err)

	assert.Equal(t, "Jane Doe\njane@example.com\n- Go", doc.Text)
	assert.Equal(t, 1, doc.PageCount)
	assert.Equal(t, "jane.txt", doc.Source)
}

func TestExtractDocument_TextPageEstimate(t *testing.T) {
	lines := make([]string, 120)
	for i := range lines {
		lines[i] = "line"
	}
	doc, err := ExtractDocument("long.txt", []byte(strings.Join(lines, "\n")))
	require.NoError(t, err)
	assert.Equal(t, 3, doc.PageCount)
}

func TestExtractDocument_EmptyTextFile(t *testing.T) {
	doc, err := ExtractDocument("empty.txt", nil)
	require.NoError(t, err)
	assert.Empty(t, doc.Text)
	assert.Equal(t, 1, doc.PageCount)
}

func TestExtractDocument_CorruptPDF(t *testing.T) {
	_, err := ExtractDocument("broken.pdf", []byte("%PDF-1.4 not really"))
	var extErr *ExtractionError
	require.True(t, errors.As(err, &extErr))
	assert.Equal(t, FormatPDF, extErr.Format)
}

func TestExtractDocument_CorruptDOCX(t *testing.T) {
	_, err := ExtractDocument("broken.docx", []byte("not a zip"))
	var extErr *ExtractionError
	require.True(t, errors.As(err, &extErr))
	assert.Equal(t, FormatDOCX, extErr.Format)
}

func TestDocxXMLToText(t *testing.T) {
	xml := `<w:body><w:p><w:r><w:t>Jane Doe</w:t></w:r></w:p><w:p><w:r><w:t>R&amp;D Engineer</w:t></w:r></w:p></w:body>`
	assert.Equal(t, "Jane Doe\nR&D Engineer\n", docxXMLToText(xml))
}

func TestIngestFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cv.txt")
	require.NoError(t, os.WriteFile(path, []byte("Jane Doe\nProjects"), 0644))

	doc, meta, err := IngestFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe\nProjects", doc.Text)
	require.NotNil(t, meta)
	assert.Equal(t, FormatText, meta.Format)
	assert.Equal(t, ContentHash(doc.Text), meta.Hash)
	assert.Equal(t, 17, meta.Bytes)
}

func TestIngestFromFile_NotFound(t *testing.T) {
	_, _, err := IngestFromFile("/nonexistent/cv.pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "file not found")
}
