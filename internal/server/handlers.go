package server

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/jonathan/resume-analyzer/internal/ingestion"
	"github.com/jonathan/resume-analyzer/internal/pipeline"
	"github.com/jonathan/resume-analyzer/internal/types"
)

// maxRequestBytes bounds request bodies: a full document plus multipart framing.
const maxRequestBytes = ingestion.MaxDocumentBytes + 1<<20

// AnalyzeRequest is the JSON body of POST /analyze.
type AnalyzeRequest struct {
	Text      string `json:"text"`
	PageCount int    `json:"page_count" validate:"gte=0,lte=1000"`
	Source    string `json:"source,omitempty" validate:"max=255"`
	Courses   int    `json:"courses,omitempty" validate:"gte=0,lte=10"`
}

// AnalyzeResponse is returned by POST /analyze.
type AnalyzeResponse struct {
	Profile  *types.ResumeProfile `json:"profile"`
	Metadata *ingestion.Metadata  `json:"metadata"`
	RecordID string               `json:"record_id,omitempty"`
	Cached   bool                 `json:"cached"`
	Warning  string               `json:"warning,omitempty"`
}

// CatalogResponse is returned by GET /catalog.
type CatalogResponse struct {
	Fields []types.FieldCatalogEntry `json:"fields"`
}

func (s *Server) handleCatalog(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, CatalogResponse{Fields: s.runner.Analyzer().Catalog().Entries()})
}

// handleAnalyze accepts JSON text or a multipart "file" upload and returns the
// profile.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	in, err := s.decodeAnalyzeInput(w, r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	res, err := s.runner.Run(r.Context(), in)
	if err != nil && res == nil {
		s.writeError(w, err)
		return
	}

	resp := toResponse(res)
	if err != nil {
		s.logger.Warn().Err(err).Msg("analysis completed but profile was not saved")
		resp.Warning = "profile was not saved"
	}
	s.jsonResponse(w, http.StatusOK, resp)
}

// handleAnalyzeStream runs the same analysis, reporting each pipeline step as
// a server-sent event before the final "result" event.
func (s *Server) handleAnalyzeStream(w http.ResponseWriter, r *http.Request) {
	in, err := s.decodeAnalyzeInput(w, r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	in.OnProgress = func(e pipeline.ProgressEvent) {
		sse.WriteEvent("progress", map[string]string{"step": e.Step, "message": e.Message}) //nolint:errcheck
	}
	res, err := s.runner.Run(r.Context(), in)
	if err != nil && res == nil {
		sse.WriteError(HTTPStatus(err), err.Error())
		return
	}

	resp := toResponse(res)
	if err != nil {
		resp.Warning = "profile was not saved"
	}
	sse.WriteEvent("result", resp) //nolint:errcheck
}

func toResponse(res *pipeline.Result) AnalyzeResponse {
	resp := AnalyzeResponse{Profile: res.Profile, Metadata: res.Metadata, Cached: res.Cached}
	if res.RecordID != uuid.Nil {
		resp.RecordID = res.RecordID.String()
	}
	return resp
}

func (s *Server) decodeAnalyzeInput(w http.ResponseWriter, r *http.Request) (pipeline.Input, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		return s.decodeUpload(r)
	}

	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return pipeline.Input{}, pipeline.ErrTooLarge
		}
		return pipeline.Input{}, &ErrValidation{Field: "body", Message: "invalid JSON"}
	}
	if err := s.validate.Struct(req); err != nil {
		return pipeline.Input{}, validationError(err)
	}

	return pipeline.Input{
		Document:    &types.RawDocument{Text: req.Text, PageCount: req.PageCount, Source: req.Source},
		CourseCount: req.Courses,
	}, nil
}

func (s *Server) decodeUpload(r *http.Request) (pipeline.Input, error) {
	if err := r.ParseMultipartForm(ingestion.MaxDocumentBytes); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return pipeline.Input{}, pipeline.ErrTooLarge
		}
		return pipeline.Input{}, &ErrValidation{Field: "body", Message: "invalid multipart form"}
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return pipeline.Input{}, &ErrValidation{Field: "file", Message: "required"}
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return pipeline.Input{}, &ErrValidation{Field: "file", Message: "unreadable"}
	}

	var courses int
	if raw := r.FormValue("courses"); raw != "" {
		courses, err = strconv.Atoi(raw)
		if err != nil || courses < 0 || courses > 10 {
			return pipeline.Input{}, &ErrValidation{Field: "courses", Message: "must be between 0 and 10 (0 uses the default)"}
		}
	}

	return pipeline.Input{Filename: header.Filename, Data: data, CourseCount: courses}, nil
}
