package server

import (
	"encoding/csv"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/resume-analyzer/internal/db"
	"github.com/jonathan/resume-analyzer/internal/server/middleware"
)

// LoginRequest is the body of POST /admin/login.
type LoginRequest struct {
	Username string `json:"username" validate:"required,max=128"`
	Password string `json:"password" validate:"required,max=256"`
}

// LoginResponse carries the issued admin token.
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ProfileListResponse is returned by GET /admin/profiles.
type ProfileListResponse struct {
	Profiles []db.ProfileRecord `json:"profiles"`
	Count    int                `json:"count"`
	Limit    int                `json:"limit"`
	Offset   int                `json:"offset"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if s.jwtService == nil {
		s.writeError(w, &ErrUnavailable{Feature: "admin access"})
		return
	}

	var req LoginRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		s.writeError(w, validationError(err))
		return
	}

	if !s.admin.Authenticate(req.Username, req.Password) {
		s.logger.Warn().Str("username", req.Username).Str("client", clientID(r)).Msg("admin login failed")
		s.writeError(w, &ErrInvalidCredentials{})
		return
	}

	token, expiresAt, err := s.jwtService.GenerateToken(req.Username)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.logger.Info().Str("username", req.Username).Msg("admin logged in")
	s.jsonResponse(w, http.StatusOK, LoginResponse{Token: token, ExpiresAt: expiresAt})
}

func (s *Server) handleListProfiles(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.writeError(w, &ErrUnavailable{Feature: "profile storage"})
		return
	}

	opts, err := listOptions(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	records, err := s.store.ListProfiles(r.Context(), opts)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if records == nil {
		records = []db.ProfileRecord{}
	}
	s.jsonResponse(w, http.StatusOK, ProfileListResponse{
		Profiles: records,
		Count:    len(records),
		Limit:    opts.Limit,
		Offset:   opts.Offset,
	})
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.writeError(w, &ErrUnavailable{Feature: "profile storage"})
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.writeError(w, &ErrValidation{Field: "id", Message: "must be a UUID"})
		return
	}

	rec, err := s.store.GetProfile(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, rec)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.writeError(w, &ErrUnavailable{Feature: "profile storage"})
		return
	}

	stats, err := s.store.Stats(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, stats)
}

// csvHeader lists the export columns.
var csvHeader = []string{
	"ID", "Name", "Email", "Phone", "Resume Score", "Total Pages", "Predicted Field",
	"User Level", "Actual Skills", "Recommended Skills", "Recommended Courses", "Source", "Timestamp",
}

// handleExportProfiles streams every stored profile matching the filters as CSV.
func (s *Server) handleExportProfiles(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.writeError(w, &ErrUnavailable{Feature: "profile storage"})
		return
	}

	opts, err := listOptions(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	opts.Limit = db.MaxListLimit
	opts.Offset = 0

	// Fetch the first page before writing headers so a storage error can
	// still produce a JSON error response.
	page, err := s.store.ListProfiles(r.Context(), opts)
	if err != nil {
		s.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="user_data.csv"`)
	w.WriteHeader(http.StatusOK)

	cw := csv.NewWriter(w)
	_ = cw.Write(csvHeader)
	exported := 0
	for {
		for _, rec := range page {
			_ = cw.Write(csvRow(rec))
		}
		exported += len(page)
		if len(page) < opts.Limit {
			break
		}
		opts.Offset += len(page)
		page, err = s.store.ListProfiles(r.Context(), opts)
		if err != nil {
			s.logger.Error().Err(err).Int("exported", exported).Msg("profile export interrupted")
			break
		}
	}
	cw.Flush()

	subject, _ := middleware.GetSubject(r)
	s.logger.Info().Str("username", subject).Int("profiles", exported).Msg("profiles exported")
}

func csvRow(rec db.ProfileRecord) []string {
	courses := make([]string, 0, len(rec.RecommendedCourses))
	for _, c := range rec.RecommendedCourses {
		courses = append(courses, c.Title+" ("+c.URL+")")
	}
	return []string{
		rec.ID.String(),
		rec.Name,
		rec.Email,
		rec.Phone,
		strconv.Itoa(rec.Score),
		strconv.Itoa(rec.PageCount),
		rec.PredictedField,
		rec.ExperienceLevel,
		strings.Join(rec.Skills, ", "),
		strings.Join(rec.RecommendedSkills, ", "),
		strings.Join(courses, "; "),
		rec.Source,
		rec.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func listOptions(r *http.Request) (db.ListOptions, error) {
	q := r.URL.Query()
	opts := db.ListOptions{Field: q.Get("field"), Level: q.Get("level")}

	for name, dst := range map[string]*int{"limit": &opts.Limit, "offset": &opts.Offset} {
		raw := q.Get(name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return db.ListOptions{}, &ErrValidation{Field: name, Message: "must be a non-negative integer"}
		}
		*dst = n
	}
	if opts.Limit == 0 {
		opts.Limit = db.DefaultListLimit
	}
	if opts.Limit > db.MaxListLimit {
		opts.Limit = db.MaxListLimit
	}
	return opts, nil
}
