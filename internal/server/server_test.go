package server

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jonathan/resume-analyzer/internal/analysis"
	"github.com/jonathan/resume-analyzer/internal/config"
	"github.com/jonathan/resume-analyzer/internal/db"
	"github.com/jonathan/resume-analyzer/internal/pipeline"
	"github.com/jonathan/resume-analyzer/internal/server/ratelimit"
	"github.com/jonathan/resume-analyzer/internal/types"
)

const sampleResume = `John Smith
john.smith@example.com
+1 555 123 4567
Objective
Python developer working with pandas and tensorflow.
Projects
`

type fakeStore struct {
	mu      sync.Mutex
	records []db.ProfileRecord
	saveErr error
	listErr error
}

func (s *fakeStore) SaveProfile(_ context.Context, rec *db.ProfileRecord) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return uuid.Nil, s.saveErr
	}
	stored := *rec
	stored.ID = uuid.New()
	stored.CreatedAt = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	stored.UpdatedAt = stored.CreatedAt
	s.records = append(s.records, stored)
	return stored.ID, nil
}

func (s *fakeStore) GetProfile(_ context.Context, id uuid.UUID) (*db.ProfileRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.records {
		if s.records[i].ID == id {
			rec := s.records[i]
			return &rec, nil
		}
	}
	return nil, db.ErrNotFound
}

func (s *fakeStore) ListProfiles(_ context.Context, opts db.ListOptions) ([]db.ProfileRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	var matched []db.ProfileRecord
	for _, rec := range s.records {
		if opts.Field != "" && rec.PredictedField != opts.Field {
			continue
		}
		if opts.Level != "" && rec.ExperienceLevel != opts.Level {
			continue
		}
		matched = append(matched, rec)
	}
	if opts.Offset >= len(matched) {
		return nil, nil
	}
	matched = matched[opts.Offset:]
	if opts.Limit > 0 && len(matched) > opts.Limit {
		matched = matched[:opts.Limit]
	}
	return matched, nil
}

func (s *fakeStore) Stats(_ context.Context) (*db.Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stats := &db.Stats{ByField: map[string]int{}, ByLevel: map[string]int{}}
	sum := 0
	for _, rec := range s.records {
		stats.Total++
		sum += rec.Score
		stats.ByField[rec.PredictedField]++
		stats.ByLevel[rec.ExperienceLevel]++
	}
	if stats.Total > 0 {
		stats.AverageScore = float64(sum) / float64(stats.Total)
	}
	return stats, nil
}

func (s *fakeStore) Close() error { return nil }

type testServerOptions struct {
	store     *fakeStore
	admin     bool
	rateLimit *ratelimit.Config
}

func newTestServer(t *testing.T, opts testServerOptions) *Server {
	t.Helper()

	cfg := Config{Logger: zerolog.Nop(), RateLimit: opts.rateLimit}
	if cfg.RateLimit == nil {
		cfg.RateLimit = &ratelimit.Config{Enabled: false}
	}

	runnerOpts := []pipeline.Option{pipeline.WithLogger(zerolog.Nop())}
	if opts.store != nil {
		cfg.Store = opts.store
		runnerOpts = append(runnerOpts, pipeline.WithStore(opts.store))
	}
	cfg.Runner = pipeline.NewRunner(analysis.New(nil), runnerOpts...)

	if opts.admin {
		admin, err := config.NewAdmin("admin", "correct-horse", "", bcrypt.MinCost, &config.JWTConfig{
			Secret:          testSecret,
			ExpirationHours: 1,
			Issuer:          "resume-analyzer",
		})
		require.NoError(t, err)
		cfg.Admin = admin
	}

	s, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(s.rateLimiter.Stop)
	return s
}

func doRequest(s *Server, method, path string, body []byte, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func postJSON(s *Server, path string, v any) *httptest.ResponseRecorder {
	body, _ := json.Marshal(v)
	return doRequest(s, http.MethodPost, path, body, map[string]string{"Content-Type": "application/json"})
}

func login(t *testing.T, s *Server) string {
	t.Helper()
	rec := postJSON(s, "/admin/login", LoginRequest{Username: "admin", Password: "correct-horse"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func TestNew_RequiresRunner(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, testServerOptions{})
	rec := doRequest(s, http.MethodGet, "/health", nil, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, false, body["storage"])
	assert.Equal(t, false, body["admin"])
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t, testServerOptions{})
	rec := doRequest(s, http.MethodOptions, "/analyze", nil, nil)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCatalog(t *testing.T) {
	s := newTestServer(t, testServerOptions{})
	rec := doRequest(s, http.MethodGet, "/catalog", nil, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp CatalogResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Fields)

	names := make([]string, 0, len(resp.Fields))
	for _, f := range resp.Fields {
		names = append(names, f.Name)
	}
	assert.Contains(t, names, "Data Science")
}

func TestAnalyze_JSON(t *testing.T) {
	store := &fakeStore{}
	s := newTestServer(t, testServerOptions{store: store})

	rec := postJSON(s, "/analyze", AnalyzeRequest{Text: sampleResume, PageCount: 1, Source: "john.txt"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp AnalyzeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "John Smith", resp.Profile.Name)
	assert.Equal(t, "Data Science", resp.Profile.PredictedField)
	assert.Equal(t, "john.txt", resp.Metadata.Source)
	assert.Empty(t, resp.Warning)
	require.Len(t, store.records, 1)
	assert.Equal(t, store.records[0].ID.String(), resp.RecordID)
}

func TestAnalyze_CourseOverride(t *testing.T) {
	s := newTestServer(t, testServerOptions{})

	rec := postJSON(s, "/analyze", AnalyzeRequest{Text: sampleResume, PageCount: 1, Courses: 2})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp AnalyzeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Profile.RecommendedCourses, 2)
	assert.Empty(t, resp.RecordID)
}

func TestAnalyze_Validation(t *testing.T) {
	s := newTestServer(t, testServerOptions{})

	tests := []struct {
		name string
		body []byte
	}{
		{"malformed", []byte("{not json")},
		{"negative pages", []byte(`{"text":"x","page_count":-1}`)},
		{"too many courses", []byte(`{"text":"x","courses":11}`)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(s, http.MethodPost, "/analyze", tt.body, map[string]string{"Content-Type": "application/json"})
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestAnalyze_EmptyTextReturnsSentinel(t *testing.T) {
	s := newTestServer(t, testServerOptions{})

	rec := postJSON(s, "/analyze", AnalyzeRequest{Text: "   ", PageCount: 2})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp AnalyzeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, types.NotFound, resp.Profile.Name)
	assert.Equal(t, 2, resp.Profile.PageCount)
}

func multipartBody(t *testing.T, filename string, data []byte, fields map[string]string) ([]byte, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())
	return buf.Bytes(), mw.FormDataContentType()
}

func TestAnalyze_Upload(t *testing.T) {
	s := newTestServer(t, testServerOptions{})

	body, contentType := multipartBody(t, "john.txt", []byte(sampleResume), map[string]string{"courses": "3"})
	rec := doRequest(s, http.MethodPost, "/analyze", body, map[string]string{"Content-Type": contentType})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp AnalyzeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "John Smith", resp.Profile.Name)
	assert.Equal(t, "john.txt", resp.Metadata.Source)
	assert.Len(t, resp.Profile.RecommendedCourses, 3)
}

func TestAnalyze_UploadErrors(t *testing.T) {
	s := newTestServer(t, testServerOptions{})

	t.Run("unsupported format", func(t *testing.T) {
		body, contentType := multipartBody(t, "photo.png", []byte{0x89, 'P', 'N', 'G', 0xff, 0xfe}, nil)
		rec := doRequest(s, http.MethodPost, "/analyze", body, map[string]string{"Content-Type": contentType})
		assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
	})

	t.Run("bad course count", func(t *testing.T) {
		body, contentType := multipartBody(t, "john.txt", []byte(sampleResume), map[string]string{"courses": "eleven"})
		rec := doRequest(s, http.MethodPost, "/analyze", body, map[string]string{"Content-Type": contentType})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("course count above range", func(t *testing.T) {
		body, contentType := multipartBody(t, "john.txt", []byte(sampleResume), map[string]string{"courses": "11"})
		rec := doRequest(s, http.MethodPost, "/analyze", body, map[string]string{"Content-Type": contentType})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "must be between 0 and 10 (0 uses the default)")
	})

	t.Run("zero course count uses default", func(t *testing.T) {
		body, contentType := multipartBody(t, "john.txt", []byte(sampleResume), map[string]string{"courses": "0"})
		rec := doRequest(s, http.MethodPost, "/analyze", body, map[string]string{"Content-Type": contentType})
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("missing file", func(t *testing.T) {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		require.NoError(t, mw.WriteField("courses", "2"))
		require.NoError(t, mw.Close())
		rec := doRequest(s, http.MethodPost, "/analyze", buf.Bytes(), map[string]string{"Content-Type": mw.FormDataContentType()})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestAnalyze_StoreFailureStillReturnsProfile(t *testing.T) {
	store := &fakeStore{saveErr: errors.New("connection refused")}
	s := newTestServer(t, testServerOptions{store: store})

	rec := postJSON(s, "/analyze", AnalyzeRequest{Text: sampleResume, PageCount: 1})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp AnalyzeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "John Smith", resp.Profile.Name)
	assert.Empty(t, resp.RecordID)
	assert.Equal(t, "profile was not saved", resp.Warning)
}

func TestAnalyzeStream(t *testing.T) {
	s := newTestServer(t, testServerOptions{})

	rec := postJSON(s, "/analyze/stream", AnalyzeRequest{Text: sampleResume, PageCount: 1})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	body := rec.Body.String()
	assert.Contains(t, body, "event: progress")
	assert.Contains(t, body, `"step":"analyze"`)
	assert.Contains(t, body, "event: result")
	assert.Contains(t, body, "John Smith")
	assert.Less(t, strings.Index(body, "event: progress"), strings.Index(body, "event: result"))
}

func TestAnalyzeStream_Error(t *testing.T) {
	s := newTestServer(t, testServerOptions{})

	body, contentType := multipartBody(t, "photo.png", []byte{0x89, 'P', 'N', 'G', 0xff, 0xfe}, nil)
	rec := doRequest(s, http.MethodPost, "/analyze/stream", body, map[string]string{"Content-Type": contentType})

	assert.Contains(t, rec.Body.String(), "event: error")
	assert.Contains(t, rec.Body.String(), `"status":415`)
}

func TestLogin(t *testing.T) {
	s := newTestServer(t, testServerOptions{admin: true})

	t.Run("success", func(t *testing.T) {
		rec := postJSON(s, "/admin/login", LoginRequest{Username: "admin", Password: "correct-horse"})
		require.Equal(t, http.StatusOK, rec.Code)

		var resp LoginResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.NotEmpty(t, resp.Token)
		assert.True(t, resp.ExpiresAt.After(time.Now()))
	})

	t.Run("wrong password", func(t *testing.T) {
		rec := postJSON(s, "/admin/login", LoginRequest{Username: "admin", Password: "wrong"})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("missing fields", func(t *testing.T) {
		rec := postJSON(s, "/admin/login", LoginRequest{Username: "admin"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestAdminRoutes_NotConfigured(t *testing.T) {
	s := newTestServer(t, testServerOptions{})

	rec := postJSON(s, "/admin/login", LoginRequest{Username: "admin", Password: "x"})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = doRequest(s, http.MethodGet, "/admin/profiles", nil, nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestAdminRoutes_RequireToken(t *testing.T) {
	s := newTestServer(t, testServerOptions{store: &fakeStore{}, admin: true})

	for _, path := range []string{"/admin/profiles", "/admin/profiles/export", "/admin/stats", "/admin/profiles/" + uuid.NewString()} {
		rec := doRequest(s, http.MethodGet, path, nil, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)

		rec = doRequest(s, http.MethodGet, path, nil, bearer("not-a-token"))
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}
}

func TestAdminRoutes_NoStore(t *testing.T) {
	s := newTestServer(t, testServerOptions{admin: true})
	token := login(t, s)

	rec := doRequest(s, http.MethodGet, "/admin/stats", nil, bearer(token))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "profile storage is not configured")
}

func seedProfiles(t *testing.T, s *Server) {
	t.Helper()
	resumes := []AnalyzeRequest{
		{Text: sampleResume, PageCount: 1, Source: "john.txt"},
		{Text: "Jane Doe\njane@example.com\nReact and Django developer\n", PageCount: 2, Source: "jane.txt"},
	}
	for _, r := range resumes {
		rec := postJSON(s, "/analyze", r)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}
}

func TestAdminProfiles(t *testing.T) {
	store := &fakeStore{}
	s := newTestServer(t, testServerOptions{store: store, admin: true})
	seedProfiles(t, s)
	token := login(t, s)

	t.Run("list", func(t *testing.T) {
		rec := doRequest(s, http.MethodGet, "/admin/profiles", nil, bearer(token))
		require.Equal(t, http.StatusOK, rec.Code)

		var resp ProfileListResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, 2, resp.Count)
		assert.Equal(t, db.DefaultListLimit, resp.Limit)
	})

	t.Run("list filtered", func(t *testing.T) {
		rec := doRequest(s, http.MethodGet, "/admin/profiles?field=Data+Science&limit=10", nil, bearer(token))
		require.Equal(t, http.StatusOK, rec.Code)

		var resp ProfileListResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Equal(t, 1, resp.Count)
		assert.Equal(t, "John Smith", resp.Profiles[0].Name)
	})

	t.Run("list bad limit", func(t *testing.T) {
		rec := doRequest(s, http.MethodGet, "/admin/profiles?limit=abc", nil, bearer(token))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("get", func(t *testing.T) {
		id := store.records[0].ID
		rec := doRequest(s, http.MethodGet, "/admin/profiles/"+id.String(), nil, bearer(token))
		require.Equal(t, http.StatusOK, rec.Code)

		var got db.ProfileRecord
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, id, got.ID)
	})

	t.Run("get missing", func(t *testing.T) {
		rec := doRequest(s, http.MethodGet, "/admin/profiles/"+uuid.NewString(), nil, bearer(token))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("get bad id", func(t *testing.T) {
		rec := doRequest(s, http.MethodGet, "/admin/profiles/not-a-uuid", nil, bearer(token))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("stats", func(t *testing.T) {
		rec := doRequest(s, http.MethodGet, "/admin/stats", nil, bearer(token))
		require.Equal(t, http.StatusOK, rec.Code)

		var stats db.Stats
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
		assert.Equal(t, 2, stats.Total)
		assert.Equal(t, 1, stats.ByField["Data Science"])
	})
}

func TestAdminExport(t *testing.T) {
	store := &fakeStore{}
	s := newTestServer(t, testServerOptions{store: store, admin: true})
	seedProfiles(t, s)
	token := login(t, s)

	rec := doRequest(s, http.MethodGet, "/admin/profiles/export", nil, bearer(token))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "user_data.csv")

	rows, err := csv.NewReader(rec.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, csvHeader, rows[0])

	names := []string{rows[1][1], rows[2][1]}
	sort.Strings(names)
	assert.Equal(t, "John Smith", names[1])
}

func TestAdminExport_StorageError(t *testing.T) {
	store := &fakeStore{listErr: errors.New("connection reset")}
	s := newTestServer(t, testServerOptions{store: store, admin: true})
	token := login(t, s)

	rec := doRequest(s, http.MethodGet, "/admin/profiles/export", nil, bearer(token))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "internal server error")
}

func TestRateLimit(t *testing.T) {
	s := newTestServer(t, testServerOptions{rateLimit: &ratelimit.Config{
		Enabled:       true,
		DefaultLimit:  100,
		DefaultWindow: time.Minute,
		Endpoints: []ratelimit.EndpointConfig{
			{Path: "/analyze", Method: http.MethodPost, Limit: 1, Window: time.Hour, Burst: 1},
		},
	}})

	first := postJSON(s, "/analyze", AnalyzeRequest{Text: sampleResume, PageCount: 1})
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "1", first.Header().Get("X-RateLimit-Limit"))

	second := postJSON(s, "/analyze", AnalyzeRequest{Text: sampleResume, PageCount: 1})
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.NotEmpty(t, second.Header().Get("Retry-After"))

	health := doRequest(s, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, health.Code)
}
