package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-analyzer/internal/catalog"
	"github.com/jonathan/resume-analyzer/internal/types"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfig_ValidJSON(t *testing.T) {
	path := writeConfig(t, `{
		"name_strictness": "loose",
		"predictor_policy": "first_match",
		"course_count": 3,
		"shuffle_courses": true,
		"database_url": "postgres://localhost/resumes"
	}`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "loose", cfg.NameStrictness)
	assert.Equal(t, "first_match", cfg.PredictorPolicy)
	assert.Equal(t, 3, cfg.CourseCount)
	assert.True(t, cfg.ShuffleCourses)
	assert.Equal(t, "postgres://localhost/resumes", cfg.DatabaseURL)
}

func TestLoadConfig_InvalidJSON(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, `{ invalid json }`))
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to parse config JSON")
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	cfg, err := LoadConfig("/nonexistent/path/config.json")
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadConfig_EmptyPath(t *testing.T) {
	cfg, err := LoadConfig("")
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "defaults", cfg: Defaults()},
		{name: "empty", cfg: Config{}},
		{name: "bad strictness", cfg: Config{NameStrictness: "fuzzy"}, wantErr: true},
		{name: "bad policy", cfg: Config{PredictorPolicy: "random"}, wantErr: true},
		{name: "bad strategy", cfg: Config{ScoreStrategy: "vibes"}, wantErr: true},
		{name: "bad level rule", cfg: Config{LevelRule: "age"}, wantErr: true},
		{name: "course count too high", cfg: Config{CourseCount: 11}, wantErr: true},
		{name: "negative max skills", cfg: Config{MaxSkills: -1}, wantErr: true},
		{name: "bad log level", cfg: Config{LogLevel: "loud"}, wantErr: true},
		{name: "missing catalog", cfg: Config{CatalogPath: "/nonexistent/catalog.yaml"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestMergeWithDefaults(t *testing.T) {
	cfg := Config{NameStrictness: "loose", CourseCount: 2}
	merged := cfg.MergeWithDefaults(Defaults())

	assert.Equal(t, "loose", merged.NameStrictness)
	assert.Equal(t, 2, merged.CourseCount)
	assert.Equal(t, "best_match", merged.PredictorPolicy)
	assert.Equal(t, 10, merged.MaxSkills)
	assert.Equal(t, ":8080", merged.Addr)
	assert.Equal(t, "", cfg.PredictorPolicy, "receiver must not change")
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("CATALOG_PATH", "/etc/catalog.yaml")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("PORT", "9090")
	t.Setenv("DATABASE_URL", "")

	cfg := Config{DatabaseURL: "postgres://keep"}
	cfg.ApplyEnv()

	assert.Equal(t, "/etc/catalog.yaml", cfg.CatalogPath)
	assert.Equal(t, "redis://localhost:6379/0", cfg.RedisURL)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, "postgres://keep", cfg.DatabaseURL)
}

func TestResolve(t *testing.T) {
	t.Setenv("LOG_LEVEL", "warn")
	path := writeConfig(t, `{"score_strategy": "section_presence"}`)

	cfg, err := Resolve(path)
	require.NoError(t, err)
	assert.Equal(t, "section_presence", cfg.ScoreStrategy)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, 5, cfg.CourseCount)

	_, err = Resolve(writeConfig(t, `{"level_rule": "age"}`))
	assert.Error(t, err)
}

func TestAnalyzerOptions(t *testing.T) {
	cfg := Defaults()
	opts, err := cfg.AnalyzerOptions(zerolog.Nop())
	require.NoError(t, err)
	assert.Len(t, opts, 6)

	cfg.LevelRule = "age"
	_, err = cfg.AnalyzerOptions(zerolog.Nop())
	assert.Error(t, err)
}

func TestRecommendOptions(t *testing.T) {
	cfg := Config{MaxSkills: 4, CourseCount: 0}
	opts := cfg.RecommendOptions()
	assert.Equal(t, 4, opts.MaxSkills)
	assert.Equal(t, 5, opts.CourseCount)
	assert.Nil(t, opts.Shuffler)

	cfg.ShuffleCourses = true
	assert.NotNil(t, cfg.RecommendOptions().Shuffler)
}

func TestCacheVariant(t *testing.T) {
	cat := catalog.Default()
	base := Defaults()
	same := Defaults()
	assert.Equal(t, base.CacheVariant(cat), same.CacheVariant(cat))

	changed := Defaults()
	changed.ScoreStrategy = "section_presence"
	assert.NotEqual(t, base.CacheVariant(cat), changed.CacheVariant(cat))

	courses := Defaults()
	courses.CourseCount = 3
	assert.NotEqual(t, base.CacheVariant(cat), courses.CacheVariant(cat))

	other := catalog.MustNew([]types.FieldCatalogEntry{{Name: "Backend", Keywords: []string{"golang"}}})
	assert.NotEqual(t, base.CacheVariant(cat), base.CacheVariant(other))
}
