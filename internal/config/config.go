// Package config provides configuration loading and validation for the CLI,
// the HTTP server and the queue worker.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Config represents the settings that can be loaded from a JSON file.
// All fields are optional; missing values use defaults, environment
// variables or CLI flags.
type Config struct {
	// Analysis
	CatalogPath     string `json:"catalog_path,omitempty"` // YAML or JSON catalog file
	NameStrictness  string `json:"name_strictness,omitempty" validate:"omitempty,oneof=strict loose"`
	PredictorPolicy string `json:"predictor_policy,omitempty" validate:"omitempty,oneof=best_match first_match"`
	ScoreStrategy   string `json:"score_strategy,omitempty" validate:"omitempty,oneof=attribute_completeness section_presence"`
	LevelRule       string `json:"level_rule,omitempty" validate:"omitempty,oneof=score_skills page_count"`
	MaxSkills       int    `json:"max_skills,omitempty" validate:"gte=0,lte=50"`
	CourseCount     int    `json:"course_count,omitempty" validate:"gte=0,lte=10"`
	ShuffleCourses  bool   `json:"shuffle_courses,omitempty"`
	Concurrency     int    `json:"concurrency,omitempty" validate:"gte=0,lte=64"` // Parallel analyses in batch mode

	// Storage
	DatabaseURL string `json:"database_url,omitempty"` // postgres:// or mysql:// connection URL
	RedisURL    string `json:"redis_url,omitempty"`    // Profile cache

	// Logging
	LogLevel  string `json:"log_level,omitempty" validate:"omitempty,oneof=trace debug info warn error"`
	LogFormat string `json:"log_format,omitempty" validate:"omitempty,oneof=json pretty"`

	// Server
	Addr string `json:"addr,omitempty"`

	// Worker
	AMQPURL        string `json:"amqp_url,omitempty"`
	JobQueue       string `json:"job_queue,omitempty"`
	ResultExchange string `json:"result_exchange,omitempty"`
	S3Region       string `json:"s3_region,omitempty"`
	S3Endpoint     string `json:"s3_endpoint,omitempty"` // For S3-compatible stores
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		NameStrictness:  "strict",
		PredictorPolicy: "best_match",
		ScoreStrategy:   "attribute_completeness",
		LevelRule:       "score_skills",
		MaxSkills:       10,
		CourseCount:     5,
		Concurrency:     4,
		LogLevel:        "info",
		LogFormat:       "json",
		Addr:            ":8080",
		JobQueue:        "resume.analyze",
		ResultExchange:  "resume.results",
		S3Region:        "us-east-1",
	}
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// ApplyEnv overrides fields from the environment. Unset variables leave the
// field untouched.
func (c *Config) ApplyEnv() {
	envs := map[string]*string{
		"CATALOG_PATH":    &c.CatalogPath,
		"DATABASE_URL":    &c.DatabaseURL,
		"REDIS_URL":       &c.RedisURL,
		"LOG_LEVEL":       &c.LogLevel,
		"LOG_FORMAT":      &c.LogFormat,
		"AMQP_URL":        &c.AMQPURL,
		"JOB_QUEUE":       &c.JobQueue,
		"RESULT_EXCHANGE": &c.ResultExchange,
		"AWS_REGION":      &c.S3Region,
		"S3_ENDPOINT":     &c.S3Endpoint,
	}
	for key, field := range envs {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*field = v
		}
	}
	if port := os.Getenv("PORT"); port != "" {
		c.Addr = ":" + port
	}
}

// Validate checks that the configuration has valid values.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	if c.CatalogPath != "" {
		if _, err := os.Stat(c.CatalogPath); os.IsNotExist(err) {
			return fmt.Errorf("config error: catalog file not found: %s", c.CatalogPath)
		}
	}

	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	strs := []struct {
		dst *string
		src string
	}{
		{&result.CatalogPath, defaults.CatalogPath},
		{&result.NameStrictness, defaults.NameStrictness},
		{&result.PredictorPolicy, defaults.PredictorPolicy},
		{&result.ScoreStrategy, defaults.ScoreStrategy},
		{&result.LevelRule, defaults.LevelRule},
		{&result.DatabaseURL, defaults.DatabaseURL},
		{&result.RedisURL, defaults.RedisURL},
		{&result.LogLevel, defaults.LogLevel},
		{&result.LogFormat, defaults.LogFormat},
		{&result.Addr, defaults.Addr},
		{&result.AMQPURL, defaults.AMQPURL},
		{&result.JobQueue, defaults.JobQueue},
		{&result.ResultExchange, defaults.ResultExchange},
		{&result.S3Region, defaults.S3Region},
		{&result.S3Endpoint, defaults.S3Endpoint},
	}
	for _, s := range strs {
		if *s.dst == "" {
			*s.dst = s.src
		}
	}

	if result.MaxSkills == 0 {
		result.MaxSkills = defaults.MaxSkills
	}
	if result.CourseCount == 0 {
		result.CourseCount = defaults.CourseCount
	}
	if result.Concurrency == 0 {
		result.Concurrency = defaults.Concurrency
	}

	// Bools cannot distinguish unset from false, so flags always win.

	return result
}

// Resolve loads the optional file at path, applies the environment, fills
// defaults and validates the result.
func Resolve(path string) (Config, error) {
	cfg := &Config{}
	if path != "" {
		loaded, err := LoadConfig(path)
		if err != nil {
			return Config{}, err
		}
		cfg = loaded
	}
	cfg.ApplyEnv()

	merged := cfg.MergeWithDefaults(Defaults())
	if err := merged.Validate(); err != nil {
		return Config{}, err
	}
	return merged, nil
}
