// Package worker consumes resume analysis jobs from RabbitMQ, fetches uploaded
// documents from S3-compatible storage and publishes the resulting profiles.
package worker

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/resume-analyzer/internal/types"
)

var validate = validator.New()

// Job is one analysis request. It names either an uploaded object (Bucket and
// Key) or carries the text inline.
type Job struct {
	JobID     string  `json:"job_id" validate:"required,max=128"`
	Bucket    string  `json:"bucket,omitempty" validate:"required_with=Key"`
	Key       string  `json:"key,omitempty" validate:"required_without=Text"`
	Filename  string  `json:"filename,omitempty"`
	Text      *string `json:"text,omitempty" validate:"required_without=Key"`
	PageCount int     `json:"page_count,omitempty" validate:"gte=0"`
}

// Job statuses published on the result exchange.
const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Result is published for every job, successful or not.
type Result struct {
	JobID     string               `json:"job_id"`
	Status    string               `json:"status"`
	Profile   *types.ResumeProfile `json:"profile,omitempty"`
	RecordID  string               `json:"record_id,omitempty"`
	Cached    bool                 `json:"cached,omitempty"`
	Error     string               `json:"error,omitempty"`
	Timestamp time.Time            `json:"timestamp"`
}

// ParseJob decodes and validates a message body.
func ParseJob(body []byte) (*Job, error) {
	var job Job
	if err := json.Unmarshal(body, &job); err != nil {
		return nil, fmt.Errorf("malformed job message: %w", err)
	}
	if err := validate.Struct(job); err != nil {
		return &job, fmt.Errorf("invalid job %q: %w", job.JobID, err)
	}
	return &job, nil
}

// filename returns the name used for format detection.
func (j *Job) filename() string {
	if j.Filename != "" {
		return j.Filename
	}
	return j.Key
}
