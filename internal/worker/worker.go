package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jonathan/resume-analyzer/internal/pipeline"
	"github.com/jonathan/resume-analyzer/internal/types"
)

// Outcome tells the consumer how to settle a delivery.
type Outcome int

const (
	// Ack removes the message; a result was published.
	Ack Outcome = iota
	// Reject drops the message without requeueing it.
	Reject
	// Requeue returns the message to the queue for another attempt.
	Requeue
)

func (o Outcome) String() string {
	switch o {
	case Ack:
		return "ack"
	case Reject:
		return "reject"
	case Requeue:
		return "requeue"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Publisher delivers job results.
type Publisher interface {
	Publish(ctx context.Context, res Result) error
}

// Worker handles job messages.
type Worker struct {
	runner    *pipeline.Runner
	fetcher   ObjectFetcher
	publisher Publisher
	logger    zerolog.Logger
	attempts  int
	backoff   time.Duration
	now       func() time.Time
}

// Download retry defaults.
const (
	DefaultAttempts = 3
	DefaultBackoff  = 500 * time.Millisecond
)

// Option configures a Worker.
type Option func(*Worker)

// WithLogger sets the worker logger.
func WithLogger(l zerolog.Logger) Option {
	return func(w *Worker) { w.logger = l }
}

// WithRetry sets how often downloads are attempted and the base backoff
// between attempts.
func WithRetry(attempts int, backoff time.Duration) Option {
	return func(w *Worker) {
		w.attempts = attempts
		w.backoff = backoff
	}
}

// New creates a Worker. fetcher may be nil when only inline-text jobs are
// expected.
func New(runner *pipeline.Runner, fetcher ObjectFetcher, publisher Publisher, opts ...Option) *Worker {
	w := &Worker{
		runner:    runner,
		fetcher:   fetcher,
		publisher: publisher,
		logger:    zerolog.Nop(),
		attempts:  DefaultAttempts,
		backoff:   DefaultBackoff,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.attempts < 1 {
		w.attempts = 1
	}
	return w
}

// Handle processes a first delivery of a message body.
func (w *Worker) Handle(ctx context.Context, body []byte) Outcome {
	return w.HandleDelivery(ctx, body, false)
}

// HandleDelivery processes one message body. Malformed messages are rejected.
// Download and extraction failures publish a failed result and are acked.
// Storage failures are requeued once; when the message was already
// redelivered a failed result is published and the message is rejected.
func (w *Worker) HandleDelivery(ctx context.Context, body []byte, redelivered bool) Outcome {
	job, err := ParseJob(body)
	if err != nil {
		w.logger.Warn().Err(err).Msg("rejecting job message")
		if job != nil && job.JobID != "" {
			w.publish(ctx, w.failed(job.JobID, err))
		}
		return Reject
	}

	log := w.logger.With().Str("job_id", job.JobID).Logger()
	log.Info().Str("key", job.Key).Msg("processing job")

	input, err := w.input(ctx, job)
	if err != nil {
		log.Error().Err(err).Msg("job input unavailable")
		w.publish(ctx, w.failed(job.JobID, err))
		return Ack
	}

	res, err := w.runner.Run(ctx, input)
	if err != nil {
		if pipeline.IsPersistError(err) {
			if redelivered {
				log.Error().Err(err).Msg("profile not saved after redelivery, giving up")
				w.publish(ctx, w.failed(job.JobID, err))
				return Reject
			}
			log.Error().Err(err).Msg("profile not saved, requeueing")
			return Requeue
		}
		log.Error().Err(err).Msg("analysis failed")
		w.publish(ctx, w.failed(job.JobID, err))
		return Ack
	}

	out := Result{
		JobID:     job.JobID,
		Status:    StatusCompleted,
		Profile:   res.Profile,
		Cached:    res.Cached,
		Timestamp: w.now().UTC(),
	}
	if res.RecordID != uuid.Nil {
		out.RecordID = res.RecordID.String()
	}
	if err := w.publisher.Publish(ctx, out); err != nil {
		log.Error().Err(err).Msg("failed to publish result, requeueing")
		return Requeue
	}

	log.Info().
		Str("field", res.Profile.PredictedField).
		Int("score", res.Profile.Score).
		Bool("cached", res.Cached).
		Msg("job completed")
	return Ack
}

func (w *Worker) input(ctx context.Context, job *Job) (pipeline.Input, error) {
	if job.Text != nil {
		return pipeline.Input{Document: &types.RawDocument{
			Text:      *job.Text,
			PageCount: job.PageCount,
			Source:    job.filename(),
		}}, nil
	}

	if w.fetcher == nil {
		return pipeline.Input{}, errors.New("object storage is not configured")
	}
	data, err := retry(ctx, w.attempts, w.backoff, func() ([]byte, error) {
		return w.fetcher.Fetch(ctx, job.Bucket, job.Key)
	})
	if err != nil {
		return pipeline.Input{}, fmt.Errorf("download of %s/%s failed: %w", job.Bucket, job.Key, err)
	}
	return pipeline.Input{Filename: job.filename(), Data: data}, nil
}

func (w *Worker) failed(jobID string, err error) Result {
	return Result{JobID: jobID, Status: StatusFailed, Error: err.Error(), Timestamp: w.now().UTC()}
}

func (w *Worker) publish(ctx context.Context, res Result) {
	if err := w.publisher.Publish(ctx, res); err != nil {
		w.logger.Error().Err(err).Str("job_id", res.JobID).Msg("failed to publish result")
	}
}

// retry calls fn up to attempts times with linear backoff, stopping early when
// ctx is done.
func retry[T any](ctx context.Context, attempts int, backoff time.Duration, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error

	for i := 0; i < attempts; i++ {
		result, err := fn()
		if err == nil {
			return result, nil
		}
		lastErr = err
		if i == attempts-1 {
			break
		}

		timer := time.NewTimer(backoff * time.Duration(i+1))
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		case <-timer.C:
		}
	}
	return zero, fmt.Errorf("after %d attempts: %w", attempts, lastErr)
}
