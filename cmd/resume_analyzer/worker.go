package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-analyzer/internal/worker"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Consume analysis jobs from RabbitMQ",
	Long: `Consumes jobs from the JOB_QUEUE queue at AMQP_URL. Each job names an S3 object (bucket and key)
or carries inline text. Results are published to the RESULT_EXCHANGE fanout exchange and, when
DATABASE_URL is set, stored.`,
	RunE: runWorker,
}

var (
	workerConcurrency int
	workerPrefetch    int
	workerAttempts    int
)

func init() {
	workerCmd.Flags().IntVar(&workerConcurrency, "concurrency", 0, "Jobs handled in parallel (default: config concurrency)")
	workerCmd.Flags().IntVar(&workerPrefetch, "prefetch", 0, "Unacknowledged deliveries held at once (default: concurrency)")
	workerCmd.Flags().IntVar(&workerAttempts, "attempts", worker.DefaultAttempts, "Download attempts per job")
	rootCmd.AddCommand(workerCmd)
}

func runWorker(_ *cobra.Command, _ []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.AMQPURL == "" {
		return fmt.Errorf("AMQP_URL is required (set it in the environment or config file)")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := openServices(ctx, cfg, log, backends{store: true, cache: true})
	if err != nil {
		return err
	}
	defer svc.Close()

	fetcher, err := worker.NewS3Fetcher(ctx, cfg.S3Region, cfg.S3Endpoint)
	if err != nil {
		return fmt.Errorf("failed to configure object storage: %w", err)
	}

	concurrency := workerConcurrency
	if concurrency <= 0 {
		concurrency = cfg.Concurrency
	}
	prefetch := workerPrefetch
	if prefetch <= 0 {
		prefetch = concurrency
	}

	consumer, err := worker.Dial(worker.ConsumerConfig{
		URL:      cfg.AMQPURL,
		Queue:    cfg.JobQueue,
		Exchange: cfg.ResultExchange,
		Prefetch: prefetch,
	}, log)
	if err != nil {
		return fmt.Errorf("failed to connect to broker: %w", err)
	}
	defer consumer.Close()

	w := worker.New(svc.runner, fetcher, consumer,
		worker.WithLogger(log),
		worker.WithRetry(workerAttempts, worker.DefaultBackoff),
	)
	return consumer.Run(ctx, w, concurrency)
}
