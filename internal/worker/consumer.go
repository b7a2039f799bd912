package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Consumer reads jobs from a durable queue and publishes results to a fanout
// exchange, routed by status.
type Consumer struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	queue    string
	exchange string
	logger   zerolog.Logger
}

// ConsumerConfig names the broker resources used by a Consumer.
type ConsumerConfig struct {
	URL      string
	Queue    string
	Exchange string
	Prefetch int
}

// Dial connects to RabbitMQ and declares the job queue and result exchange.
func Dial(cfg ConsumerConfig, logger zerolog.Logger) (*Consumer, error) {
	if cfg.Queue == "" || cfg.Exchange == "" {
		return nil, errors.New("queue and exchange names are required")
	}
	if cfg.Prefetch <= 0 {
		cfg.Prefetch = 1
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if _, err := ch.QueueDeclare(
		cfg.Queue,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,
	); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue %s: %w", cfg.Queue, err)
	}
	if err := ch.ExchangeDeclare(
		cfg.Exchange,
		amqp.ExchangeFanout,
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange %s: %w", cfg.Exchange, err)
	}
	if err := ch.Qos(cfg.Prefetch, 0, false); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to set QoS: %w", err)
	}

	return &Consumer{conn: conn, ch: ch, queue: cfg.Queue, exchange: cfg.Exchange, logger: logger}, nil
}

// Publish sends res to the result exchange as a persistent JSON message.
func (c *Consumer) Publish(ctx context.Context, res Result) error {
	body, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	return c.ch.PublishWithContext(ctx,
		c.exchange,
		res.Status, // routing key
		false,      // mandatory
		false,      // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    res.JobID,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
}

// Run consumes jobs with up to concurrency handlers until ctx is cancelled or
// the broker closes the delivery channel.
func (c *Consumer) Run(ctx context.Context, w *Worker, concurrency int) error {
	if concurrency <= 0 {
		concurrency = 1
	}

	deliveries, err := c.ch.Consume(
		c.queue,
		"",    // consumer tag
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}
	c.logger.Info().Str("queue", c.queue).Int("concurrency", concurrency).Msg("consumer started")

	g, gCtx := errgroup.WithContext(ctx)
	for i := 0; i < concurrency; i++ {
		g.Go(func() error {
			for {
				select {
				case <-gCtx.Done():
					return nil
				case d, ok := <-deliveries:
					if !ok {
						return errors.New("delivery channel closed by broker")
					}
					c.settle(d, w.HandleDelivery(gCtx, d.Body, d.Redelivered))
				}
			}
		})
	}

	err = g.Wait()
	c.logger.Info().Str("queue", c.queue).Msg("consumer stopped")
	if ctx.Err() != nil {
		return nil
	}
	return err
}

func (c *Consumer) settle(d amqp.Delivery, outcome Outcome) {
	var err error
	switch outcome {
	case Ack:
		err = d.Ack(false)
	case Requeue:
		// A message that already failed once is dropped rather than looping.
		err = d.Nack(false, !d.Redelivered)
	default:
		err = d.Nack(false, false)
	}
	if err != nil {
		c.logger.Error().Err(err).Str("outcome", outcome.String()).Msg("failed to settle delivery")
	}
}

// Close closes the channel and connection.
func (c *Consumer) Close() error {
	if err := c.ch.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
		c.conn.Close()
		return err
	}
	return c.conn.Close()
}
