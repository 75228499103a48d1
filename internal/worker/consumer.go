package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"NotifyHub/internal/domain"
	"NotifyHub/internal/metrics"
	"NotifyHub/internal/repository/rabbit"
	"NotifyHub/pkg/rabbitmq"
	"NotifyHub/pkg/retry"
	"github.com/go-redis/redis/v8"
	"github.com/rabbitmq/amqp091-go"
	"github.com/wb-go/wbf/zlog"
)

const doneKeyPrefix = "job:"

// DelivererSource ищет драйвер, выполняющий задачи канала.
type DelivererSource interface {
	Deliverer(name string) (domain.JobDeliverer, error)
}

// Consumer выполняет задачи доставки из очереди.
type Consumer struct {
	drivers       DelivererSource
	rabbitClient  *rabbitmq.RabbitClient
	cache         domain.Cache
	retryStrategy retry.Strategy
	doneTTL       time.Duration
}

// NewConsumer создает обработчик очереди. cache может быть nil, тогда повторы не отсекаются.
func NewConsumer(drivers DelivererSource, client *rabbitmq.RabbitClient, cache domain.Cache,
	strategy retry.Strategy, doneTTL time.Duration) *Consumer {
	if doneTTL <= 0 {
		doneTTL = 24 * time.Hour
	}
	return &Consumer{
		drivers:       drivers,
		rabbitClient:  client,
		cache:         cache,
		retryStrategy: strategy,
		doneTTL:       doneTTL,
	}
}

// Start читает очередь до отмены контекста.
func (c *Consumer) Start(ctx context.Context, topology rabbit.Topology, workerNum int, prefetchCount int) error {
	consumer := rabbitmq.NewConsumer(c.rabbitClient, rabbitmq.ConsumerConfig{
		Queue:         topology.Queue,
		Args:          topology.QueueArgs(),
		Workers:       workerNum,
		PrefetchCount: prefetchCount,
	}, c.consumerHandler)

	return consumer.Start(ctx)
}

func (c *Consumer) consumerHandler(ctx context.Context, msg amqp091.Delivery) error {
	return c.Handle(ctx, msg.Body)
}

// Handle декодирует и выполняет одну задачу.
func (c *Consumer) Handle(ctx context.Context, body []byte) error {
	var job domain.Job
	if err := json.Unmarshal(body, &job); err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to unmarshal job")
		return err
	}
	log := zlog.Logger.With().
		Str("job_id", job.ID.String()).
		Str("channel", job.Channel).
		Str("notification_id", job.NotificationID).
		Logger()

	if c.alreadyDone(ctx, job) {
		log.Debug().Msg("job already delivered")
		metrics.RecordJob(job.Channel, metrics.StatusDuplicate)
		return nil
	}

	deliverer, err := c.drivers.Deliverer(job.Channel)
	if err != nil {
		log.Error().Err(err).Msg("no deliverer for job")
		metrics.RecordJob(job.Channel, metrics.StatusFailed)
		return err
	}

	err = retry.DoContext(ctx, func(ctx context.Context) error {
		err := deliverer.Deliver(ctx, job)
		if err == nil {
			return nil
		}
		if domain.IsConfigurationError(err) || domain.IsRoutingError(err) ||
			errors.Is(err, domain.ErrNotificationFormat) {
			return retry.Permanent(err)
		}
		log.Debug().Err(err).Msg("job delivery attempt failed")
		return err
	}, c.retryStrategy)
	if err != nil {
		log.Error().Err(err).Msg("failed to deliver job with retry")
		metrics.RecordJob(job.Channel, metrics.StatusFailed)
		return err
	}

	c.markDone(ctx, job)
	metrics.RecordJob(job.Channel, metrics.StatusSent)
	log.Info().Msg("job delivered")
	return nil
}

func (c *Consumer) alreadyDone(ctx context.Context, job domain.Job) bool {
	if c.cache == nil {
		return false
	}
	_, err := c.cache.Get(ctx, doneKeyPrefix+job.ID.String())
	if err == nil {
		return true
	}
	if !errors.Is(err, redis.Nil) {
		zlog.Logger.Warn().Err(err).Msg("failed to check job state in cache")
	}
	return false
}

func (c *Consumer) markDone(ctx context.Context, job domain.Job) {
	if c.cache == nil {
		return
	}
	value := fmt.Sprintf("%d", time.Now().Unix())
	if err := c.cache.SetWithExpiration(ctx, doneKeyPrefix+job.ID.String(), value, c.doneTTL); err != nil {
		zlog.Logger.Warn().Err(err).Msg("failed to save job state in cache")
	}
}
