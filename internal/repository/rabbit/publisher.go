package rabbit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"NotifyHub/internal/domain"
	"NotifyHub/internal/metrics"
	"NotifyHub/pkg/rabbitmq"
	"github.com/rabbitmq/amqp091-go"
	"github.com/wb-go/wbf/zlog"
)

// Publisher интерфейс публикации, реализуется rabbitmq.Publisher.
type Publisher interface {
	Publish(ctx context.Context, body []byte, routingKey string, opts ...rabbitmq.PublishOption) error
}

// QueueDeclarer объявляет очереди, реализуется rabbitmq.RabbitClient.
type QueueDeclarer interface {
	DeclareQueue(queue, exchange, routingKey string, durable, autoDelete, exclusive bool, args amqp091.Table) error
}

// Topology очередь задач и ее dead letter очередь.
type Topology struct {
	Exchange string
	Queue    string
	DLQ      string
}

// QueueArgs аргументы основной очереди, общие для издателя и потребителя.
func (t Topology) QueueArgs() amqp091.Table {
	return amqp091.Table{
		"x-dead-letter-exchange":    t.Exchange,
		"x-dead-letter-routing-key": t.DLQ,
	}
}

// Declare объявляет dead letter очередь и основную очередь.
func (t Topology) Declare(client QueueDeclarer) error {
	if err := client.DeclareQueue(t.DLQ, t.Exchange, t.DLQ, true, false, false, nil); err != nil {
		return err
	}
	return client.DeclareQueue(t.Queue, t.Exchange, t.Queue, true, false, false, t.QueueArgs())
}

// JobPublisher очередь задач доставки поверх RabbitMQ.
type JobPublisher struct {
	publisher Publisher
	routing   string
	ttl       time.Duration
}

// NewJobPublisher создает очередь задач. ttl ограничивает время жизни задачи в очереди, 0 без ограничения.
func NewJobPublisher(publisher Publisher, topology Topology, ttl time.Duration) *JobPublisher {
	return &JobPublisher{publisher: publisher, routing: topology.Queue, ttl: ttl}
}

// Push публикует задачу канала.
func (p *JobPublisher) Push(ctx context.Context, job domain.Job) error {
	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}

	err = p.publisher.Publish(ctx, body, p.routing,
		rabbitmq.WithMessageID(job.ID.String()),
		rabbitmq.WithHeaders(amqp091.Table{"channel": job.Channel, "notification_type": job.NotificationType}),
		rabbitmq.WithExpiration(p.ttl),
	)
	if err != nil {
		zlog.Logger.Error().Err(err).
			Str("job_id", job.ID.String()).
			Str("channel", job.Channel).
			Msg("failed to publish job")
		metrics.RecordJob(job.Channel, metrics.StatusFailed)
		return err
	}
	metrics.RecordJob(job.Channel, metrics.StatusQueued)
	return nil
}
