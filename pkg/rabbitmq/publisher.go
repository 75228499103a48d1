package rabbitmq

import (
	"context"
	"strconv"
	"sync"
	"time"

	"NotifyHub/pkg/retry"
	"github.com/rabbitmq/amqp091-go"
)

// PublishOption настройка одного сообщения.
type PublishOption func(*amqp091.Publishing)

// WithExpiration задает TTL сообщения.
func WithExpiration(ttl time.Duration) PublishOption {
	return func(p *amqp091.Publishing) {
		if ttl > 0 {
			p.Expiration = strconv.FormatInt(ttl.Milliseconds(), 10)
		}
	}
}

// WithMessageID задает идентификатор сообщения.
func WithMessageID(id string) PublishOption {
	return func(p *amqp091.Publishing) {
		p.MessageId = id
	}
}

// WithHeaders добавляет заголовки.
func WithHeaders(h amqp091.Table) PublishOption {
	return func(p *amqp091.Publishing) {
		p.Headers = h
	}
}

// Publisher публикует сообщения в exchange через общий канал.
type Publisher struct {
	client      *RabbitClient
	exchange    string
	contentType string

	mu sync.Mutex
	ch *amqp091.Channel
}

// NewPublisher создает издателя.
func NewPublisher(client *RabbitClient, exchange, contentType string) *Publisher {
	return &Publisher{client: client, exchange: exchange, contentType: contentType}
}

// Publish публикует persistent сообщение с повторами стратегии клиента.
func (p *Publisher) Publish(ctx context.Context, body []byte, routingKey string, opts ...PublishOption) error {
	msg := amqp091.Publishing{
		ContentType:  p.contentType,
		DeliveryMode: amqp091.Persistent,
		Timestamp:    time.Now(),
		Body:         body,
	}
	for _, opt := range opts {
		opt(&msg)
	}

	return retry.DoContext(ctx, func(ctx context.Context) error {
		ch, err := p.channel()
		if err != nil {
			return err
		}
		if err := ch.PublishWithContext(ctx, p.exchange, routingKey, false, false, msg); err != nil {
			p.reset()
			return err
		}
		return nil
	}, p.client.cfg.PublishRetry)
}

func (p *Publisher) channel() (*amqp091.Channel, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}
	ch, err := p.client.Channel()
	if err != nil {
		return nil, err
	}
	p.ch = ch
	return ch, nil
}

func (p *Publisher) reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
}
