package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"
	"github.com/wb-go/wbf/zlog"
)

// Handler обработчик сообщения. Ошибка приводит к Nack без повторной постановки,
// кроме случая, когда контекст потребителя уже отменен: тогда сообщение возвращается в очередь.
type Handler func(ctx context.Context, msg amqp091.Delivery) error

// ConsumerConfig параметры потребителя.
type ConsumerConfig struct {
	Queue         string
	Consumer      string
	Args          amqp091.Table
	Workers       int
	PrefetchCount int
}

// Consumer читает очередь пулом воркеров.
type Consumer struct {
	client  *RabbitClient
	cfg     ConsumerConfig
	handler Handler
}

// NewConsumer создает потребителя. Пустой тег заменяется уникальным,
// чтобы Cancel при остановке отменял именно эту подписку.
func NewConsumer(client *RabbitClient, cfg ConsumerConfig, handler Handler) *Consumer {
	if cfg.Consumer == "" {
		cfg.Consumer = "notifyhub-" + uuid.NewString()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.PrefetchCount <= 0 {
		cfg.PrefetchCount = cfg.Workers
	}
	return &Consumer{client: client, cfg: cfg, handler: handler}
}

// Start обрабатывает сообщения до отмены контекста или закрытия канала.
func (c *Consumer) Start(ctx context.Context) error {
	ch, err := c.client.Channel()
	if err != nil {
		return err
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(c.cfg.PrefetchCount, 0, false); err != nil {
		return fmt.Errorf("set qos: %w", err)
	}
	deliveries, err := ch.Consume(c.cfg.Queue, c.cfg.Consumer, false, false, false, false, c.cfg.Args)
	if err != nil {
		return fmt.Errorf("consume %s: %w", c.cfg.Queue, err)
	}

	var wg sync.WaitGroup
	for i := 0; i < c.cfg.Workers; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			c.work(ctx, worker, deliveries)
		}(i)
	}

	closed := ch.NotifyClose(make(chan *amqp091.Error, 1))
	var result error
	select {
	case <-ctx.Done():
	case amqpErr := <-closed:
		if amqpErr != nil {
			result = amqpErr
		} else {
			result = errors.New("consumer channel closed")
		}
	}
	_ = ch.Cancel(c.cfg.Consumer, false)
	wg.Wait()
	return result
}

func (c *Consumer) work(ctx context.Context, worker int, deliveries <-chan amqp091.Delivery) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-deliveries:
			if !ok {
				return
			}
			c.process(ctx, worker, msg)
		}
	}
}

// process вызывает обработчик и подтверждает сообщение.
func (c *Consumer) process(ctx context.Context, worker int, msg amqp091.Delivery) {
	err := c.handler(ctx, msg)
	switch {
	case err == nil:
		_ = msg.Ack(false)
	case ctx.Err() != nil:
		zlog.Logger.Warn().Err(err).Int("worker", worker).Str("message_id", msg.MessageId).
			Msg("consumer stopping, message requeued")
		_ = msg.Nack(false, true)
	default:
		zlog.Logger.Error().Err(err).Int("worker", worker).Str("message_id", msg.MessageId).
			Msg("message handling failed")
		_ = msg.Nack(false, false)
	}
}
