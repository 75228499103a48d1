// Package rabbitmq тонкая обертка над amqp091-go: соединение, публикация, потребление.
package rabbitmq

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"NotifyHub/pkg/retry"
	"github.com/rabbitmq/amqp091-go"
)

// ErrClosed клиент закрыт.
var ErrClosed = errors.New("rabbitmq client is closed")

// ClientConfig параметры подключения.
type ClientConfig struct {
	URL            string
	ConnectionName string
	ConnectTimeout time.Duration
	Heartbeat      time.Duration
	// PublishRetry стратегия повторов для подключения и публикации
	PublishRetry retry.Strategy
}

// RabbitClient соединение с брокером с переподключением по требованию.
type RabbitClient struct {
	cfg ClientConfig

	mu     sync.Mutex
	conn   *amqp091.Connection
	closed bool
}

// NewClient подключается к брокеру.
func NewClient(cfg ClientConfig) (*RabbitClient, error) {
	if cfg.URL == "" {
		return nil, errors.New("rabbitmq url is empty")
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 5 * time.Second
	}
	c := &RabbitClient{cfg: cfg}
	if err := retry.Do(c.connect, cfg.PublishRetry); err != nil {
		return nil, fmt.Errorf("connect to rabbitmq: %w", err)
	}
	return c, nil
}

func (c *RabbitClient) connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return retry.Permanent(ErrClosed)
	}
	if c.conn != nil && !c.conn.IsClosed() {
		return nil
	}
	conn, err := amqp091.DialConfig(c.cfg.URL, amqp091.Config{
		Heartbeat:  c.cfg.Heartbeat,
		Properties: amqp091.Table{"connection_name": c.cfg.ConnectionName},
		Dial:       amqp091.DefaultDial(c.cfg.ConnectTimeout),
	})
	if err != nil {
		return err
	}
	c.conn = conn
	return nil
}

// Channel открывает новый канал, при необходимости переподключаясь.
func (c *RabbitClient) Channel() (*amqp091.Channel, error) {
	if err := retry.Do(c.connect, c.cfg.PublishRetry); err != nil {
		return nil, err
	}
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	return conn.Channel()
}

// DeclareQueue объявляет direct exchange, очередь и привязку.
func (c *RabbitClient) DeclareQueue(queue, exchange, routingKey string, durable, autoDelete, exclusive bool,
	args amqp091.Table) error {
	ch, err := c.Channel()
	if err != nil {
		return err
	}
	defer func() { _ = ch.Close() }()

	if exchange != "" {
		if err := ch.ExchangeDeclare(exchange, amqp091.ExchangeDirect, true, false, false, false, nil); err != nil {
			return fmt.Errorf("declare exchange %s: %w", exchange, err)
		}
	}
	if _, err := ch.QueueDeclare(queue, durable, autoDelete, exclusive, false, args); err != nil {
		return fmt.Errorf("declare queue %s: %w", queue, err)
	}
	if exchange != "" {
		if err := ch.QueueBind(queue, routingKey, exchange, false, nil); err != nil {
			return fmt.Errorf("bind queue %s: %w", queue, err)
		}
	}
	return nil
}

// Ping проверяет, что соединение живо и канал открывается.
func (c *RabbitClient) Ping() error {
	ch, err := c.Channel()
	if err != nil {
		return err
	}
	return ch.Close()
}

// Close закрывает соединение.
func (c *RabbitClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	if c.conn == nil || c.conn.IsClosed() {
		return nil
	}
	return c.conn.Close()
}
