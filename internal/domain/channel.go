package domain

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
)

// Встроенные каналы доставки.
const (
	ChannelMail      = "mail"
	ChannelSlack     = "slack"
	ChannelVonage    = "vonage"
	ChannelBroadcast = "broadcast"
	ChannelDatabase  = "database"
)

// IsBuiltinChannel проверяет, является ли канал встроенным.
func IsBuiltinChannel(name string) bool {
	switch name {
	case ChannelMail, ChannelSlack, ChannelVonage, ChannelBroadcast, ChannelDatabase:
		return true
	default:
		return false
	}
}

// Channel контракт драйвера канала. Драйвер не хранит состояния доставки.
type Channel interface {
	Send(ctx context.Context, notifiable Notifiable, n Notification) error
}

// QueueableChannel драйвер, поддерживающий отложенную доставку.
type QueueableChannel interface {
	Channel
	Queue(ctx context.Context, notifiable Notifiable, n Notification) error
}

// JobDeliverer выполняет задачу, ранее поставленную драйвером в очередь.
type JobDeliverer interface {
	Deliver(ctx context.Context, job Job) error
}

// Job сериализуемая единица работы для очереди.
type Job struct {
	ID               uuid.UUID       `json:"id"`
	Channel          string          `json:"channel"`
	NotificationID   string          `json:"notification_id"`
	NotificationType string          `json:"notification_type"`
	Destinations     []string        `json:"destinations"`
	Payload          json.RawMessage `json:"payload"`
}

// NewJob собирает задачу для канала с уже подготовленным содержимым.
func NewJob(channel string, n Notification, destinations []string, payload interface{}) (Job, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Job{}, err
	}
	return Job{
		ID:               uuid.New(),
		Channel:          channel,
		NotificationID:   n.ID(),
		NotificationType: TypeOf(n),
		Destinations:     destinations,
		Payload:          data,
	}, nil
}

// JobQueue внешняя очередь задач.
type JobQueue interface {
	// Push принимает задачу и гарантирует ее выполнение хотя бы один раз
	Push(ctx context.Context, job Job) error
}

// NotificationSender точка входа диспетчера для прикладного кода.
type NotificationSender interface {
	Send(ctx context.Context, recipients interface{}, n Notification, opts ...SendOption) error
}
