package domain

import (
	"context"
	"time"
)

// Email готовое письмо для транспорта.
type Email struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	ReplyTo string   `json:"reply_to,omitempty"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
	Tag     string   `json:"tag,omitempty"`
}

// MailTransport интерфейс для отправки писем (SMTP, Postmark).
type MailTransport interface {
	Send(ctx context.Context, e *Email) error
}

// Cache интерфейс кеша поверх Redis.
type Cache interface {
	// Get получает значение по ключу, промах возвращает redis.Nil
	Get(ctx context.Context, key string) (string, error)
	// SetWithExpiration устанавливает значение с временем жизни.
	SetWithExpiration(ctx context.Context, key string, value interface{}, expiration time.Duration) error
}
