package email

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"NotifyHub/internal/domain"
	"github.com/mrz1836/postmark"
)

// ErrPostmark ошибка, возвращенная API Postmark.
var ErrPostmark = errors.New("postmark rejected email")

// postmarkAPI часть клиента Postmark, нужная транспорту.
type postmarkAPI interface {
	SendEmail(ctx context.Context, email postmark.Email) (postmark.EmailResponse, error)
}

// PostmarkSender транспорт писем через Postmark.
type PostmarkSender struct {
	client postmarkAPI
}

// NewPostmarkSender создает транспорт по токенам сервера и аккаунта.
func NewPostmarkSender(serverToken, accountToken string) (*PostmarkSender, error) {
	if serverToken == "" {
		return nil, errors.New("postmark server token is required")
	}
	return &PostmarkSender{client: postmark.NewClient(serverToken, accountToken)}, nil
}

// Send отправляет письмо через API Postmark.
func (p *PostmarkSender) Send(ctx context.Context, e *domain.Email) error {
	resp, err := p.client.SendEmail(ctx, postmark.Email{
		From:       e.From,
		To:         strings.Join(e.To, ","),
		ReplyTo:    e.ReplyTo,
		Subject:    e.Subject,
		Tag:        e.Tag,
		HTMLBody:   e.HTML,
		TrackOpens: true,
	})
	if err != nil {
		return fmt.Errorf("postmark send: %w", err)
	}
	if resp.ErrorCode > 0 {
		return fmt.Errorf("%w: %d - %s", ErrPostmark, resp.ErrorCode, resp.Message)
	}
	return nil
}
