package service

import (
	"context"

	"NotifyHub/internal/domain"
)

// Anonymous анонимный получатель, привязанный к диспетчеру.
type Anonymous struct {
	*domain.AnonymousNotifiable
	sender domain.NotificationSender
}

// Route добавляет маршрут и возвращает того же получателя.
func (a *Anonymous) Route(channel string, destinations ...string) *Anonymous {
	a.AnonymousNotifiable.Route(channel, destinations...)
	return a
}

// Notify отправляет уведомление по накопленным маршрутам.
func (a *Anonymous) Notify(ctx context.Context, n domain.Notification, opts ...domain.SendOption) error {
	if err := a.Err(); err != nil {
		return err
	}
	return a.sender.Send(ctx, a.AnonymousNotifiable, n, opts...)
}
