package database

import (
	"context"
	"fmt"
	"time"

	"NotifyHub/internal/domain"
)

// Driver драйвер канала database: одна запись на доставку.
type Driver struct {
	repo domain.DatabaseNotificationRepository
	now  func() time.Time
}

// NewDriver создает драйвер поверх хранилища уведомлений.
func NewDriver(repo domain.DatabaseNotificationRepository) *Driver {
	return &Driver{repo: repo, now: time.Now}
}

func (d *Driver) ChannelName() string {
	return domain.ChannelDatabase
}

// Send сохраняет уведомление для получателя.
func (d *Driver) Send(ctx context.Context, notifiable domain.Notifiable, n domain.Notification) error {
	if domain.IsAnonymous(notifiable) {
		return domain.ErrAnonymousDatabaseRoute
	}
	record, err := d.BuildPayload(notifiable, n)
	if err != nil {
		return err
	}
	if err := d.repo.Create(ctx, record); err != nil {
		return fmt.Errorf("store database notification: %w", err)
	}
	return nil
}

// BuildPayload собирает запись для хранилища.
func (d *Driver) BuildPayload(notifiable domain.Notifiable, n domain.Notification) (*domain.DatabaseNotification, error) {
	data, err := domain.DatabaseData(notifiable, n)
	if err != nil {
		return nil, err
	}
	if data == nil {
		data = map[string]interface{}{}
	}
	now := d.now()
	return &domain.DatabaseNotification{
		ID:             n.ID(),
		Type:           domain.TypeOf(n),
		NotifiableID:   notifiable.NotifiableID(),
		NotifiableType: notifiable.NotifiableType(),
		Data:           data,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}
