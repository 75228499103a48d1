package domain

import (
	"context"
	"time"
)

// ReadFilter фильтр выборки уведомлений по статусу прочтения.
type ReadFilter string

const (
	FilterAll    ReadFilter = "all"
	FilterRead   ReadFilter = "read"
	FilterUnread ReadFilter = "unread"
)

// IsValid проверяет допустимость фильтра.
func (f ReadFilter) IsValid() bool {
	switch f {
	case FilterAll, FilterRead, FilterUnread:
		return true
	default:
		return false
	}
}

func (f ReadFilter) String() string {
	return string(f)
}

// DatabaseNotification запись канала database.
type DatabaseNotification struct {
	ID             string                 `json:"id"`
	Type           string                 `json:"type"`
	NotifiableID   string                 `json:"notifiable_id"`
	NotifiableType string                 `json:"notifiable_type"`
	Data           map[string]interface{} `json:"data"`
	ReadAt         *time.Time             `json:"read_at"`
	CreatedAt      time.Time              `json:"created_at"`
	UpdatedAt      time.Time              `json:"updated_at"`
}

// IsRead уведомление прочитано.
func (n *DatabaseNotification) IsRead() bool {
	return n.ReadAt != nil
}

// IsUnread уведомление не прочитано.
func (n *DatabaseNotification) IsUnread() bool {
	return n.ReadAt == nil
}

// MarkAsRead отмечает прочтение, если оно еще не отмечено.
func (n *DatabaseNotification) MarkAsRead(now time.Time) {
	if n.ReadAt == nil {
		n.ReadAt = &now
	}
}

// MarkAsUnread сбрасывает отметку о прочтении.
func (n *DatabaseNotification) MarkAsUnread() {
	n.ReadAt = nil
}

// DatabaseNotificationRepository хранилище канала database.
// Идентификатор уведомления общий для всех получателей одного вызова Send,
// поэтому запись адресуется тройкой (тип получателя, id получателя, id).
type DatabaseNotificationRepository interface {
	// Create сохраняет новую запись
	Create(ctx context.Context, n *DatabaseNotification) error
	// Get возвращает запись или ErrNotFound
	Get(ctx context.Context, notifiableType, notifiableID, id string) (*DatabaseNotification, error)
	// ListFor возвращает записи получателя, новые первыми
	ListFor(ctx context.Context, notifiableType, notifiableID string, filter ReadFilter) ([]DatabaseNotification, error)
	MarkAsRead(ctx context.Context, notifiableType, notifiableID string, ids ...string) error
	MarkAsUnread(ctx context.Context, notifiableType, notifiableID string, ids ...string) error
}
