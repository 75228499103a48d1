package domain

import "context"

// UserService поиск пользователей-получателей.
type UserService interface {
	GetByID(ctx context.Context, id int64) (*User, error)
}

// InboxService работа с уведомлениями канала database.
type InboxService interface {
	List(ctx context.Context, notifiable Notifiable, filter ReadFilter) ([]DatabaseNotification, error)
	MarkAsRead(ctx context.Context, notifiable Notifiable, id string) (*DatabaseNotification, error)
	MarkAsUnread(ctx context.Context, notifiable Notifiable, id string) (*DatabaseNotification, error)
}
