package domain

import (
	"context"
	"strconv"
	"time"
)

// UsersType тип получателя для пользователей.
const UsersType = "users"

// User пользователь, получающий уведомления.
type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	SlackWebhook string    `json:"slack_webhook"`
	CreatedAt    time.Time `json:"created_at"`
}

func (u *User) NotifiableType() string {
	return UsersType
}

func (u *User) NotifiableID() string {
	return strconv.FormatInt(u.ID, 10)
}

func (u *User) EmailAddress() string {
	return u.Email
}

func (u *User) PhoneNumber() string {
	return u.Phone
}

// ReceivesBroadcastOn личный канал пользователя.
func (u *User) ReceivesBroadcastOn() []string {
	return []string{UsersType + "." + u.NotifiableID()}
}

// NotificationRoute slack ведет на вебхук пользователя.
func (u *User) NotificationRoute(channel string, _ Notification) (Route, bool) {
	if channel == ChannelSlack && u.SlackWebhook != "" {
		return Route{u.SlackWebhook}, true
	}
	return nil, false
}

// UserRepository хранилище пользователей.
type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*User, error)
}
