package notifications

import (
	"fmt"

	"NotifyHub/internal/domain"
)

// Welcome приветствие нового пользователя.
type Welcome struct {
	domain.Base

	AppName  string
	LoginURL string
}

// NewWelcome создает приветствие.
func NewWelcome(appName, loginURL string) *Welcome {
	return &Welcome{AppName: appName, LoginURL: loginURL}
}

func (w *Welcome) NotificationType() string {
	return "welcome"
}

// Via почта всегда, SMS только если у пользователя есть телефон.
func (w *Welcome) Via(notifiable domain.Notifiable) []interface{} {
	channels := []interface{}{domain.ChannelMail, domain.ChannelDatabase}
	if p, ok := notifiable.(domain.PhoneNumberer); ok && p.PhoneNumber() != "" {
		channels = append(channels, domain.ChannelVonage)
	}
	return channels
}

func (w *Welcome) ToMail(notifiable domain.Notifiable) *domain.MailMessage {
	return domain.NewMailMessage().
		WithSubject(fmt.Sprintf("Welcome to %s", w.AppName)).
		Heading(fmt.Sprintf("Hello, %s!", displayName(notifiable))).
		Line(fmt.Sprintf("Your %s account is ready.", w.AppName)).
		Action("Sign in", w.LoginURL, "")
}

func (w *Welcome) ToVonage(_ domain.Notifiable) *domain.VonageMessage {
	return domain.NewVonageMessage().WithText(fmt.Sprintf("Welcome to %s!", w.AppName))
}

func (w *Welcome) ToDatabase(_ domain.Notifiable) map[string]interface{} {
	return map[string]interface{}{
		"app":       w.AppName,
		"login_url": w.LoginURL,
	}
}

func displayName(notifiable domain.Notifiable) string {
	if u, ok := notifiable.(*domain.User); ok && u.Name != "" {
		return u.Name
	}
	return "there"
}
