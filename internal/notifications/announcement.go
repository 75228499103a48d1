// Package notifications прикладные уведомления сервиса.
package notifications

import (
	"NotifyHub/internal/domain"
)

// Announcement произвольное сообщение, которое умеет отдавать содержимое для всех встроенных каналов.
type Announcement struct {
	domain.Base

	Subject    string
	Message    string
	ActionText string
	ActionURL  string
	// Channels каналы доставки, пусто означает mail и database
	Channels []string
	Queued   bool
}

// NewAnnouncement создает объявление.
func NewAnnouncement(subject, message string) *Announcement {
	return &Announcement{Subject: subject, Message: message}
}

func (a *Announcement) NotificationType() string {
	return "announcement"
}

func (a *Announcement) Via(notifiable domain.Notifiable) []interface{} {
	channels := a.Channels
	if len(channels) == 0 {
		channels = []string{domain.ChannelMail, domain.ChannelDatabase}
	}
	out := make([]interface{}, 0, len(channels))
	for _, ch := range channels {
		out = append(out, ch)
	}
	return out
}

func (a *Announcement) ShouldQueue() bool {
	return a.Queued
}

func (a *Announcement) ToMail(_ domain.Notifiable) *domain.MailMessage {
	msg := domain.NewMailMessage().
		WithSubject(a.Subject).
		Heading(a.Subject).
		Line(a.Message)
	if a.ActionURL != "" {
		text := a.ActionText
		if text == "" {
			text = "Open"
		}
		msg.Action(text, a.ActionURL, "")
	}
	return msg
}

func (a *Announcement) ToSlack(_ domain.Notifiable) *domain.SlackMessage {
	text := a.Message
	if a.Subject != "" {
		text = "*" + a.Subject + "*\n" + a.Message
	}
	if a.ActionURL != "" {
		text += "\n" + a.ActionURL
	}
	return domain.NewSlackMessage().WithText(text)
}

func (a *Announcement) ToVonage(_ domain.Notifiable) *domain.VonageMessage {
	return domain.NewVonageMessage().WithText(a.Message)
}

func (a *Announcement) ToBroadcast(_ domain.Notifiable) *domain.BroadcastMessage {
	return domain.NewBroadcastMessage("announcement").
		With("subject", a.Subject).
		With("message", a.Message).
		With("action_url", a.ActionURL)
}

func (a *Announcement) ToDatabase(_ domain.Notifiable) map[string]interface{} {
	data := map[string]interface{}{
		"subject": a.Subject,
		"message": a.Message,
	}
	if a.ActionURL != "" {
		data["action_url"] = a.ActionURL
	}
	return data
}
