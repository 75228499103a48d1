package domain

import (
	"fmt"
	"sync"
)

// ContentResolver достает содержимое канала из уведомления.
// ok=false означает, что уведомление не реализует хук.
type ContentResolver func(n Notification, notifiable Notifiable) (content interface{}, ok bool)

type contentHook struct {
	method  string
	resolve ContentResolver
}

var (
	hooksMu      sync.RWMutex
	contentHooks = map[string]contentHook{
		ChannelMail: {method: "ToMail", resolve: func(n Notification, r Notifiable) (interface{}, bool) {
			h, ok := n.(MailContent)
			if !ok {
				return nil, false
			}
			return h.ToMail(r), true
		}},
		ChannelSlack: {method: "ToSlack", resolve: func(n Notification, r Notifiable) (interface{}, bool) {
			h, ok := n.(SlackContent)
			if !ok {
				return nil, false
			}
			return h.ToSlack(r), true
		}},
		ChannelVonage: {method: "ToVonage", resolve: func(n Notification, r Notifiable) (interface{}, bool) {
			h, ok := n.(VonageContent)
			if !ok {
				return nil, false
			}
			return h.ToVonage(r), true
		}},
		ChannelBroadcast: {method: "ToBroadcast", resolve: func(n Notification, r Notifiable) (interface{}, bool) {
			h, ok := n.(BroadcastContent)
			if !ok {
				return nil, false
			}
			return h.ToBroadcast(r), true
		}},
		ChannelDatabase: {method: "ToDatabase", resolve: func(n Notification, r Notifiable) (interface{}, bool) {
			h, ok := n.(DatabaseContent)
			if !ok {
				return nil, false
			}
			return h.ToDatabase(r), true
		}},
	}
)

// RegisterContentHook регистрирует хук содержимого для пользовательского канала.
func RegisterContentHook(channel, method string, resolve ContentResolver) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	contentHooks[channel] = contentHook{method: method, resolve: resolve}
}

// ContentMethod имя хука, ожидаемого для канала.
func ContentMethod(channel string) string {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	if h, ok := contentHooks[channel]; ok {
		return h.method
	}
	return "To" + channel
}

// GetData возвращает содержимое уведомления для канала.
func GetData(channel string, notifiable Notifiable, n Notification) (interface{}, error) {
	hooksMu.RLock()
	hook, registered := contentHooks[channel]
	hooksMu.RUnlock()

	if !registered {
		return nil, &ContentNotImplementedError{
			Channel:          channel,
			Method:           ContentMethod(channel),
			NotificationType: TypeOf(n),
		}
	}

	content, ok := hook.resolve(n, notifiable)
	if !ok {
		return nil, &ContentNotImplementedError{Channel: channel, Method: hook.method, NotificationType: TypeOf(n)}
	}
	return content, nil
}

// MailData содержимое канала mail.
func MailData(notifiable Notifiable, n Notification) (*MailMessage, error) {
	data, err := GetData(ChannelMail, notifiable, n)
	if err != nil {
		return nil, err
	}
	msg, _ := data.(*MailMessage)
	if msg == nil {
		return nil, fmt.Errorf("%w: ToMail() returned nil", ErrNotificationFormat)
	}
	return msg, msg.Err()
}

// SlackData содержимое канала slack.
func SlackData(notifiable Notifiable, n Notification) (*SlackMessage, error) {
	data, err := GetData(ChannelSlack, notifiable, n)
	if err != nil {
		return nil, err
	}
	msg, _ := data.(*SlackMessage)
	if msg == nil {
		return nil, fmt.Errorf("%w: ToSlack() returned nil", ErrNotificationFormat)
	}
	return msg, msg.Err()
}

// VonageData содержимое канала vonage.
func VonageData(notifiable Notifiable, n Notification) (*VonageMessage, error) {
	data, err := GetData(ChannelVonage, notifiable, n)
	if err != nil {
		return nil, err
	}
	msg, _ := data.(*VonageMessage)
	if msg == nil {
		return nil, fmt.Errorf("%w: ToVonage() returned nil", ErrNotificationFormat)
	}
	return msg, msg.Err()
}

// BroadcastData содержимое канала broadcast.
func BroadcastData(notifiable Notifiable, n Notification) (*BroadcastMessage, error) {
	data, err := GetData(ChannelBroadcast, notifiable, n)
	if err != nil {
		return nil, err
	}
	msg, _ := data.(*BroadcastMessage)
	if msg == nil {
		return nil, fmt.Errorf("%w: ToBroadcast() returned nil", ErrNotificationFormat)
	}
	return msg, nil
}

// DatabaseData содержимое канала database.
func DatabaseData(notifiable Notifiable, n Notification) (map[string]interface{}, error) {
	data, err := GetData(ChannelDatabase, notifiable, n)
	if err != nil {
		return nil, err
	}
	payload, _ := data.(map[string]interface{})
	return payload, nil
}
