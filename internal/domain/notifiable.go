package domain

import "strings"

// AnonymousType тип для анонимных получателей.
const AnonymousType = "__anonymous__"

// Route адреса получателя в конкретном канале.
type Route []string

// First возвращает первый адрес или пустую строку.
func (r Route) First() string {
	if len(r) == 0 {
		return ""
	}
	return r[0]
}

// Notifiable получатель уведомлений.
type Notifiable interface {
	// NotifiableType тип (таблица) получателя
	NotifiableType() string
	// NotifiableID стабильный идентификатор получателя
	NotifiableID() string
}

// RouteResolver получатель, полностью управляющий маршрутизацией.
type RouteResolver interface {
	RouteNotificationFor(channel string, n Notification) (Route, error)
}

// NotificationRouter переопределение маршрута для отдельных каналов.
type NotificationRouter interface {
	NotificationRoute(channel string, n Notification) (Route, bool)
}

// EmailAddresser маршрут по умолчанию для канала mail.
type EmailAddresser interface {
	EmailAddress() string
}

// PhoneNumberer маршрут по умолчанию для канала vonage.
type PhoneNumberer interface {
	PhoneNumber() string
}

// BroadcastReceiver маршрут по умолчанию для канала broadcast.
type BroadcastReceiver interface {
	ReceivesBroadcastOn() []string
}

// IsAnonymous проверяет, является ли получатель анонимным.
func IsAnonymous(notifiable Notifiable) bool {
	a, ok := notifiable.(interface{ IsAnonymous() bool })
	return ok && a.IsAnonymous()
}

// RouteFor определяет адреса получателя для канала.
// Порядок: собственный резолвер, переопределение канала, значение по умолчанию
// для встроенных каналов. Иначе RouteNotImplementedError.
func RouteFor(notifiable Notifiable, channel string, n Notification) (Route, error) {
	if resolver, ok := notifiable.(RouteResolver); ok {
		return resolver.RouteNotificationFor(channel, n)
	}

	if router, ok := notifiable.(NotificationRouter); ok {
		if route, ok := router.NotificationRoute(channel, n); ok {
			return route, nil
		}
	}

	if route, ok := defaultRoute(notifiable, channel); ok {
		return route, nil
	}

	return nil, &RouteNotImplementedError{Channel: channel, NotifiableType: notifiable.NotifiableType()}
}

func defaultRoute(notifiable Notifiable, channel string) (Route, bool) {
	switch channel {
	case ChannelMail:
		if a, ok := notifiable.(EmailAddresser); ok && strings.TrimSpace(a.EmailAddress()) != "" {
			return Route{a.EmailAddress()}, true
		}
	case ChannelVonage:
		if p, ok := notifiable.(PhoneNumberer); ok && strings.TrimSpace(p.PhoneNumber()) != "" {
			return Route{p.PhoneNumber()}, true
		}
	case ChannelBroadcast:
		if b, ok := notifiable.(BroadcastReceiver); ok {
			if channels := b.ReceivesBroadcastOn(); len(channels) > 0 {
				return Route(channels), true
			}
		}
	}
	return nil, false
}
