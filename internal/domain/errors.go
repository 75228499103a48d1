package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNoRowAffected ошибка, когда ни одна строка не была изменена.
	ErrNoRowAffected = errors.New("no row affected")
	// ErrNotFound ошибка, когда запись не найдена.
	ErrNotFound = errors.New("not found")
)

// Ошибки конфигурации: никогда не подавляются.
var (
	ErrInvalidNotificationType = errors.New("invalid notification type")
	ErrChannelsNotDefined      = errors.New("notification channels not defined")
	ErrAnonymousDatabaseRoute  = errors.New("the database channel does not support on-demand notifications")
	ErrContentNotImplemented   = errors.New("notification content not implemented")
	ErrInvalidRecipients       = errors.New("invalid notification recipients")
	ErrNotificationFormat      = errors.New("notification format error")
)

// Ошибки маршрутизации.
var (
	ErrRouteNotImplemented   = errors.New("notification route not implemented")
	ErrBroadcastOnNotDefined = errors.New("no broadcast channels defined")
)

// Ошибки HTTP слоя.
var (
	// ErrInvalidChannel ошибка невалидного канала уведомления.
	ErrInvalidChannel = errors.New("invalid channel")
	// ErrEmptyRecipient ошибка пустого получателя.
	ErrEmptyRecipient = errors.New("recipient is empty")
	// ErrInvalidFilter ошибка невалидного фильтра прочтения.
	ErrInvalidFilter = errors.New("invalid read filter")
)

// InvalidNotificationTypeError канал не может быть преобразован в драйвер.
type InvalidNotificationTypeError struct {
	Channel string
	Reason  string
}

func (e *InvalidNotificationTypeError) Error() string {
	return fmt.Sprintf("%s %q: %s", ErrInvalidNotificationType, e.Channel, e.Reason)
}

func (e *InvalidNotificationTypeError) Unwrap() error {
	return ErrInvalidNotificationType
}

// ChannelsNotDefinedError уведомление не объявило ни одного канала.
type ChannelsNotDefinedError struct {
	NotificationType string
}

func (e *ChannelsNotDefinedError) Error() string {
	return fmt.Sprintf("%s: %s must return at least one channel from Via()", ErrChannelsNotDefined, e.NotificationType)
}

func (e *ChannelsNotDefinedError) Unwrap() error {
	return ErrChannelsNotDefined
}

// RouteNotImplementedError получатель не может указать адрес для канала.
type RouteNotImplementedError struct {
	Channel        string
	NotifiableType string
}

func (e *RouteNotImplementedError) Error() string {
	return fmt.Sprintf("%s: routing has not been defined for the channel %s on %s",
		ErrRouteNotImplemented, e.Channel, e.NotifiableType)
}

func (e *RouteNotImplementedError) Unwrap() error {
	return ErrRouteNotImplemented
}

// ContentNotImplementedError уведомление не реализует хук содержимого канала.
type ContentNotImplementedError struct {
	Channel          string
	Method           string
	NotificationType string
}

func (e *ContentNotImplementedError) Error() string {
	return fmt.Sprintf("notification %s should implement %s() method for the %s channel",
		e.NotificationType, e.Method, e.Channel)
}

func (e *ContentNotImplementedError) Unwrap() error {
	return ErrContentNotImplemented
}

// IsConfigurationError ошибки программиста, не подлежащие подавлению.
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrInvalidNotificationType) ||
		errors.Is(err, ErrChannelsNotDefined) ||
		errors.Is(err, ErrAnonymousDatabaseRoute) ||
		errors.Is(err, ErrContentNotImplemented) ||
		errors.Is(err, ErrInvalidRecipients)
}

// IsRoutingError получатель не смог предоставить адрес.
func IsRoutingError(err error) bool {
	return errors.Is(err, ErrRouteNotImplemented) || errors.Is(err, ErrBroadcastOnNotDefined)
}
