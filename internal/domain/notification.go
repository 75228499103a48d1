package domain

import (
	"reflect"
	"sync"
)

// Notification контракт уведомления: содержимое и политика отправки.
// Конкретные уведомления встраивают Base и реализуют Via.
type Notification interface {
	// Via возвращает упорядоченный список каналов для получателя.
	// Элемент списка: имя канала (string), готовый драйвер (Channel)
	// или фабрика драйвера (func() Channel).
	Via(notifiable Notifiable) []interface{}
	// ID возвращает идентификатор, назначенный диспетчером.
	ID() string
	// AssignID назначает идентификатор вызова Send, заменяя предыдущий.
	AssignID(id string) bool
	// ShouldSend false после вызова Dry.
	ShouldSend() bool
	// IgnoreErrors true после вызова FailSilently.
	IgnoreErrors() bool
}

// Base общая часть всех уведомлений.
type Base struct {
	mu           sync.Mutex
	id           string
	dry          bool
	failSilently bool
}

// ID возвращает идентификатор уведомления.
func (b *Base) ID() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.id
}

// AssignID устанавливает идентификатор текущей рассылки. Пустой id игнорируется.
func (b *Base) AssignID(id string) bool {
	if id == "" {
		return false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.id = id
	return true
}

// Dry отключает доставку по всем каналам.
func (b *Base) Dry() {
	b.mu.Lock()
	b.dry = true
	b.mu.Unlock()
}

// FailSilently включает подавление ошибок доставки.
func (b *Base) FailSilently() {
	b.mu.Lock()
	b.failSilently = true
	b.mu.Unlock()
}

// ShouldSend сообщает, нужно ли выполнять доставку.
func (b *Base) ShouldSend() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return !b.dry
}

// IgnoreErrors сообщает, подавляются ли ошибки доставки.
func (b *Base) IgnoreErrors() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failSilently
}

// ShouldQueue маркер отложенной доставки через очередь.
type ShouldQueue interface {
	ShouldQueue() bool
}

// Typed позволяет переопределить имя типа уведомления.
type Typed interface {
	NotificationType() string
}

// BroadcastChannels каналы трансляции, заданные самим уведомлением.
type BroadcastChannels interface {
	BroadcastOn() []string
}

// MailContent хук содержимого для канала mail.
type MailContent interface {
	ToMail(notifiable Notifiable) *MailMessage
}

// SlackContent хук содержимого для канала slack.
type SlackContent interface {
	ToSlack(notifiable Notifiable) *SlackMessage
}

// VonageContent хук содержимого для канала vonage.
type VonageContent interface {
	ToVonage(notifiable Notifiable) *VonageMessage
}

// BroadcastContent хук содержимого для канала broadcast.
type BroadcastContent interface {
	ToBroadcast(notifiable Notifiable) *BroadcastMessage
}

// DatabaseContent хук содержимого для канала database.
type DatabaseContent interface {
	ToDatabase(notifiable Notifiable) map[string]interface{}
}

// TypeOf возвращает имя типа уведомления.
func TypeOf(n Notification) string {
	if n == nil {
		return ""
	}
	if t, ok := n.(Typed); ok {
		return t.NotificationType()
	}
	t := reflect.TypeOf(n)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// WantsQueue проверяет маркер ShouldQueue.
func WantsQueue(n Notification) bool {
	q, ok := n.(ShouldQueue)
	return ok && q.ShouldQueue()
}

// SendOptions параметры одного вызова Send.
type SendOptions struct {
	Channels     []interface{}
	Dry          bool
	FailSilently bool
}

// SendOption функция для настройки вызова Send.
type SendOption func(*SendOptions)

// WithChannels явно задает каналы вместо Via.
func WithChannels(channels ...interface{}) SendOption {
	return func(o *SendOptions) {
		o.Channels = append(o.Channels, channels...)
	}
}

// WithDry отключает доставку для вызова.
func WithDry() SendOption {
	return func(o *SendOptions) {
		o.Dry = true
	}
}

// WithFailSilently подавляет ошибки доставки для вызова.
func WithFailSilently() SendOption {
	return func(o *SendOptions) {
		o.FailSilently = true
	}
}

// NewSendOptions собирает параметры из опций.
func NewSendOptions(opts ...SendOption) SendOptions {
	var o SendOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Dispatch запись об одной доставке (получатель, канал).
type Dispatch struct {
	Notifiable     Notifiable
	Notification   Notification
	NotificationID string
	Channel        string
	Driver         Channel
	Dry            bool
	FailSilently   bool
}
