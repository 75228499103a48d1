package service

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"time"

	"NotifyHub/internal/domain"
	"NotifyHub/internal/metrics"
	"github.com/google/uuid"
	"github.com/wb-go/wbf/zlog"
)

// Delivery шаг доставки одной записи (получатель, канал).
type Delivery interface {
	Deliver(ctx context.Context, d domain.Dispatch) error
}

// DeliveryFunc адаптер функции к Delivery.
type DeliveryFunc func(ctx context.Context, d domain.Dispatch) error

func (f DeliveryFunc) Deliver(ctx context.Context, d domain.Dispatch) error {
	return f(ctx, d)
}

// driverDelivery вызывает драйвер канала.
type driverDelivery struct{}

func (driverDelivery) Deliver(ctx context.Context, d domain.Dispatch) error {
	if d.Dry {
		return nil
	}
	if domain.WantsQueue(d.Notification) {
		if q, ok := d.Driver.(domain.QueueableChannel); ok {
			return q.Queue(ctx, d.Notifiable, d.Notification)
		}
	}
	return d.Driver.Send(ctx, d.Notifiable, d.Notification)
}

type resolvedChannel struct {
	name   string
	driver domain.Channel
}

// Dispatcher движок рассылки уведомлений.
type Dispatcher struct {
	registry *Registry

	mu       sync.RWMutex
	delivery Delivery
	recorder *Recorder

	newID func() string
}

// NewDispatcher создает диспетчер поверх реестра каналов.
func NewDispatcher(registry *Registry) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		delivery: driverDelivery{},
		newID:    func() string { return uuid.New().String() },
	}
}

// Registry возвращает реестр каналов диспетчера.
func (d *Dispatcher) Registry() *Registry {
	return d.registry
}

// Send рассылает уведомление получателям.
// recipients: domain.Notifiable, []domain.Notifiable или срез значений, реализующих Notifiable.
func (d *Dispatcher) Send(ctx context.Context, recipients interface{}, n domain.Notification,
	opts ...domain.SendOption) error {
	if n == nil || isNilPointer(n) {
		return fmt.Errorf("%w: notification is nil", domain.ErrInvalidNotificationType)
	}

	notifiables, err := normalizeRecipients(recipients)
	if err != nil {
		return err
	}

	o := domain.NewSendOptions(opts...)
	n.AssignID(d.newID())

	for _, notifiable := range notifiables {
		if err := d.sendTo(ctx, notifiable, n, o); err != nil {
			return err
		}
	}
	return nil
}

// Notify отправляет уведомление одному получателю.
func (d *Dispatcher) Notify(ctx context.Context, notifiable domain.Notifiable, n domain.Notification,
	opts ...domain.SendOption) error {
	return d.Send(ctx, notifiable, n, opts...)
}

// Route начинает построение анонимного получателя.
func (d *Dispatcher) Route(channel string, destinations ...string) *Anonymous {
	return &Anonymous{
		AnonymousNotifiable: domain.NewAnonymousNotifiable().Route(channel, destinations...),
		sender:              d,
	}
}

func (d *Dispatcher) sendTo(ctx context.Context, notifiable domain.Notifiable, n domain.Notification,
	o domain.SendOptions) error {
	if b, ok := notifiable.(interface{ Err() error }); ok && b.Err() != nil {
		return b.Err()
	}

	entries := o.Channels
	if len(entries) == 0 {
		entries = n.Via(notifiable)
	}
	if len(entries) == 0 {
		return &domain.ChannelsNotDefinedError{NotificationType: domain.TypeOf(n)}
	}

	// все каналы разрешаются до первой доставки
	channels := make([]resolvedChannel, 0, len(entries))
	for _, entry := range entries {
		name, driver, err := d.registry.Resolve(entry)
		if err != nil {
			return err
		}
		channels = append(channels, resolvedChannel{name: name, driver: driver})
	}

	anonymous := domain.IsAnonymous(notifiable)
	for _, ch := range channels {
		if anonymous && ch.name == domain.ChannelDatabase {
			zlog.Logger.Debug().
				Str("notification_type", domain.TypeOf(n)).
				Msg("skip database channel for anonymous notifiable")
			continue
		}

		dispatch := domain.Dispatch{
			Notifiable:     notifiable,
			Notification:   n,
			NotificationID: n.ID(),
			Channel:        ch.name,
			Driver:         ch.driver,
			Dry:            o.Dry || !n.ShouldSend(),
			FailSilently:   o.FailSilently || n.IgnoreErrors(),
		}
		if err := d.dispatchOrQueue(ctx, dispatch); err != nil {
			return err
		}
	}
	return nil
}

// dispatchOrQueue единственная граница перехвата ошибок доставки.
func (d *Dispatcher) dispatchOrQueue(ctx context.Context, dispatch domain.Dispatch) error {
	start := time.Now()
	err := d.currentDelivery().Deliver(ctx, dispatch)
	if err == nil {
		metrics.RecordDispatch(dispatch.Channel, outcome(dispatch), time.Since(start))
		return nil
	}

	if domain.IsConfigurationError(err) || domain.IsRoutingError(err) {
		metrics.RecordDispatch(dispatch.Channel, metrics.StatusFailed, time.Since(start))
		return err
	}

	if dispatch.FailSilently {
		metrics.RecordDispatch(dispatch.Channel, metrics.StatusSwallowed, time.Since(start))
		zlog.Logger.Error().Err(err).
			Str("channel", dispatch.Channel).
			Str("notification_id", dispatch.NotificationID).
			Str("notification_type", domain.TypeOf(dispatch.Notification)).
			Str("notifiable", dispatch.Notifiable.NotifiableType()+":"+dispatch.Notifiable.NotifiableID()).
			Msg("notification delivery failed silently")
		return nil
	}

	metrics.RecordDispatch(dispatch.Channel, metrics.StatusFailed, time.Since(start))
	return fmt.Errorf("send %s via %s: %w", domain.TypeOf(dispatch.Notification), dispatch.Channel, err)
}

func (d *Dispatcher) currentDelivery() Delivery {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.delivery
}

func outcome(d domain.Dispatch) string {
	if d.Dry {
		return metrics.StatusDry
	}
	if _, ok := d.Driver.(domain.QueueableChannel); ok && domain.WantsQueue(d.Notification) {
		return metrics.StatusQueued
	}
	return metrics.StatusSent
}

var notifiableType = reflect.TypeOf((*domain.Notifiable)(nil)).Elem()

func normalizeRecipients(recipients interface{}) ([]domain.Notifiable, error) {
	switch v := recipients.(type) {
	case nil:
		return nil, fmt.Errorf("%w: recipients are nil", domain.ErrInvalidRecipients)
	case domain.Notifiable:
		if isNilPointer(v) {
			return nil, fmt.Errorf("%w: recipient is nil", domain.ErrInvalidRecipients)
		}
		return []domain.Notifiable{v}, nil
	case []domain.Notifiable:
		return checkRecipients(v)
	}

	rv := reflect.ValueOf(recipients)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, fmt.Errorf("%w: unsupported type %T", domain.ErrInvalidRecipients, recipients)
	}
	out := make([]domain.Notifiable, 0, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		item := rv.Index(i)
		if item.Kind() != reflect.Interface && item.Kind() != reflect.Ptr && item.CanAddr() &&
			item.Addr().Type().Implements(notifiableType) {
			item = item.Addr()
		}
		n, ok := item.Interface().(domain.Notifiable)
		if !ok {
			return nil, fmt.Errorf("%w: element %d of type %s is not notifiable",
				domain.ErrInvalidRecipients, i, item.Type())
		}
		out = append(out, n)
	}
	return checkRecipients(out)
}

func checkRecipients(list []domain.Notifiable) ([]domain.Notifiable, error) {
	for i, n := range list {
		if n == nil || isNilPointer(n) {
			return nil, fmt.Errorf("%w: element %d is nil", domain.ErrInvalidRecipients, i)
		}
	}
	return list, nil
}
