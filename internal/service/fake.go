package service

import (
	"context"
	"fmt"
	"sync"

	"NotifyHub/internal/domain"
	"github.com/stretchr/testify/assert"
)

// Fake подменяет шаг доставки записью в Recorder. Разрешение каналов
// и все ошибки конфигурации сохраняются.
func (d *Dispatcher) Fake() *Recorder {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.recorder == nil {
		d.recorder = NewRecorder()
	}
	d.delivery = d.recorder
	return d.recorder
}

// Restore возвращает реальную доставку через драйверы.
func (d *Dispatcher) Restore() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.delivery = driverDelivery{}
	d.recorder = nil
}

// Faked сообщает, включен ли режим записи.
func (d *Dispatcher) Faked() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.recorder != nil
}

// FakeForTest включает запись на время теста, Restore вызывается в t.Cleanup.
func FakeForTest(t interface{ Cleanup(func()) }, d *Dispatcher) *Recorder {
	r := d.Fake()
	t.Cleanup(d.Restore)
	return r
}

type recordKey struct {
	notifiableType   string
	notifiableID     string
	notificationType string
}

type record struct {
	key      recordKey
	dispatch domain.Dispatch
}

// Recorder журнал доставок в тестовом режиме. Записи хранятся в порядке доставки.
type Recorder struct {
	mu      sync.Mutex
	records []record
}

// NewRecorder создает пустой журнал.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Deliver сохраняет запись вместо вызова драйвера.
func (r *Recorder) Deliver(_ context.Context, d domain.Dispatch) error {
	key := recordKey{
		notifiableType:   d.Notifiable.NotifiableType(),
		notifiableID:     d.Notifiable.NotifiableID(),
		notificationType: domain.TypeOf(d.Notification),
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, record{key: key, dispatch: d})
	return nil
}

// Sent количество всех записанных доставок.
func (r *Recorder) Sent() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}

// Reset очищает журнал.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = nil
}

// DispatchesFor записи для получателя, опционально по типу уведомления.
// recipient: domain.Notifiable или строка маршрута анонимного получателя.
// notificationType: строка или экземпляр domain.Notification.
func (r *Recorder) DispatchesFor(recipient interface{}, notificationType ...interface{}) []domain.Dispatch {
	notifiableType, notifiableID := recipientKey(recipient)
	var wantType string
	if len(notificationType) > 0 {
		wantType = typeKey(notificationType[0])
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Dispatch
	for _, rec := range r.records {
		if rec.key.notifiableType != notifiableType || rec.key.notifiableID != notifiableID {
			continue
		}
		if wantType != "" && rec.key.notificationType != wantType {
			continue
		}
		out = append(out, rec.dispatch)
	}
	return out
}

// NotificationsFor уведомления, отправленные получателю.
func (r *Recorder) NotificationsFor(recipient interface{}, notificationType ...interface{}) []domain.Notification {
	dispatches := r.DispatchesFor(recipient, notificationType...)
	out := make([]domain.Notification, 0, len(dispatches))
	for _, d := range dispatches {
		out = append(out, d.Notification)
	}
	return out
}

// AssertNothingSent проверяет, что журнал пуст.
func (r *Recorder) AssertNothingSent(t assert.TestingT) bool {
	if h, ok := t.(interface{ Helper() }); ok {
		h.Helper()
	}
	return assert.Zero(t, r.Sent(), "expected no notifications to be sent")
}

// AssertSentTo проверяет количество доставок типа notificationType получателю.
// Проверки checks применяются к первой найденной записи.
func (r *Recorder) AssertSentTo(t assert.TestingT, recipient interface{}, notificationType interface{},
	count int, checks ...func(domain.Dispatch) bool) bool {
	if h, ok := t.(interface{ Helper() }); ok {
		h.Helper()
	}
	recipients := []interface{}{recipient}
	if list, ok := recipient.([]domain.Notifiable); ok {
		recipients = recipients[:0]
		for _, n := range list {
			recipients = append(recipients, n)
		}
	}

	result := true
	for _, rcpt := range recipients {
		dispatches := r.DispatchesFor(rcpt, notificationType)
		nt, id := recipientKey(rcpt)
		if !assert.Lenf(t, dispatches, count, "notifications %s sent to %s:%s", typeKey(notificationType), nt, id) {
			result = false
			continue
		}
		if len(dispatches) == 0 {
			continue
		}
		for i, check := range checks {
			if !check(dispatches[0]) {
				result = assert.Failf(t, "notification check failed",
					"check #%d rejected %s sent to %s:%s", i, typeKey(notificationType), nt, id)
			}
		}
	}
	return result
}

func recipientKey(recipient interface{}) (string, string) {
	switch v := recipient.(type) {
	case domain.Notifiable:
		return v.NotifiableType(), v.NotifiableID()
	case string:
		return domain.AnonymousType, v
	default:
		return domain.AnonymousType, fmt.Sprint(v)
	}
}

func typeKey(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case domain.Notification:
		return domain.TypeOf(t)
	default:
		return fmt.Sprintf("%T", v)
	}
}
