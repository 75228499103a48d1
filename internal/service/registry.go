package service

import (
	"fmt"
	"reflect"
	"sort"
	"sync"

	"NotifyHub/internal/domain"
)

// Factory лениво создает драйвер канала.
type Factory func() (domain.Channel, error)

// Named позволяет пользовательскому драйверу задать имя канала.
type Named interface {
	ChannelName() string
}

// Registry реестр драйверов каналов. Заполняется при старте приложения.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
	drivers   map[string]domain.Channel
}

// NewRegistry создает пустой реестр.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
		drivers:   make(map[string]domain.Channel),
	}
}

// Register регистрирует готовый драйвер под именем канала.
func (r *Registry) Register(name string, driver domain.Channel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.factories, name)
	r.drivers[name] = driver
}

// Extend регистрирует фабрику, драйвер создается при первом обращении.
func (r *Registry) Extend(name string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.drivers, name)
	r.factories[name] = factory
}

// Names возвращает отсортированные имена зарегистрированных каналов.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.drivers)+len(r.factories))
	for name := range r.drivers {
		names = append(names, name)
	}
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve превращает элемент списка каналов в драйвер.
// Допустимы имя канала, значение domain.Channel и func() domain.Channel.
func (r *Registry) Resolve(entry interface{}) (string, domain.Channel, error) {
	switch v := entry.(type) {
	case string:
		driver, err := r.byName(v)
		return v, driver, err
	case domain.Channel:
		if v == nil || isNilPointer(v) {
			return "", nil, &domain.InvalidNotificationTypeError{Channel: "<nil>", Reason: "channel driver is nil"}
		}
		return channelName(v), v, nil
	case func() domain.Channel:
		driver := v()
		if driver == nil || isNilPointer(driver) {
			return "", nil, &domain.InvalidNotificationTypeError{Channel: "<factory>", Reason: "channel factory returned nil"}
		}
		return channelName(driver), driver, nil
	case nil:
		return "", nil, &domain.InvalidNotificationTypeError{Channel: "<nil>", Reason: "channel is nil"}
	default:
		return "", nil, &domain.InvalidNotificationTypeError{
			Channel: fmt.Sprintf("%T", entry),
			Reason:  "value does not implement Send(ctx, notifiable, notification)",
		}
	}
}

// Deliverer возвращает драйвер, умеющий выполнять задачи из очереди.
func (r *Registry) Deliverer(name string) (domain.JobDeliverer, error) {
	driver, err := r.byName(name)
	if err != nil {
		return nil, err
	}
	deliverer, ok := driver.(domain.JobDeliverer)
	if !ok {
		return nil, &domain.InvalidNotificationTypeError{Channel: name, Reason: "driver cannot deliver queued jobs"}
	}
	return deliverer, nil
}

func (r *Registry) byName(name string) (domain.Channel, error) {
	r.mu.RLock()
	driver, ok := r.drivers[name]
	factory, lazy := r.factories[name]
	r.mu.RUnlock()
	if ok {
		return driver, nil
	}
	if !lazy {
		return nil, &domain.InvalidNotificationTypeError{
			Channel: name,
			Reason:  "driver is not registered, use Registry.Register or Registry.Extend",
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if driver, ok := r.drivers[name]; ok {
		return driver, nil
	}
	driver, err := factory()
	if err != nil {
		return nil, fmt.Errorf("create %s driver: %w", name, err)
	}
	if driver == nil {
		return nil, &domain.InvalidNotificationTypeError{Channel: name, Reason: "factory returned nil driver"}
	}
	r.drivers[name] = driver
	delete(r.factories, name)
	return driver, nil
}

func channelName(driver domain.Channel) string {
	if n, ok := driver.(Named); ok && n.ChannelName() != "" {
		return n.ChannelName()
	}
	t := reflect.TypeOf(driver)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

func isNilPointer(v interface{}) bool {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Func, reflect.Slice, reflect.Interface, reflect.Chan:
		return rv.IsNil()
	}
	return false
}
