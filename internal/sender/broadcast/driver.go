package broadcast

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"NotifyHub/internal/domain"
	"github.com/go-redis/redis/v8"
)

// Publisher часть клиента Redis для Pub/Sub.
type Publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// Envelope сообщение, публикуемое в канал.
type Envelope struct {
	ID    string                 `json:"id"`
	Type  string                 `json:"type"`
	Event string                 `json:"event"`
	Data  map[string]interface{} `json:"data"`
}

// Driver драйвер канала broadcast поверх Redis Pub/Sub.
type Driver struct {
	publisher Publisher
	prefix    string
	queue     domain.JobQueue
}

// NewDriver создает драйвер. prefix добавляется к имени каждого канала.
func NewDriver(publisher Publisher, prefix string, queue domain.JobQueue) *Driver {
	return &Driver{publisher: publisher, prefix: prefix, queue: queue}
}

func (d *Driver) ChannelName() string {
	return domain.ChannelBroadcast
}

// Send публикует событие во все каналы трансляции.
func (d *Driver) Send(ctx context.Context, notifiable domain.Notifiable, n domain.Notification) error {
	env, channels, err := d.prepare(notifiable, n)
	if err != nil {
		return err
	}
	return d.publish(ctx, env, channels)
}

// Queue откладывает публикацию.
func (d *Driver) Queue(ctx context.Context, notifiable domain.Notifiable, n domain.Notification) error {
	if d.queue == nil {
		return d.Send(ctx, notifiable, n)
	}
	env, channels, err := d.prepare(notifiable, n)
	if err != nil {
		return err
	}
	job, err := domain.NewJob(domain.ChannelBroadcast, n, channels, env)
	if err != nil {
		return err
	}
	return d.queue.Push(ctx, job)
}

// Deliver выполняет задачу из очереди.
func (d *Driver) Deliver(ctx context.Context, job domain.Job) error {
	var env Envelope
	if err := json.Unmarshal(job.Payload, &env); err != nil {
		return fmt.Errorf("decode broadcast job %s: %w", job.ID, err)
	}
	return d.publish(ctx, &env, job.Destinations)
}

func (d *Driver) prepare(notifiable domain.Notifiable, n domain.Notification) (*Envelope, []string, error) {
	msg, err := domain.BroadcastData(notifiable, n)
	if err != nil {
		return nil, nil, err
	}
	channels, err := Channels(notifiable, n)
	if err != nil {
		return nil, nil, err
	}
	event := msg.Event
	if event == "" {
		event = domain.TypeOf(n)
	}
	return &Envelope{ID: n.ID(), Type: domain.TypeOf(n), Event: event, Data: msg.Data}, channels, nil
}

func (d *Driver) publish(ctx context.Context, env *Envelope, channels []string) error {
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal broadcast payload: %w", err)
	}
	for _, channel := range channels {
		if err := d.publisher.Publish(ctx, d.prefix+channel, data).Err(); err != nil {
			return fmt.Errorf("publish to %s: %w", channel, err)
		}
	}
	return nil
}

// Channels каналы трансляции: BroadcastOn уведомления, затем маршрут получателя.
func Channels(notifiable domain.Notifiable, n domain.Notification) ([]string, error) {
	if b, ok := n.(domain.BroadcastChannels); ok {
		if channels := b.BroadcastOn(); len(channels) > 0 {
			return channels, nil
		}
	}
	route, err := domain.RouteFor(notifiable, domain.ChannelBroadcast, n)
	if err != nil {
		if errors.Is(err, domain.ErrRouteNotImplemented) {
			return nil, fmt.Errorf("%w: define BroadcastOn() on %s or ReceivesBroadcastOn() on %s",
				domain.ErrBroadcastOnNotDefined, domain.TypeOf(n), notifiable.NotifiableType())
		}
		return nil, err
	}
	if len(route) == 0 {
		return nil, domain.ErrBroadcastOnNotDefined
	}
	return route, nil
}
