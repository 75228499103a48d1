package email

import (
	"context"
	"encoding/json"
	"fmt"
	"net/mail"

	"NotifyHub/internal/domain"
)

// ErrInvalidAddress адрес получателя не является email.
var ErrInvalidAddress = fmt.Errorf("%w: invalid email address", domain.ErrNotificationFormat)

// Driver драйвер канала mail.
type Driver struct {
	transport domain.MailTransport
	queue     domain.JobQueue
	from      string
}

// NewDriver создает драйвер. queue может быть nil, тогда Queue отправляет сразу.
func NewDriver(transport domain.MailTransport, queue domain.JobQueue, from string) *Driver {
	return &Driver{transport: transport, queue: queue, from: from}
}

func (d *Driver) ChannelName() string {
	return domain.ChannelMail
}

// Send собирает письмо и отправляет его транспортом.
func (d *Driver) Send(ctx context.Context, notifiable domain.Notifiable, n domain.Notification) error {
	e, err := d.build(notifiable, n)
	if err != nil {
		return err
	}
	return d.transport.Send(ctx, e)
}

// Queue собирает письмо сейчас, отправка выполняется воркером.
func (d *Driver) Queue(ctx context.Context, notifiable domain.Notifiable, n domain.Notification) error {
	if d.queue == nil {
		return d.Send(ctx, notifiable, n)
	}
	e, err := d.build(notifiable, n)
	if err != nil {
		return err
	}
	job, err := domain.NewJob(domain.ChannelMail, n, e.To, e)
	if err != nil {
		return err
	}
	return d.queue.Push(ctx, job)
}

// Deliver отправляет письмо из задачи очереди.
func (d *Driver) Deliver(ctx context.Context, job domain.Job) error {
	var e domain.Email
	if err := json.Unmarshal(job.Payload, &e); err != nil {
		return fmt.Errorf("decode mail job %s: %w", job.ID, err)
	}
	return d.transport.Send(ctx, &e)
}

func (d *Driver) build(notifiable domain.Notifiable, n domain.Notification) (*domain.Email, error) {
	msg, err := domain.MailData(notifiable, n)
	if err != nil {
		return nil, err
	}
	route, err := domain.RouteFor(notifiable, domain.ChannelMail, n)
	if err != nil {
		return nil, err
	}

	to := make([]string, 0, len(route))
	for _, rcpt := range route {
		addr, err := mail.ParseAddress(rcpt)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidAddress, rcpt)
		}
		to = append(to, addr.String())
	}
	if len(to) == 0 {
		return nil, &domain.RouteNotImplementedError{Channel: domain.ChannelMail, NotifiableType: notifiable.NotifiableType()}
	}

	from := msg.From
	if from == "" {
		from = d.from
	}
	return &domain.Email{
		From:    from,
		To:      to,
		ReplyTo: msg.ReplyTo,
		Subject: msg.Subject,
		HTML:    msg.HTML(),
		Tag:     domain.TypeOf(n),
	}, nil
}

// envelopeAddress чистый адрес для SMTP конверта.
func envelopeAddress(addr string) string {
	parsed, err := mail.ParseAddress(addr)
	if err != nil {
		return addr
	}
	return parsed.Address
}
