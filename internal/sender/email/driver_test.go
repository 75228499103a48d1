package email_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"NotifyHub/internal/domain"
	"NotifyHub/internal/sender/email"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockTransport мок транспорта писем
type MockTransport struct {
	mock.Mock
}

func (m *MockTransport) Send(ctx context.Context, e *domain.Email) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

// MockQueue мок очереди задач
type MockQueue struct {
	mock.Mock
}

func (m *MockQueue) Push(ctx context.Context, job domain.Job) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

type orderShipped struct {
	domain.Base
}

func (o *orderShipped) Via(domain.Notifiable) []interface{} {
	return []interface{}{domain.ChannelMail}
}

func (o *orderShipped) ToMail(domain.Notifiable) *domain.MailMessage {
	return domain.NewMailMessage().WithSubject("Shipped").Line("Your order is on the way")
}

type noMail struct {
	domain.Base
}

func (n *noMail) Via(domain.Notifiable) []interface{} { return []interface{}{domain.ChannelMail} }

func TestDriver_Send(t *testing.T) {
	transport := new(MockTransport)
	d := email.NewDriver(transport, nil, "shop@example.com")
	user := &domain.User{ID: 1, Email: "Ann <ann@example.com>"}

	transport.On("Send", mock.Anything, mock.MatchedBy(func(e *domain.Email) bool {
		return e.From == "shop@example.com" &&
			len(e.To) == 1 && e.To[0] == `"Ann" <ann@example.com>` &&
			e.Subject == "Shipped" &&
			e.Tag == "orderShipped"
	})).Return(nil).Once()

	err := d.Send(context.Background(), user, &orderShipped{})

	require.NoError(t, err)
	transport.AssertExpectations(t)
}

func TestDriver_SendAnonymousRoutes(t *testing.T) {
	transport := new(MockTransport)
	d := email.NewDriver(transport, nil, "shop@example.com")
	anon := domain.NewAnonymousNotifiable().Route(domain.ChannelMail, "a@example.com", "b@example.com")

	transport.On("Send", mock.Anything, mock.MatchedBy(func(e *domain.Email) bool {
		return len(e.To) == 2
	})).Return(nil).Once()

	require.NoError(t, d.Send(context.Background(), anon, &orderShipped{}))
	transport.AssertExpectations(t)
}

func TestDriver_SendErrors(t *testing.T) {
	transport := new(MockTransport)
	d := email.NewDriver(transport, nil, "shop@example.com")

	err := d.Send(context.Background(), &domain.User{ID: 1}, &orderShipped{})
	assert.ErrorIs(t, err, domain.ErrRouteNotImplemented)

	err = d.Send(context.Background(), &domain.User{ID: 1, Email: "not-an-address"}, &orderShipped{})
	assert.ErrorIs(t, err, domain.ErrNotificationFormat)

	err = d.Send(context.Background(), &domain.User{ID: 1, Email: "a@example.com"}, &noMail{})
	assert.ErrorIs(t, err, domain.ErrContentNotImplemented)
	assert.Contains(t, err.Error(), "ToMail()")

	transport.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestDriver_QueueAndDeliver(t *testing.T) {
	transport := new(MockTransport)
	queue := new(MockQueue)
	d := email.NewDriver(transport, queue, "shop@example.com")
	n := &orderShipped{}
	n.AssignID("nid-1")

	var pushed domain.Job
	queue.On("Push", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		pushed = args.Get(1).(domain.Job)
	}).Return(nil).Once()

	require.NoError(t, d.Queue(context.Background(), &domain.User{ID: 1, Email: "a@example.com"}, n))
	assert.Equal(t, domain.ChannelMail, pushed.Channel)
	assert.Equal(t, "nid-1", pushed.NotificationID)
	assert.Equal(t, []string{"<a@example.com>"}, pushed.Destinations)
	transport.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)

	body, err := json.Marshal(pushed)
	require.NoError(t, err)
	var decoded domain.Job
	require.NoError(t, json.Unmarshal(body, &decoded))

	transport.On("Send", mock.Anything, mock.MatchedBy(func(e *domain.Email) bool {
		return e.Subject == "Shipped"
	})).Return(nil).Once()
	require.NoError(t, d.Deliver(context.Background(), decoded))
	transport.AssertExpectations(t)
}

func TestDriver_QueueWithoutQueueSends(t *testing.T) {
	transport := new(MockTransport)
	d := email.NewDriver(transport, nil, "shop@example.com")
	transport.On("Send", mock.Anything, mock.Anything).Return(errors.New("smtp down"))

	err := d.Queue(context.Background(), &domain.User{ID: 1, Email: "a@example.com"}, &orderShipped{})

	assert.EqualError(t, err, "smtp down")
}

func TestDriver_DeliverBrokenPayload(t *testing.T) {
	d := email.NewDriver(new(MockTransport), nil, "")

	err := d.Deliver(context.Background(), domain.Job{Channel: domain.ChannelMail, Payload: json.RawMessage(`[1]`)})

	assert.Error(t, err)
}
