package domain_test

import (
	"testing"
	"time"

	"NotifyHub/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

type mailOnly struct {
	domain.Base
	subject string
}

func (m *mailOnly) Via(domain.Notifiable) []interface{} {
	return []interface{}{domain.ChannelMail}
}

func (m *mailOnly) ToMail(domain.Notifiable) *domain.MailMessage {
	if m.subject == "nil" {
		return nil
	}
	return domain.NewMailMessage().WithSubject(m.subject).Line("hello")
}

type pagerNotification struct {
	domain.Base
}

func (p *pagerNotification) Via(domain.Notifiable) []interface{} { return []interface{}{"pager"} }

func (p *pagerNotification) ToPager(domain.Notifiable) string { return "beep" }

func TestGetData_MissingHook(t *testing.T) {
	_, err := domain.SlackData(&domain.User{ID: 1}, &mailOnly{subject: "x"})

	var contentErr *domain.ContentNotImplementedError
	require.ErrorAs(t, err, &contentErr)
	assert.Equal(t, "ToSlack", contentErr.Method)
	assert.Equal(t, "mailOnly", contentErr.NotificationType)
}

func TestMailData(t *testing.T) {
	msg, err := domain.MailData(&domain.User{ID: 1}, &mailOnly{subject: "Hi"})
	require.NoError(t, err)
	assert.Equal(t, "Hi", msg.Subject)

	_, err = domain.MailData(&domain.User{ID: 1}, &mailOnly{subject: ""})
	assert.ErrorIs(t, err, domain.ErrNotificationFormat)

	_, err = domain.MailData(&domain.User{ID: 1}, &mailOnly{subject: "nil"})
	assert.ErrorIs(t, err, domain.ErrNotificationFormat)
}

func TestGetData_CustomChannel(t *testing.T) {
	_, err := domain.GetData("pager", &domain.User{ID: 1}, &pagerNotification{})
	assert.ErrorIs(t, err, domain.ErrContentNotImplemented)
	assert.Equal(t, "Topager", domain.ContentMethod("pager"))

	domain.RegisterContentHook("pager", "ToPager", func(n domain.Notification, r domain.Notifiable) (interface{}, bool) {
		p, ok := n.(interface{ ToPager(domain.Notifiable) string })
		if !ok {
			return nil, false
		}
		return p.ToPager(r), true
	})

	data, err := domain.GetData("pager", &domain.User{ID: 1}, &pagerNotification{})
	require.NoError(t, err)
	assert.Equal(t, "beep", data)
	assert.Equal(t, "ToPager", domain.ContentMethod("pager"))
}
