package domain_test

import (
	"strings"
	"testing"

	"NotifyHub/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestMailMessage_HTML(t *testing.T) {
	msg := domain.NewMailMessage().
		WithSubject("Report").
		Heading("Daily <report>").
		Line("All good").
		Panel("Note").
		Action("Open", "https://example.com/?a=1&b=2", "")

	html := msg.HTML()

	assert.NoError(t, msg.Err())
	assert.Contains(t, html, "<h1>Daily &lt;report&gt;</h1>")
	assert.Contains(t, html, "<p>All good</p>")
	assert.Contains(t, html, `class="panel"`)
	assert.Contains(t, html, `button-success`)
	assert.Contains(t, html, `href="https://example.com/?a=1&amp;b=2"`)
	assert.True(t, strings.Index(html, "<h1>") < strings.Index(html, "<p>"))
}

func TestMailMessage_EmptySubject(t *testing.T) {
	err := domain.NewMailMessage().Line("body").Err()

	assert.ErrorIs(t, err, domain.ErrNotificationFormat)
}

func TestMailMessage_HeaderLineBreaks(t *testing.T) {
	cases := map[string]*domain.MailMessage{
		"subject":  domain.NewMailMessage().WithSubject("Hi\r\nBcc: victim@example.com"),
		"from":     domain.NewMailMessage().WithSubject("Hi").WithFrom("shop@example.com\nBcc: x@example.com"),
		"reply_to": domain.NewMailMessage().WithSubject("Hi").WithReplyTo("help@example.com\r"),
	}
	for name, msg := range cases {
		t.Run(name, func(t *testing.T) {
			err := msg.Err()
			assert.ErrorIs(t, err, domain.ErrNotificationFormat)
			assert.Contains(t, err.Error(), name)
		})
	}

	assert.NoError(t, domain.NewMailMessage().WithSubject("Hi").WithFrom("shop@example.com").Err())
}

func TestSlackMessage_To(t *testing.T) {
	ok := domain.NewSlackMessage().WithText("hi").To("#general")
	assert.NoError(t, ok.Err())
	assert.Equal(t, "#general", ok.Channel)
	assert.Equal(t, "notify-bot", ok.Username)

	bad := domain.NewSlackMessage().To("general")
	assert.ErrorIs(t, bad.Err(), domain.ErrNotificationFormat)
	assert.Empty(t, bad.Channel)
}

func TestVonageMessage(t *testing.T) {
	msg := domain.NewVonageMessage().WithText("code 1234").Unicode().WithClientRef("ref")
	assert.NoError(t, msg.Err())
	assert.Equal(t, "unicode", msg.Type)

	long := domain.NewVonageMessage().WithClientRef(strings.Repeat("x", 41))
	assert.ErrorIs(t, long.Err(), domain.ErrNotificationFormat)
}

func TestBroadcastMessage_With(t *testing.T) {
	msg := domain.NewBroadcastMessage("order.shipped").With("order", 42)

	assert.Equal(t, "order.shipped", msg.Event)
	assert.Equal(t, 42, msg.Data["order"])

	empty := &domain.BroadcastMessage{}
	empty.With("k", "v")
	assert.Equal(t, "v", empty.Data["k"])
}

func TestDatabaseNotification_ReadState(t *testing.T) {
	n := &domain.DatabaseNotification{}
	assert.True(t, n.IsUnread())

	n.MarkAsRead(fixedNow)
	assert.True(t, n.IsRead())
	assert.Equal(t, fixedNow, *n.ReadAt)

	n.MarkAsUnread()
	assert.True(t, n.IsUnread())
}

func TestReadFilter_IsValid(t *testing.T) {
	assert.True(t, domain.FilterAll.IsValid())
	assert.True(t, domain.FilterRead.IsValid())
	assert.True(t, domain.FilterUnread.IsValid())
	assert.False(t, domain.ReadFilter("archived").IsValid())
}
