package notifications_test

import (
	"testing"

	"NotifyHub/internal/domain"
	"NotifyHub/internal/notifications"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnnouncement_Via(t *testing.T) {
	a := notifications.NewAnnouncement("Sale", "50% off")
	assert.Equal(t, []interface{}{"mail", "database"}, a.Via(&domain.User{ID: 1}))

	a.Channels = []string{"slack", "broadcast"}
	assert.Equal(t, []interface{}{"slack", "broadcast"}, a.Via(&domain.User{ID: 1}))
	assert.Equal(t, "announcement", domain.TypeOf(a))
	assert.False(t, domain.WantsQueue(a))

	a.Queued = true
	assert.True(t, domain.WantsQueue(a))
}

func TestAnnouncement_Content(t *testing.T) {
	a := notifications.NewAnnouncement("Sale", "50% off")
	a.ActionURL = "https://shop.example.com"
	user := &domain.User{ID: 1}

	mail, err := domain.MailData(user, a)
	require.NoError(t, err)
	assert.Equal(t, "Sale", mail.Subject)
	assert.Contains(t, mail.HTML(), "https://shop.example.com")
	assert.Contains(t, mail.HTML(), "Open")

	slack, err := domain.SlackData(user, a)
	require.NoError(t, err)
	assert.Equal(t, "*Sale*\n50% off\nhttps://shop.example.com", slack.Text)

	sms, err := domain.VonageData(user, a)
	require.NoError(t, err)
	assert.Equal(t, "50% off", sms.Text)

	event, err := domain.BroadcastData(user, a)
	require.NoError(t, err)
	assert.Equal(t, "announcement", event.Event)
	assert.Equal(t, "Sale", event.Data["subject"])

	data, err := domain.DatabaseData(user, a)
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{
		"subject":    "Sale",
		"message":    "50% off",
		"action_url": "https://shop.example.com",
	}, data)
}

func TestAnnouncement_MailWithoutSubject(t *testing.T) {
	_, err := domain.MailData(&domain.User{ID: 1}, notifications.NewAnnouncement("", "hi"))

	assert.ErrorIs(t, err, domain.ErrNotificationFormat)
}

func TestWelcome(t *testing.T) {
	w := notifications.NewWelcome("Shop", "https://shop.example.com/login")

	assert.Equal(t, []interface{}{"mail", "database"}, w.Via(&domain.User{ID: 1}))
	assert.Equal(t, []interface{}{"mail", "database", "vonage"}, w.Via(&domain.User{ID: 1, Phone: "+15550100"}))

	mail, err := domain.MailData(&domain.User{ID: 1, Name: "Ann"}, w)
	require.NoError(t, err)
	assert.Equal(t, "Welcome to Shop", mail.Subject)
	assert.Contains(t, mail.HTML(), "Hello, Ann!")

	anon := domain.NewAnonymousNotifiable().Route(domain.ChannelMail, "a@example.com")
	mail, err = domain.MailData(anon, w)
	require.NoError(t, err)
	assert.Contains(t, mail.HTML(), "Hello, there!")

	_, err = domain.SlackData(&domain.User{ID: 1}, w)
	assert.ErrorIs(t, err, domain.ErrContentNotImplemented)
}
