package vonage_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"NotifyHub/internal/domain"
	"NotifyHub/internal/sender/vonage"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type codeSMS struct {
	domain.Base
	text string
}

func (c *codeSMS) Via(domain.Notifiable) []interface{} {
	return []interface{}{domain.ChannelVonage}
}

func (c *codeSMS) ToVonage(domain.Notifiable) *domain.VonageMessage {
	return domain.NewVonageMessage().WithText(c.text).WithClientRef("order-1")
}

type gateway struct {
	mu    sync.Mutex
	forms []url.Values
}

func (g *gateway) record(r *http.Request) {
	_ = r.ParseForm()
	g.mu.Lock()
	g.forms = append(g.forms, r.PostForm)
	g.mu.Unlock()
}

func (g *gateway) calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.forms)
}

func newDriver(t *testing.T, handler http.HandlerFunc, cfg vonage.Config) *vonage.Driver {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	cfg.Key, cfg.Secret, cfg.Endpoint = "key", "secret", srv.URL
	if cfg.From == "" {
		cfg.From = "NotifyHub"
	}
	d, err := vonage.NewDriver(cfg)
	require.NoError(t, err)
	return d
}

func TestNewDriver_MissingCredentials(t *testing.T) {
	_, err := vonage.NewDriver(vonage.Config{Key: "key"})
	assert.ErrorIs(t, err, vonage.ErrMissingCredentials)
}

func TestDriver_Send(t *testing.T) {
	gw := &gateway{}
	d := newDriver(t, func(w http.ResponseWriter, r *http.Request) {
		gw.record(r)
		_, _ = w.Write([]byte(`{"message-count":"1","messages":[{"to":"79990001122","status":"0"}]}`))
	}, vonage.Config{})

	err := d.Send(context.Background(), &domain.User{ID: 1, Phone: "+7 (999) 000-11-22"}, &codeSMS{text: "code 1234"})

	require.NoError(t, err)
	require.Equal(t, 1, gw.calls())
	form := gw.forms[0]
	assert.Equal(t, "key", form.Get("api_key"))
	assert.Equal(t, "secret", form.Get("api_secret"))
	assert.Equal(t, "NotifyHub", form.Get("from"))
	assert.Equal(t, "79990001122", form.Get("to"))
	assert.Equal(t, "code 1234", form.Get("text"))
	assert.Equal(t, "text", form.Get("type"))
	assert.Equal(t, "order-1", form.Get("client-ref"))
}

func TestDriver_SendAPIError(t *testing.T) {
	d := newDriver(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"messages":[{"to":"100","status":"2","error-text":"Missing to param"}]}`))
	}, vonage.Config{})

	err := d.Send(context.Background(), domain.NewAnonymousNotifiable().Route(domain.ChannelVonage, "100"), &codeSMS{text: "hi"})

	var apiErr *vonage.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "2", apiErr.Status)
	assert.Equal(t, "Missing to param", apiErr.Text)
	assert.False(t, apiErr.Temporary())
}

func TestDriver_SendBadRequest(t *testing.T) {
	d := newDriver(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte("bad credentials"))
	}, vonage.Config{})

	err := d.Send(context.Background(), domain.NewAnonymousNotifiable().Route(domain.ChannelVonage, "100"), &codeSMS{text: "hi"})

	var apiErr *vonage.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "401", apiErr.Status)
}

// truncatedBody обещает длинный ответ и обрывает соединение после первых байт.
func truncatedBody(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Length", "1024")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"ok":`))
	w.(http.Flusher).Flush()
	conn, _, err := w.(http.Hijacker).Hijack()
	if err == nil {
		_ = conn.Close()
	}
}

func TestDriver_SendTruncatedResponse(t *testing.T) {
	d := newDriver(t, truncatedBody, vonage.Config{})

	err := d.Send(context.Background(), domain.NewAnonymousNotifiable().Route(domain.ChannelVonage, "100"), &codeSMS{text: "hi"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "read vonage response")
	var apiErr *vonage.APIError
	assert.False(t, errors.As(err, &apiErr))
}

func TestDriver_BreakerOpensOnServerErrors(t *testing.T) {
	gw := &gateway{}
	d := newDriver(t, func(w http.ResponseWriter, r *http.Request) {
		gw.record(r)
		w.WriteHeader(http.StatusServiceUnavailable)
	}, vonage.Config{BreakerFailures: 2, BreakerTimeout: time.Minute})
	anon := domain.NewAnonymousNotifiable().Route(domain.ChannelVonage, "100")

	for i := 0; i < 2; i++ {
		err := d.Send(context.Background(), anon, &codeSMS{text: "hi"})
		var se *vonage.ServerError
		require.True(t, errors.As(err, &se))
		assert.Equal(t, http.StatusServiceUnavailable, se.StatusCode)
	}

	err := d.Send(context.Background(), anon, &codeSMS{text: "hi"})

	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, 2, gw.calls())
}

func TestDriver_APIErrorsDoNotTripBreaker(t *testing.T) {
	d := newDriver(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"messages":[{"status":"3","error-text":"Invalid params"}]}`))
	}, vonage.Config{BreakerFailures: 1})
	anon := domain.NewAnonymousNotifiable().Route(domain.ChannelVonage, "100")

	for i := 0; i < 3; i++ {
		err := d.Send(context.Background(), anon, &codeSMS{text: "hi"})
		var apiErr *vonage.APIError
		assert.True(t, errors.As(err, &apiErr))
	}
}

func TestDriver_PrepareErrors(t *testing.T) {
	gw := &gateway{}
	d := newDriver(t, func(w http.ResponseWriter, r *http.Request) { gw.record(r) }, vonage.Config{})

	err := d.Send(context.Background(), domain.NewAnonymousNotifiable().Route(domain.ChannelVonage, "100"), &codeSMS{})
	assert.ErrorIs(t, err, vonage.ErrInvalidMessage)
	assert.ErrorIs(t, err, domain.ErrNotificationFormat)

	err = d.Send(context.Background(), &domain.User{ID: 1}, &codeSMS{text: "hi"})
	assert.ErrorIs(t, err, domain.ErrRouteNotImplemented)

	err = d.Send(context.Background(), domain.NewAnonymousNotifiable().Route(domain.ChannelVonage, "n/a"), &codeSMS{text: "hi"})
	assert.ErrorIs(t, err, domain.ErrRouteNotImplemented)

	assert.Zero(t, gw.calls())
}

type capture struct {
	jobs []domain.Job
}

func (c *capture) Push(_ context.Context, job domain.Job) error {
	c.jobs = append(c.jobs, job)
	return nil
}

func TestDriver_QueueThenDeliver(t *testing.T) {
	gw := &gateway{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gw.record(r)
		_, _ = w.Write([]byte(`{"messages":[{"status":"0"}]}`))
	}))
	defer srv.Close()
	queue := &capture{}
	d, err := vonage.NewDriver(vonage.Config{Key: "k", Secret: "s", From: "Shop", Endpoint: srv.URL}, vonage.WithQueue(queue))
	require.NoError(t, err)

	require.NoError(t, d.Queue(context.Background(), domain.NewAnonymousNotifiable().Route(domain.ChannelVonage, "+1 555 0100"), &codeSMS{text: "hi"}))
	require.Len(t, queue.jobs, 1)
	assert.Equal(t, []string{"15550100"}, queue.jobs[0].Destinations)
	assert.Zero(t, gw.calls())

	require.NoError(t, d.Deliver(context.Background(), queue.jobs[0]))
	require.Equal(t, 1, gw.calls())
	assert.Equal(t, "Shop", gw.forms[0].Get("from"))
}
