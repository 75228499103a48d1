package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"NotifyHub/internal/domain"
	"NotifyHub/internal/metrics"
	"github.com/wb-go/wbf/zlog"
	"golang.org/x/time/rate"
)

const (
	webhookPrefix  = "https://hooks.slack.com"
	defaultAPIURL  = "https://slack.com/api/chat.postMessage"
	defaultTimeout = 10 * time.Second
)

type mode int

const (
	webhookMode mode = iota + 1
	apiMode
)

// Config параметры драйвера Slack.
type Config struct {
	// Token токен бота, нужен только для отправки через API
	Token   string
	APIURL  string
	Timeout time.Duration
	// RateLimit запросов в секунду, 0 без ограничения
	RateLimit float64
	Burst     int
}

// Driver драйвер канала slack: вебхуки или chat.postMessage.
type Driver struct {
	cfg     Config
	client  *http.Client
	limiter *rate.Limiter
	queue   domain.JobQueue
}

// Option настройка драйвера.
type Option func(*Driver)

// WithHTTPClient задает HTTP клиент.
func WithHTTPClient(c *http.Client) Option {
	return func(d *Driver) {
		d.client = c
	}
}

// WithQueue включает отложенную отправку.
func WithQueue(q domain.JobQueue) Option {
	return func(d *Driver) {
		d.queue = q
	}
}

// NewDriver создает драйвер Slack.
func NewDriver(cfg Config, opts ...Option) *Driver {
	if cfg.APIURL == "" {
		cfg.APIURL = defaultAPIURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	d := &Driver{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Inf, 0),
	}
	if cfg.RateLimit > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		d.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Driver) ChannelName() string {
	return domain.ChannelSlack
}

// Send отправляет сообщение по всем адресам получателя.
func (d *Driver) Send(ctx context.Context, notifiable domain.Notifiable, n domain.Notification) error {
	msg, route, err := d.prepare(notifiable, n)
	if err != nil {
		return err
	}
	return d.deliver(ctx, msg, route)
}

// Queue готовит сообщение и ставит задачу в очередь.
func (d *Driver) Queue(ctx context.Context, notifiable domain.Notifiable, n domain.Notification) error {
	if d.queue == nil {
		return d.Send(ctx, notifiable, n)
	}
	msg, route, err := d.prepare(notifiable, n)
	if err != nil {
		return err
	}
	job, err := domain.NewJob(domain.ChannelSlack, n, route, msg)
	if err != nil {
		return err
	}
	return d.queue.Push(ctx, job)
}

// Deliver выполняет задачу из очереди.
func (d *Driver) Deliver(ctx context.Context, job domain.Job) error {
	var msg domain.SlackMessage
	if err := json.Unmarshal(job.Payload, &msg); err != nil {
		return fmt.Errorf("decode slack job %s: %w", job.ID, err)
	}
	if _, err := sendingMode(job.Destinations); err != nil {
		return err
	}
	return d.deliver(ctx, &msg, job.Destinations)
}

func (d *Driver) prepare(notifiable domain.Notifiable, n domain.Notification) (*domain.SlackMessage, []string, error) {
	msg, err := domain.SlackData(notifiable, n)
	if err != nil {
		return nil, nil, err
	}
	route, err := domain.RouteFor(notifiable, domain.ChannelSlack, n)
	if err != nil {
		return nil, nil, err
	}
	if len(route) == 0 {
		return nil, nil, &domain.RouteNotImplementedError{Channel: domain.ChannelSlack, NotifiableType: notifiable.NotifiableType()}
	}
	m, err := sendingMode(route)
	if err != nil {
		return nil, nil, err
	}
	if m == apiMode && d.cfg.Token == "" {
		return nil, nil, ErrMissingToken
	}
	return msg, route, nil
}

func (d *Driver) deliver(ctx context.Context, msg *domain.SlackMessage, destinations []string) error {
	for _, dest := range destinations {
		if err := d.wait(ctx); err != nil {
			return err
		}
		var err error
		if strings.HasPrefix(dest, webhookPrefix) {
			err = d.postWebhook(ctx, dest, msg)
		} else {
			err = d.postAPI(ctx, dest, msg)
		}
		if err != nil {
			zlog.Logger.Debug().Err(err).Str("channel", msg.Channel).Msg("slack delivery failed")
			return err
		}
	}
	return nil
}

func (d *Driver) wait(ctx context.Context) error {
	start := time.Now()
	if err := d.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("slack rate limiter: %w", err)
	}
	if waited := time.Since(start); waited > time.Millisecond {
		metrics.RecordRateLimitWait(domain.ChannelSlack, waited)
	}
	return nil
}

func (d *Driver) postWebhook(ctx context.Context, url string, msg *domain.SlackMessage) error {
	resp, body, err := d.post(ctx, url, msg, "")
	if err != nil {
		return err
	}
	if resp.StatusCode == http.StatusOK {
		return nil
	}
	return d.statusError(resp, body, msg.Channel)
}

type apiResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

func (d *Driver) postAPI(ctx context.Context, channel string, msg *domain.SlackMessage) error {
	payload := *msg
	payload.Channel = channel
	resp, body, err := d.post(ctx, d.cfg.APIURL, &payload, d.cfg.Token)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return d.statusError(resp, body, channel)
	}

	var r apiResponse
	if err := json.Unmarshal(body, &r); err != nil {
		return fmt.Errorf("decode slack api response: %w", err)
	}
	if r.OK {
		return nil
	}
	if typed := classify(r.Error, channel); typed != nil {
		return typed
	}
	return &StatusError{StatusCode: resp.StatusCode, Body: r.Error}
}

func (d *Driver) post(ctx context.Context, url string, msg *domain.SlackMessage, token string) (*http.Response, []byte, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal slack payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, nil, fmt.Errorf("create http request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("execute http request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return nil, nil, fmt.Errorf("read slack response: %w", err)
	}
	return resp, body, nil
}

func (d *Driver) statusError(resp *http.Response, body []byte, channel string) error {
	if resp.StatusCode == http.StatusTooManyRequests {
		retryAfter := time.Second
		if s, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && s > 0 {
			retryAfter = time.Duration(s) * time.Second
		}
		return &RateLimitError{RetryAfter: retryAfter}
	}
	text := strings.TrimSpace(string(body))
	if typed := classify(text, channel); typed != nil {
		return typed
	}
	return &StatusError{StatusCode: resp.StatusCode, Body: text}
}

func sendingMode(destinations []string) (mode, error) {
	var found mode
	for _, dest := range destinations {
		m := apiMode
		if strings.HasPrefix(dest, webhookPrefix) {
			m = webhookMode
		}
		if found != 0 && found != m {
			return 0, ErrMixedModes
		}
		found = m
	}
	return found, nil
}
