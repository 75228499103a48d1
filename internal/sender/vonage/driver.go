package vonage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"NotifyHub/internal/domain"
	"NotifyHub/internal/metrics"
	"github.com/sony/gobreaker"
	"github.com/wb-go/wbf/zlog"
)

const defaultEndpoint = "https://rest.nexmo.com/sms/json"

// Config параметры SMS шлюза.
type Config struct {
	Key      string
	Secret   string
	From     string
	Endpoint string
	Timeout  time.Duration
	// BreakerFailures подряд идущих сбоев до размыкания
	BreakerFailures uint32
	BreakerTimeout  time.Duration
}

// Driver драйвер канала vonage.
type Driver struct {
	cfg     Config
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
	queue   domain.JobQueue
}

// Option настройка драйвера.
type Option func(*Driver)

func WithHTTPClient(c *http.Client) Option {
	return func(d *Driver) {
		d.client = c
	}
}

func WithQueue(q domain.JobQueue) Option {
	return func(d *Driver) {
		d.queue = q
	}
}

// NewDriver создает драйвер SMS.
func NewDriver(cfg Config, opts ...Option) (*Driver, error) {
	if cfg.Key == "" || cfg.Secret == "" {
		return nil, ErrMissingCredentials
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = defaultEndpoint
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.BreakerFailures == 0 {
		cfg.BreakerFailures = 5
	}
	if cfg.BreakerTimeout <= 0 {
		cfg.BreakerTimeout = 30 * time.Second
	}

	failures := cfg.BreakerFailures
	d := &Driver{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "vonage",
			Timeout: cfg.BreakerTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= failures
			},
			OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
				zlog.Logger.Warn().
					Str("circuit", name).
					Str("from", from.String()).
					Str("to", to.String()).
					Msg("circuit breaker state changed")
				metrics.SetCircuitBreakerState(domain.ChannelVonage, int(to))
			},
		}),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

func (d *Driver) ChannelName() string {
	return domain.ChannelVonage
}

// Send отправляет SMS на все номера получателя.
func (d *Driver) Send(ctx context.Context, notifiable domain.Notifiable, n domain.Notification) error {
	msg, numbers, err := d.prepare(notifiable, n)
	if err != nil {
		return err
	}
	return d.deliver(ctx, msg, numbers)
}

// Queue готовит SMS и ставит задачу в очередь.
func (d *Driver) Queue(ctx context.Context, notifiable domain.Notifiable, n domain.Notification) error {
	if d.queue == nil {
		return d.Send(ctx, notifiable, n)
	}
	msg, numbers, err := d.prepare(notifiable, n)
	if err != nil {
		return err
	}
	job, err := domain.NewJob(domain.ChannelVonage, n, numbers, msg)
	if err != nil {
		return err
	}
	return d.queue.Push(ctx, job)
}

// Deliver выполняет задачу из очереди.
func (d *Driver) Deliver(ctx context.Context, job domain.Job) error {
	var msg domain.VonageMessage
	if err := json.Unmarshal(job.Payload, &msg); err != nil {
		return fmt.Errorf("decode vonage job %s: %w", job.ID, err)
	}
	return d.deliver(ctx, &msg, job.Destinations)
}

func (d *Driver) prepare(notifiable domain.Notifiable, n domain.Notification) (*domain.VonageMessage, []string, error) {
	msg, err := domain.VonageData(notifiable, n)
	if err != nil {
		return nil, nil, err
	}
	if msg.From == "" {
		msg.From = d.cfg.From
	}
	if strings.TrimSpace(msg.Text) == "" || msg.From == "" {
		return nil, nil, fmt.Errorf("%w: text and from are required", ErrInvalidMessage)
	}

	route, err := domain.RouteFor(notifiable, domain.ChannelVonage, n)
	if err != nil {
		return nil, nil, err
	}
	numbers := make([]string, 0, len(route))
	for _, number := range route {
		if normalized := normalizePhone(number); normalized != "" {
			numbers = append(numbers, normalized)
		}
	}
	if len(numbers) == 0 {
		return nil, nil, &domain.RouteNotImplementedError{Channel: domain.ChannelVonage, NotifiableType: notifiable.NotifiableType()}
	}
	return msg, numbers, nil
}

type smsResponse struct {
	Messages []struct {
		To        string `json:"to"`
		Status    string `json:"status"`
		ErrorText string `json:"error-text"`
	} `json:"messages"`
}

func (d *Driver) deliver(ctx context.Context, msg *domain.VonageMessage, numbers []string) error {
	for _, to := range numbers {
		// ошибки API не размыкают предохранитель, только сбои шлюза
		res, err := d.breaker.Execute(func() (interface{}, error) {
			return d.post(ctx, msg, to)
		})
		if err != nil {
			return err
		}
		if apiErr, ok := res.(*APIError); ok && apiErr != nil {
			return apiErr
		}
	}
	return nil
}

func (d *Driver) post(ctx context.Context, msg *domain.VonageMessage, to string) (*APIError, error) {
	form := url.Values{}
	form.Set("api_key", d.cfg.Key)
	form.Set("api_secret", d.cfg.Secret)
	form.Set("from", msg.From)
	form.Set("to", to)
	form.Set("text", msg.Text)
	if msg.Type != "" {
		form.Set("type", msg.Type)
	}
	if msg.ClientRef != "" {
		form.Set("client-ref", msg.ClientRef)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.cfg.Endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create http request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute http request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return nil, fmt.Errorf("read vonage response: %w", err)
	}

	if resp.StatusCode >= 500 {
		return nil, &ServerError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	if resp.StatusCode != http.StatusOK {
		return &APIError{Status: fmt.Sprint(resp.StatusCode), Text: strings.TrimSpace(string(body)), To: to}, nil
	}

	var r smsResponse
	if err := json.Unmarshal(body, &r); err != nil {
		return nil, fmt.Errorf("decode vonage response: %w", err)
	}
	for _, m := range r.Messages {
		if m.Status != "0" {
			return &APIError{Status: m.Status, Text: m.ErrorText, To: to}, nil
		}
	}
	return nil, nil
}

// normalizePhone оставляет цифры номера в формате E.164 без плюса.
func normalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
