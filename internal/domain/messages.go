package domain

import (
	"fmt"
	"html"
	"strings"
)

// MailBlockKind тип блока письма.
type MailBlockKind string

const (
	MailLine    MailBlockKind = "line"
	MailHeading MailBlockKind = "heading"
	MailPanel   MailBlockKind = "panel"
	MailAction  MailBlockKind = "action"
)

// MailBlock один блок тела письма.
type MailBlock struct {
	Kind  MailBlockKind `json:"kind"`
	Text  string        `json:"text"`
	Href  string        `json:"href,omitempty"`
	Style string        `json:"style,omitempty"`
}

// MailMessage содержимое канала mail.
type MailMessage struct {
	Subject string      `json:"subject"`
	From    string      `json:"from,omitempty"`
	ReplyTo string      `json:"reply_to,omitempty"`
	Blocks  []MailBlock `json:"blocks"`
}

// NewMailMessage создает пустое письмо.
func NewMailMessage() *MailMessage {
	return &MailMessage{}
}

func (m *MailMessage) WithSubject(subject string) *MailMessage {
	m.Subject = subject
	return m
}

func (m *MailMessage) WithFrom(from string) *MailMessage {
	m.From = from
	return m
}

func (m *MailMessage) WithReplyTo(replyTo string) *MailMessage {
	m.ReplyTo = replyTo
	return m
}

func (m *MailMessage) Line(text string) *MailMessage {
	m.Blocks = append(m.Blocks, MailBlock{Kind: MailLine, Text: text})
	return m
}

func (m *MailMessage) Heading(text string) *MailMessage {
	m.Blocks = append(m.Blocks, MailBlock{Kind: MailHeading, Text: text})
	return m
}

func (m *MailMessage) Panel(text string) *MailMessage {
	m.Blocks = append(m.Blocks, MailBlock{Kind: MailPanel, Text: text})
	return m
}

// Action добавляет кнопку. Пустой style означает success.
func (m *MailMessage) Action(text, href, style string) *MailMessage {
	if style == "" {
		style = "success"
	}
	m.Blocks = append(m.Blocks, MailBlock{Kind: MailAction, Text: text, Href: href, Style: style})
	return m
}

// Err проверяет, что письмо можно отправить.
func (m *MailMessage) Err() error {
	if strings.TrimSpace(m.Subject) == "" {
		return fmt.Errorf("%w: mail subject is empty", ErrNotificationFormat)
	}
	headers := [...]struct{ name, value string }{
		{"subject", m.Subject}, {"from", m.From}, {"reply_to", m.ReplyTo},
	}
	for _, h := range headers {
		if strings.ContainsAny(h.value, "\r\n") {
			return fmt.Errorf("%w: mail %s contains line breaks", ErrNotificationFormat, h.name)
		}
	}
	return nil
}

// HTML собирает тело письма из блоков.
func (m *MailMessage) HTML() string {
	var b strings.Builder
	for _, block := range m.Blocks {
		text := html.EscapeString(block.Text)
		switch block.Kind {
		case MailHeading:
			fmt.Fprintf(&b, "<h1>%s</h1>\n", text)
		case MailPanel:
			fmt.Fprintf(&b, "<table class=\"panel\"><tr><td>%s</td></tr></table>\n", text)
		case MailAction:
			fmt.Fprintf(&b, "<a class=\"button button-%s\" href=\"%s\">%s</a>\n",
				html.EscapeString(block.Style), html.EscapeString(block.Href), text)
		default:
			fmt.Fprintf(&b, "<p>%s</p>\n", text)
		}
	}
	return b.String()
}

// SlackMessage содержимое канала slack в формате Slack API.
type SlackMessage struct {
	Text        string `json:"text"`
	Username    string `json:"username"`
	IconEmoji   string `json:"icon_emoji,omitempty"`
	Channel     string `json:"channel,omitempty"`
	LinkNames   int    `json:"link_names"`
	UnfurlLinks bool   `json:"unfurl_links"`
	UnfurlMedia bool   `json:"unfurl_media"`

	err error
}

// NewSlackMessage создает сообщение с именем бота по умолчанию.
func NewSlackMessage() *SlackMessage {
	return &SlackMessage{Username: "notify-bot"}
}

func (m *SlackMessage) WithText(text string) *SlackMessage {
	m.Text = text
	return m
}

// From задает имя отправителя и иконку.
func (m *SlackMessage) From(username, icon string) *SlackMessage {
	m.Username = username
	m.IconEmoji = icon
	return m
}

// To задает канал (#general) или пользователя (@user).
func (m *SlackMessage) To(channel string) *SlackMessage {
	if !strings.HasPrefix(channel, "#") && !strings.HasPrefix(channel, "@") {
		m.err = fmt.Errorf("%w: channel name should be prefixed by # or @", ErrNotificationFormat)
		return m
	}
	m.Channel = channel
	return m
}

func (m *SlackMessage) WithLinkNames() *SlackMessage {
	m.LinkNames = 1
	return m
}

func (m *SlackMessage) WithUnfurl() *SlackMessage {
	m.UnfurlLinks = true
	m.UnfurlMedia = true
	return m
}

// Err возвращает ошибку построения сообщения.
func (m *SlackMessage) Err() error {
	return m.err
}

// VonageMessage содержимое канала vonage.
type VonageMessage struct {
	From      string `json:"from"`
	Text      string `json:"text"`
	Type      string `json:"type"`
	ClientRef string `json:"client-ref,omitempty"`

	err error
}

const maxClientRefLen = 40

// NewVonageMessage создает текстовое SMS.
func NewVonageMessage() *VonageMessage {
	return &VonageMessage{Type: "text"}
}

func (m *VonageMessage) WithFrom(from string) *VonageMessage {
	m.From = from
	return m
}

func (m *VonageMessage) WithText(text string) *VonageMessage {
	m.Text = text
	return m
}

// Unicode помечает сообщение как unicode.
func (m *VonageMessage) Unicode() *VonageMessage {
	m.Type = "unicode"
	return m
}

// WithClientRef задает клиентскую метку (не длиннее 40 символов).
func (m *VonageMessage) WithClientRef(ref string) *VonageMessage {
	if len(ref) > maxClientRefLen {
		m.err = fmt.Errorf("%w: client ref should have at most %d characters", ErrNotificationFormat, maxClientRefLen)
		return m
	}
	m.ClientRef = ref
	return m
}

// Err возвращает ошибку построения сообщения.
func (m *VonageMessage) Err() error {
	return m.err
}

// BroadcastMessage содержимое канала broadcast.
type BroadcastMessage struct {
	Event string                 `json:"event"`
	Data  map[string]interface{} `json:"data"`
}

// NewBroadcastMessage создает событие трансляции.
func NewBroadcastMessage(event string) *BroadcastMessage {
	return &BroadcastMessage{Event: event, Data: make(map[string]interface{})}
}

func (m *BroadcastMessage) With(key string, value interface{}) *BroadcastMessage {
	if m.Data == nil {
		m.Data = make(map[string]interface{})
	}
	m.Data[key] = value
	return m
}
