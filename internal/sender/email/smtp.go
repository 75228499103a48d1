package email

import (
	"context"
	"crypto/tls"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strings"
	"sync"
	"time"

	"NotifyHub/internal/domain"
	"github.com/wb-go/wbf/zlog"
)

// SMTPConfig параметры SMTP сервера.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	SSL      bool
	Timeout  time.Duration
}

// SMTPSender транспорт писем через SMTP с переиспользованием соединения.
type SMTPSender struct {
	cfg SMTPConfig

	mu     sync.Mutex
	client *smtp.Client
}

// NewSMTPSender создает транспорт. Соединение устанавливается при первой отправке.
func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &SMTPSender{cfg: cfg}
}

// connect устанавливает соединение с SMTP сервером.
func (s *SMTPSender) connect() error {
	addr := net.JoinHostPort(s.cfg.Host, fmt.Sprint(s.cfg.Port))
	dialer := &net.Dialer{Timeout: s.cfg.Timeout}

	var conn net.Conn
	var err error
	if s.cfg.SSL {
		conn, err = tls.DialWithDialer(dialer, "tcp", addr, &tls.Config{ServerName: s.cfg.Host})
	} else {
		conn, err = dialer.Dial("tcp", addr)
	}
	if err != nil {
		return fmt.Errorf("dial failed: %w", err)
	}

	// сервер может не прислать приветствие, ограничиваем ожидание
	_ = conn.SetDeadline(time.Now().Add(s.cfg.Timeout))
	client, err := smtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("smtp.NewClient failed: %w", err)
	}
	_ = conn.SetDeadline(time.Time{})

	if !s.cfg.SSL {
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(&tls.Config{ServerName: s.cfg.Host}); err != nil {
				zlog.Logger.Warn().Err(err).Msg("STARTTLS not available")
			}
		}
	}

	// MailHog и подобные тестовые серверы работают без аутентификации
	if s.cfg.Username != "" || s.cfg.Password != "" {
		if ok, _ := client.Extension("AUTH"); ok {
			if err := client.Auth(smtp.CRAMMD5Auth(s.cfg.Username, s.cfg.Password)); err != nil {
				_ = client.Close()
				return fmt.Errorf("authentication failed: %w", err)
			}
		} else {
			zlog.Logger.Debug().Str("host", s.cfg.Host).Msg("smtp server does not support auth, continuing without it")
		}
	}

	s.client = client
	return nil
}

// ensureConnected проверяет и восстанавливает соединение с SMTP сервером.
func (s *SMTPSender) ensureConnected() error {
	if s.client != nil {
		if err := s.client.Noop(); err == nil {
			return nil
		}
		_ = s.client.Close()
		s.client = nil
	}
	return s.connect()
}

// Send отправляет письмо всем получателям.
func (s *SMTPSender) Send(ctx context.Context, e *domain.Email) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureConnected(); err != nil {
		return err
	}

	done := make(chan error, 1)
	go func() {
		done <- s.sendMessage(e)
	}()

	select {
	case <-ctx.Done():
		// соединение в неизвестном состоянии
		_ = s.client.Close()
		s.client = nil
		<-done
		return ctx.Err()
	case err := <-done:
		if err != nil {
			s.resetTransaction()
		}
		return err
	}
}

// resetTransaction прерывает незавершенную SMTP транзакцию, чтобы следующее письмо начиналось с MAIL FROM.
func (s *SMTPSender) resetTransaction() {
	if err := s.client.Reset(); err != nil {
		zlog.Logger.Warn().Err(err).Msg("smtp reset failed, dropping connection")
		_ = s.client.Close()
		s.client = nil
	}
}

func (s *SMTPSender) sendMessage(e *domain.Email) error {
	if err := s.client.Mail(envelopeAddress(e.From)); err != nil {
		return err
	}
	for _, rcpt := range e.To {
		if err := s.client.Rcpt(envelopeAddress(rcpt)); err != nil {
			return err
		}
	}
	w, err := s.client.Data()
	if err != nil {
		return err
	}
	if _, err = w.Write(buildMIME(e)); err != nil {
		return err
	}
	return w.Close()
}

// Close закрывает SMTP соединение.
func (s *SMTPSender) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client != nil {
		_ = s.client.Quit()
		s.client = nil
	}
	return nil
}

func buildMIME(e *domain.Email) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", headerValue(e.From))
	fmt.Fprintf(&b, "To: %s\r\n", headerValue(strings.Join(e.To, ", ")))
	if e.ReplyTo != "" {
		fmt.Fprintf(&b, "Reply-To: %s\r\n", headerValue(e.ReplyTo))
	}
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", headerValue(e.Subject)))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=utf-8\r\n\r\n")
	b.WriteString(e.HTML)
	return []byte(b.String())
}

var headerBreaks = strings.NewReplacer("\r", " ", "\n", " ")

// headerValue не дает значению заголовка начать новую строку.
func headerValue(v string) string {
	return headerBreaks.Replace(v)
}
