package vonage

import (
	"errors"
	"fmt"

	"NotifyHub/internal/domain"
)

// ErrInvalidMessage сообщение нельзя отправить (нет текста или отправителя).
var ErrInvalidMessage = fmt.Errorf("%w: vonage message is invalid", domain.ErrNotificationFormat)

// ErrMissingCredentials не заданы ключи API.
var ErrMissingCredentials = errors.New("vonage: api key and secret are required")

// APIError шлюз отклонил сообщение с ненулевым статусом.
type APIError struct {
	Status string
	Text   string
	To     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("vonage: code %s: %s (to %s)", e.Status, e.Text, e.To)
}

// Temporary троттлинг на стороне шлюза.
func (e *APIError) Temporary() bool {
	return e.Status == "1"
}

// ServerError шлюз недоступен или вернул 5xx.
type ServerError struct {
	StatusCode int
	Body       string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("vonage: server error %d: %s", e.StatusCode, e.Body)
}
