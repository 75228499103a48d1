package slack

import (
	"errors"
	"fmt"
	"time"
)

// Ошибки Slack, https://api.slack.com/messaging/webhooks#handling_errors
var (
	ErrInvalidMessage   = errors.New("slack: message is malformed")
	ErrChannelNotFound  = errors.New("slack: channel not found")
	ErrChannelArchived  = errors.New("slack: channel is archived")
	ErrPostForbidden    = errors.New("slack: posting to channel is forbidden")
	ErrInvalidWebhook   = errors.New("slack: incoming webhook is disabled, removed or invalid")
	ErrInvalidWorkspace = errors.New("slack: workspace is missing or inactive")
	ErrMixedModes       = errors.New("slack: webhook and api destinations cannot be mixed")
	ErrMissingToken     = errors.New("slack: api token is not configured")
)

// RateLimitError Slack ответил 429.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("slack: rate limit exceeded (retry after %v)", e.RetryAfter)
}

// StatusError неожиданный ответ Slack.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("slack: unexpected status %d: %s", e.StatusCode, e.Body)
}

// Temporary ошибка сервера, повтор имеет смысл.
func (e *StatusError) Temporary() bool {
	return e.StatusCode >= 500
}

// classify переводит текст ошибки Slack в типизированную ошибку.
func classify(code, channel string) error {
	switch code {
	case "invalid_payload", "too_many_attachments", "no_text", "msg_too_long":
		return fmt.Errorf("%w: %s", ErrInvalidMessage, code)
	case "channel_not_found", "user_not_found":
		return fmt.Errorf("%w: %s", ErrChannelNotFound, channel)
	case "channel_is_archived", "is_archived":
		return fmt.Errorf("%w: %s", ErrChannelArchived, channel)
	case "action_prohibited", "posting_to_general_channel_denied", "restricted_action", "not_in_channel":
		return fmt.Errorf("%w: %s", ErrPostForbidden, channel)
	case "no_service", "no_service_id":
		return ErrInvalidWebhook
	case "no_team", "team_disabled", "invalid_auth", "account_inactive", "not_authed":
		return fmt.Errorf("%w: %s", ErrInvalidWorkspace, code)
	default:
		return nil
	}
}
