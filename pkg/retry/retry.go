// Package retry повтор операций поверх стратегии wbf/retry: добавляет отмену
// через контекст и неповторяемые ошибки, не ждет после последней попытки.
package retry

import (
	"context"
	"errors"
	"time"

	wbfretry "github.com/wb-go/wbf/retry"
)

// Strategy параметры повторов wbf. Attempts меньше 1 означает одну попытку,
// Backoff меньше 1 трактуется как 1.
type Strategy = wbfretry.Strategy

// permanent ошибка, после которой повторять бессмысленно.
type permanent struct {
	err error
}

func (p *permanent) Error() string { return p.err.Error() }
func (p *permanent) Unwrap() error { return p.err }

// Permanent помечает ошибку как неповторяемую.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanent{err: err}
}

// IsPermanent проверяет пометку Permanent.
func IsPermanent(err error) bool {
	var p *permanent
	return errors.As(err, &p)
}

// Do выполняет fn согласно стратегии.
func Do(fn func() error, s Strategy) error {
	return DoContext(context.Background(), func(context.Context) error { return fn() }, s)
}

// DoContext выполняет fn, прерывая ожидание при отмене контекста.
func DoContext(ctx context.Context, fn func(ctx context.Context) error, s Strategy) error {
	attempts := s.Attempts
	if attempts < 1 {
		attempts = 1
	}
	backoff := s.Backoff
	if backoff < 1 {
		backoff = 1
	}
	delay := s.Delay

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		var p *permanent
		if errors.As(err, &p) {
			return p.err
		}
		if attempt == attempts {
			break
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return errors.Join(err, ctx.Err())
		case <-timer.C:
		}
		delay = time.Duration(float64(delay) * backoff)
	}
	return err
}
