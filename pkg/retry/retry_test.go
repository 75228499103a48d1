package retry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"NotifyHub/pkg/retry"
	"github.com/stretchr/testify/assert"
	wbfretry "github.com/wb-go/wbf/retry"
)

func TestDo_SucceedsAfterRetries(t *testing.T) {
	calls := 0
	err := retry.Do(func() error {
		calls++
		if calls < 3 {
			return errors.New("temporary")
		}
		return nil
	}, retry.Strategy{Attempts: 5, Delay: time.Millisecond, Backoff: 2})

	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_ReturnsLastError(t *testing.T) {
	calls := 0
	err := retry.Do(func() error {
		calls++
		return errors.New("still down")
	}, retry.Strategy{Attempts: 3, Delay: time.Millisecond})

	assert.EqualError(t, err, "still down")
	assert.Equal(t, 3, calls)
}

func TestDo_ZeroAttemptsRunsOnce(t *testing.T) {
	calls := 0
	_ = retry.Do(func() error {
		calls++
		return errors.New("fail")
	}, retry.Strategy{})

	assert.Equal(t, 1, calls)
}

func TestDo_PermanentStops(t *testing.T) {
	cause := errors.New("bad request")
	calls := 0
	err := retry.Do(func() error {
		calls++
		return retry.Permanent(cause)
	}, retry.Strategy{Attempts: 5, Delay: time.Millisecond})

	assert.Same(t, cause, err)
	assert.Equal(t, 1, calls)
	assert.False(t, retry.IsPermanent(err))
}

func TestPermanent(t *testing.T) {
	assert.Nil(t, retry.Permanent(nil))

	cause := errors.New("x")
	err := retry.Permanent(cause)
	assert.True(t, retry.IsPermanent(err))
	assert.ErrorIs(t, err, cause)
}

func TestDoContext_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := retry.DoContext(ctx, func(context.Context) error {
		calls++
		cancel()
		return errors.New("temporary")
	}, retry.Strategy{Attempts: 5, Delay: time.Hour})

	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorContains(t, err, "temporary")
	assert.Equal(t, 1, calls)
}

func TestDo_AcceptsWbfStrategy(t *testing.T) {
	var s retry.Strategy = wbfretry.Strategy{Attempts: 2, Delay: time.Millisecond, Backoff: 2}
	calls := 0

	err := retry.Do(func() error {
		calls++
		return errors.New("down")
	}, s)

	assert.EqualError(t, err, "down")
	assert.Equal(t, 2, calls)
}

func TestDo_NoDelayAfterLastAttempt(t *testing.T) {
	started := time.Now()

	err := retry.Do(func() error { return errors.New("down") },
		retry.Strategy{Attempts: 1, Delay: time.Hour, Backoff: 1})

	assert.Error(t, err)
	assert.Less(t, time.Since(started), time.Second)
}
