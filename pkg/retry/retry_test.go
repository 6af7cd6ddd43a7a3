package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var errBoom = errors.New("boom")

type slowDown struct{ wait time.Duration }

func (e *slowDown) Error() string              { return "slow down" }
func (e *slowDown) RetryDelay() time.Duration { return e.wait }

func fast(opts ...Option) *Retrier {
	return New(append([]Option{WithInitialDelay(time.Millisecond), WithJitter(0)}, opts...)...)
}

func TestDo_RetriesRetryableErrors(t *testing.T) {
	calls := 0
	err := fast().Do(context.Background(), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return Retryable(errBoom)
		}
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_StopsOnPermanentAndUnmarks(t *testing.T) {
	calls := 0
	err := fast().Do(context.Background(), func(ctx context.Context) error {
		calls++
		return Permanent(errBoom)
	})

	assert.Equal(t, errBoom, err)
	assert.Equal(t, 1, calls)
}

func TestDo_ReturnsLastErrorWhenExhausted(t *testing.T) {
	calls := 0
	err := fast(WithMaxAttempts(2)).Do(context.Background(), func(ctx context.Context) error {
		calls++
		return Retryable(errBoom)
	})

	assert.Equal(t, errBoom, err)
	assert.Equal(t, 2, calls)
}

func TestDo_UnmarkedErrorsAreNotRetried(t *testing.T) {
	calls := 0
	err := New().Do(context.Background(), func(ctx context.Context) error {
		calls++
		return errBoom
	})

	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, 1, calls)
}

func TestDo_StopsWhenContextEnds(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := New(WithInitialDelay(time.Hour)).Do(ctx, func(ctx context.Context) error {
		calls++
		cancel()
		return Retryable(errBoom)
	})

	assert.Equal(t, errBoom, err)
	assert.Equal(t, 1, calls)
}

func TestDo_HonoursDelayHint(t *testing.T) {
	var delays []time.Duration
	r := fast(
		WithMaxAttempts(2),
		WithOnRetry(func(_ int, _ error, d time.Duration) { delays = append(delays, d) }),
	)

	err := r.Do(context.Background(), func(ctx context.Context) error {
		if len(delays) == 0 {
			return Retryable(&slowDown{wait: 20 * time.Millisecond})
		}
		return nil
	})

	assert.NoError(t, err)
	if assert.Len(t, delays, 1) {
		assert.Equal(t, 20*time.Millisecond, delays[0])
	}
}

func TestDelay_BacksOffAndCaps(t *testing.T) {
	r := New(WithInitialDelay(100*time.Millisecond), WithMaxDelay(300*time.Millisecond), WithJitter(0))

	assert.Equal(t, 100*time.Millisecond, r.delay(1, errBoom))
	assert.Equal(t, 200*time.Millisecond, r.delay(2, errBoom))
	assert.Equal(t, 300*time.Millisecond, r.delay(3, errBoom))
}
