package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBreaker_OpensAndRecovers(t *testing.T) {
	var transitions []State
	cb := New("test",
		WithFailureThreshold(2),
		WithSuccessThreshold(1),
		WithTimeout(20*time.Millisecond),
		WithOnStateChange(func(_ string, _, to State) { transitions = append(transitions, to) }),
	)
	fail := func(context.Context) error { return errors.New("down") }
	ok := func(context.Context) error { return nil }

	_ = cb.Execute(context.Background(), fail)
	_ = cb.Execute(context.Background(), fail)
	assert.True(t, cb.IsOpen())
	assert.ErrorIs(t, cb.Execute(context.Background(), ok), ErrCircuitOpen)

	time.Sleep(30 * time.Millisecond)
	assert.NoError(t, cb.Execute(context.Background(), ok))
	assert.Equal(t, StateClosed, cb.State())
	assert.Equal(t, []State{StateOpen, StateHalfOpen, StateClosed}, transitions)
}

func TestBreaker_IgnoresNonFailures(t *testing.T) {
	ignored := errors.New("client error")
	cb := New("test",
		WithFailureThreshold(1),
		WithIsFailure(func(err error) bool { return !errors.Is(err, ignored) }),
	)

	err := cb.Execute(context.Background(), func(context.Context) error { return ignored })

	assert.ErrorIs(t, err, ignored)
	assert.Equal(t, StateClosed, cb.State())
	assert.Equal(t, 1, cb.Counts().TotalSuccesses)
}
