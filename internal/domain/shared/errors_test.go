package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainError_MatchesKindAndCause(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := WrapError("sheet", "Fetch", ErrServiceUnavailable, "remote sheet endpoint is unavailable", cause)

	assert.ErrorIs(t, err, ErrServiceUnavailable)
	assert.ErrorIs(t, err, cause)
	assert.True(t, IsExternalService(err))
	assert.False(t, IsValidation(err))
	assert.Equal(t, "sheet.Fetch: remote sheet endpoint is unavailable: dial tcp: refused", err.Error())
}

func TestUserMessage(t *testing.T) {
	inner := WrapError("submission", "Submit", ErrValidation, "يرجى اختيار المعلم", ErrInvalidSubmission)
	wrapped := fmt.Errorf("handler: %w", inner)

	assert.Equal(t, "يرجى اختيار المعلم", UserMessage(wrapped, "fallback"))
	assert.True(t, IsValidation(wrapped))
	assert.ErrorIs(t, wrapped, ErrInvalidSubmission)

	assert.Equal(t, "fallback", UserMessage(errors.New("plain"), "fallback"))
	assert.Equal(t, "fallback", UserMessage(WrapError("sheet", "Fetch", ErrExternalService, "", nil), "fallback"))
}
