package errors

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypeForStatus(t *testing.T) {
	tests := []struct {
		code int
		want ErrorType
	}{
		{0, ErrorTypeNetwork},
		{429, ErrorTypeRateLimit},
		{404, ErrorTypeNotFound},
		{403, ErrorTypeClientError},
		{500, ErrorTypeServerError},
		{503, ErrorTypeServerError},
		{302, ErrorTypeUnknown},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, TypeForStatus(tt.code), "status %d", tt.code)
	}
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(ErrorTypeNetwork))
	assert.True(t, IsRetryable(ErrorTypeServerError))
	assert.True(t, IsRetryable(ErrorTypeRateLimit))
	assert.False(t, IsRetryable(ErrorTypeNotFound))
	assert.False(t, IsRetryable(ErrorTypeClientError))
	assert.False(t, IsRetryable(ErrorTypeCancelled))
}

func TestFromStatus(t *testing.T) {
	err := FromStatus(404, "https://example.com/x")
	assert.Equal(t, 404, err.Code)
	assert.Equal(t, ErrorTypeNotFound, err.Type)
	assert.Contains(t, err.Error(), "not_found error (code 404)")
}

func TestUnwrap(t *testing.T) {
	cause := stderrors.New("connection reset")
	err := &Error{Type: ErrorTypeNetwork, Message: "network error", Err: cause}
	assert.True(t, stderrors.Is(err, cause))
}
