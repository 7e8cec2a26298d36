package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypeOf(t *testing.T) {
	err := Structural("no navigation control")
	assert.Equal(t, TypeStructural, TypeOf(err))

	wrapped := fmt.Errorf("walking post: %w", err)
	assert.Equal(t, TypeStructural, TypeOf(wrapped))

	assert.Equal(t, TypeUnknown, TypeOf(fmt.Errorf("plain")))
}

func TestPostErrorUnwrap(t *testing.T) {
	inner := Timeout("post body not visible after 10s")
	err := ForPost("msg-42", "https://app.socialschools.eu/post/42", inner)

	assert.Contains(t, err.Error(), "msg-42")
	assert.Equal(t, TypeTimeout, TypeOf(err))
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(TypeNetwork))
	assert.True(t, IsRetryable(TypeServer))
	assert.False(t, IsRetryable(TypeStructural))
	assert.False(t, IsRetryable(TypeAuth))
	assert.False(t, IsRetryable(TypeNotFound))
}

func TestIsRetryableStatusCode(t *testing.T) {
	assert.True(t, IsRetryableStatusCode(429))
	assert.True(t, IsRetryableStatusCode(503))
	assert.False(t, IsRetryableStatusCode(404))
	assert.False(t, IsRetryableStatusCode(200))
}
