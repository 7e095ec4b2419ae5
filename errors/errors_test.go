package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapPreservesSentinel(t *testing.T) {
	err := Wrap(ErrNotFound, "exercise template 79D0BB3A")

	assert.True(t, Is(err, ErrNotFound))
	assert.True(t, IsNotFoundError(err))
	assert.False(t, IsInvalidRequestError(err))
	assert.Contains(t, err.Error(), "79D0BB3A")
}

func TestSentinelHelpers(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
	}{
		{"not found", NewNotFoundError("template %s", "ABCD1234"), IsNotFoundError},
		{"invalid request", NewInvalidRequestError("limit must be positive, got %d", 0), IsInvalidRequestError},
		{"unauthorized", Wrap(ErrUnauthorized, "hevy api"), IsUnauthorizedError},
		{"rate limited", Wrapf(ErrRateLimited, "page %d", 3), IsRateLimitedError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.check(tt.err))
		})
	}
}

func TestHelpersOnNil(t *testing.T) {
	assert.False(t, IsNotFoundError(nil))
	assert.False(t, IsInvalidRequestError(nil))
	assert.False(t, IsUnauthorizedError(nil))
	assert.False(t, IsRateLimitedError(nil))
}

func TestNewInvalidRequestErrorMessage(t *testing.T) {
	err := NewInvalidRequestError("query must not be blank")
	assert.Contains(t, err.Error(), "query must not be blank")
	assert.Contains(t, err.Error(), "invalid request")
}

func TestWithHint(t *testing.T) {
	err := WithHint(ErrNotFound, "run `hevymcp catalog update` first")

	hints := GetAllHints(err)
	require.Len(t, hints, 1)
	assert.Equal(t, "run `hevymcp catalog update` first", hints[0])
	assert.True(t, Is(err, ErrNotFound))
}

func TestNilHandling(t *testing.T) {
	assert.Nil(t, Wrap(nil, "context"))
	assert.Nil(t, Wrapf(nil, "context %d", 1))
	assert.Nil(t, WithHint(nil, "hint"))
	assert.Nil(t, WithDetail(nil, "detail"))
}

func TestStackTrace(t *testing.T) {
	err := New("with stack")

	detailed := fmt.Sprintf("%+v", err)
	assert.Contains(t, detailed, "errors_test.go")
}

func ExampleWrap() {
	err := Wrap(ErrRateLimited, "fetching exercise templates")
	fmt.Println(err)
	// Output: fetching exercise templates: rate limited
}
