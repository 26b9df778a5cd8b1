package engine

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Message(t *testing.T) {
	err := newWatchError("md", "(min-width: 768px)", errors.New("unsupported"))

	assert.Equal(t, `WATCH_FAILED: environment rejected condition (name=md, condition="(min-width: 768px)"): unsupported`, err.Error())
	assert.Equal(t, "ENGINE_CLOSED: engine is closed", ErrClosed.Error())
}

func TestError_Helpers(t *testing.T) {
	cause := errors.New("boom")
	wrapped := fmt.Errorf("construct: %w", newWatchError("md", "", cause))

	assert.True(t, IsWatchError(wrapped))
	assert.False(t, IsClosedError(wrapped))
	assert.ErrorIs(t, wrapped, cause)

	closed := fmt.Errorf("flush: %w", ErrClosed)
	assert.True(t, IsClosedError(closed))
	assert.ErrorIs(t, closed, ErrClosed)
	assert.False(t, IsWatchError(errors.New("plain")))
}
