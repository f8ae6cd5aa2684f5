package errors_test

import (
	stderrors "errors"
	"testing"

	"go-huddle/core/errors"

	"github.com/stretchr/testify/assert"
)

func TestAppError_WrapsCause(t *testing.T) {
	cause := stderrors.New("db exploded")
	appErr := errors.NewAppError(errors.ErrInternalServer, "failed to save event", cause)

	assert.ErrorIs(t, appErr, cause)
	assert.Equal(t, "INTERNAL_SERVER_ERROR: failed to save event: db exploded", appErr.Error())
}

func TestAppError_WithoutCause(t *testing.T) {
	appErr := errors.NewAppError(errors.ErrEventLocked, "event is locked", nil)

	assert.Nil(t, appErr.Unwrap())
	assert.Equal(t, "EVENT_LOCKED: event is locked", appErr.Error())
}
