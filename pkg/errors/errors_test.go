package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewParentNotFoundError(t *testing.T) {
	err := NewParentNotFoundError("abc")

	assert.Equal(t, ErrorTypeNotFound, err.Type)
	assert.Equal(t, "Parent node with id 'abc' not found", err.Message)
	assert.Equal(t, CodeParentNotFound, err.Code)
	assert.Equal(t, http.StatusNotFound, err.HTTPStatus)
	assert.Equal(t, map[string]interface{}{"parentId": "abc"}, err.Details)
	assert.NotEmpty(t, err.StackTrace)
}

func TestAppError_WrappingAndHelpers(t *testing.T) {
	cause := errors.New("disk full")
	dbErr := NewDatabaseError("insert node", cause)
	wrapped := fmt.Errorf("command handler failed: %w", dbErr)

	assert.ErrorIs(t, wrapped, cause)
	assert.True(t, IsAppError(wrapped))
	assert.Same(t, dbErr, GetAppError(wrapped))
	assert.True(t, IsStorageFailure(wrapped))
	assert.False(t, IsNotFound(wrapped))
	assert.Contains(t, dbErr.Error(), "caused by: disk full")

	assert.True(t, IsStorageFailure(NewUnavailableError("store")))
	assert.True(t, IsValidation(NewValidationError("label is required")))
	assert.False(t, IsAppError(cause))
	assert.Nil(t, GetAppError(cause))
}

func TestAppError_Builders(t *testing.T) {
	err := NewValidationError("bad").
		WithDetails(map[string]interface{}{"field": "x"}).
		WithCause(errors.New("root cause"))

	require.NotNil(t, err.Cause)
	assert.Equal(t, CodeInvalidRequest, err.Code)
	assert.Equal(t, "x", err.Details["field"])
	assert.Equal(t, http.StatusBadRequest, err.HTTPStatus)

	ext := NewExternalError("eventbridge", errors.New("denied"))
	assert.Equal(t, http.StatusBadGateway, ext.HTTPStatus)
}
