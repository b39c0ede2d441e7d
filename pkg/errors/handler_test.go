package errors

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestErrorHandler_AppError(t *testing.T) {
	// Arrange
	core, logs := observer.New(zapcore.DebugLevel)
	handler := NewErrorHandler(zap.New(core), false)
	req := httptest.NewRequest(http.MethodPost, "/api/tree", nil)
	req.Header.Set("X-Request-ID", "req-1")
	rec := httptest.NewRecorder()

	// Act
	handler.Handle(rec, req, NewParentNotFoundError("p1"))

	// Assert
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	resp := decodeResponse(t, rec)
	assert.True(t, resp.Error)
	assert.Equal(t, "NOT_FOUND", resp.Type)
	assert.Equal(t, "Parent node with id 'p1' not found", resp.Message)
	assert.Equal(t, CodeParentNotFound, resp.Code)
	assert.Equal(t, "p1", resp.Details["parentId"])
	assert.Equal(t, "req-1", resp.RequestID)
	assert.NotContains(t, resp.Details, "stack_trace")
	assert.Equal(t, 1, logs.FilterLevelExact(zapcore.WarnLevel).Len())
}

func TestErrorHandler_StorageFailureHidesCause(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	handler := NewErrorHandler(zap.New(core), false)
	rec := httptest.NewRecorder()

	handler.Handle(rec, httptest.NewRequest(http.MethodGet, "/api/tree", nil),
		NewDatabaseError("scan nodes", errors.New("SQLITE_BUSY")))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Equal(t, "DATABASE", resp.Type)
	assert.NotContains(t, rec.Body.String(), "SQLITE_BUSY")
	assert.Equal(t, 1, logs.FilterLevelExact(zapcore.ErrorLevel).Len())
}

func TestErrorHandler_PlainError(t *testing.T) {
	tests := []struct {
		name        string
		debug       bool
		wantMessage string
	}{
		{name: "production", debug: false, wantMessage: "An internal error occurred"},
		{name: "debug", debug: true, wantMessage: "boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewErrorHandler(zap.NewNop(), tt.debug)
			rec := httptest.NewRecorder()

			handler.Handle(rec, httptest.NewRequest(http.MethodGet, "/", nil), errors.New("boom"))

			assert.Equal(t, http.StatusInternalServerError, rec.Code)
			resp := decodeResponse(t, rec)
			assert.Equal(t, "INTERNAL", resp.Type)
			assert.Equal(t, tt.wantMessage, resp.Message)
		})
	}
}

func TestErrorHandler_DebugAddsStackTraceToCopy(t *testing.T) {
	handler := NewErrorHandler(zap.NewNop(), true)
	appErr := NewParentNotFoundError("p1")
	rec := httptest.NewRecorder()

	handler.Handle(rec, httptest.NewRequest(http.MethodPost, "/", nil), appErr)

	resp := decodeResponse(t, rec)
	assert.Contains(t, resp.Details, "stack_trace")
	assert.NotContains(t, appErr.Details, "stack_trace")
}

func TestErrorHandler_NilIsNoop(t *testing.T) {
	rec := httptest.NewRecorder()
	NewErrorHandler(zap.NewNop(), false).Handle(rec, httptest.NewRequest(http.MethodGet, "/", nil), nil)

	assert.Zero(t, rec.Body.Len())
}

func TestErrorHandler_HandleStatus(t *testing.T) {
	tests := []struct {
		status   int
		wantType string
	}{
		{http.StatusNotFound, "NOT_FOUND"},
		{http.StatusMethodNotAllowed, "VALIDATION"},
		{http.StatusServiceUnavailable, "UNAVAILABLE"},
		{http.StatusBadGateway, "EXTERNAL"},
		{http.StatusTeapot, "INTERNAL"},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			rec := httptest.NewRecorder()
			NewErrorHandler(zap.NewNop(), false).
				HandleStatus(rec, httptest.NewRequest(http.MethodGet, "/x", nil), tt.status, "msg")

			assert.Equal(t, tt.status, rec.Code)
			resp := decodeResponse(t, rec)
			assert.Equal(t, tt.wantType, resp.Type)
			assert.Equal(t, "msg", resp.Message)
		})
	}
}
