package middleware

import (
	"aspectInsight/pkg/trace"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrace_GeneratesID(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var seen string
	h := Trace()(func(c echo.Context) error {
		seen = trace.TraceIDFromContext(c.Request().Context())
		return c.NoContent(http.StatusOK)
	})

	require.NoError(t, h(c))
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get(echo.HeaderXRequestID))
}

func TestTrace_KeepsIncomingID(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(echo.HeaderXRequestID, "req-123")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var seen string
	h := Trace()(func(c echo.Context) error {
		seen = trace.TraceIDFromContext(c.Request().Context())
		return nil
	})

	require.NoError(t, h(c))
	assert.Equal(t, "req-123", seen)
	assert.Equal(t, "req-123", rec.Header().Get(echo.HeaderXRequestID))
}

func TestErrorHandler(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantBody string
	}{
		{name: "http error", err: echo.NewHTTPError(http.StatusNotFound, "route missing"), wantCode: http.StatusNotFound, wantBody: "NOT_FOUND"},
		{name: "echo not found", err: echo.ErrNotFound, wantCode: http.StatusNotFound, wantBody: "NOT_FOUND"},
		{name: "plain error", err: errors.New("boom"), wantCode: http.StatusInternalServerError, wantBody: "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/x", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			ErrorHandler(tt.err, c)

			assert.Equal(t, tt.wantCode, rec.Code)

			var body map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tt.wantBody, body["code"])
		})
	}
}
