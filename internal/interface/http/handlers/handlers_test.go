package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halaqat-hub/halaqat-reports/pkg/logger"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestCompositeHealthChecker(t *testing.T) {
	ok := NewPingCheck(pingFunc(func(context.Context) error { return nil }))
	down := NewPingCheck(pingFunc(func(context.Context) error { return errors.New("connection refused") }))

	t.Run("no checks", func(t *testing.T) {
		status := NewCompositeHealthChecker("v1").Check(context.Background())
		assert.True(t, status.Healthy)
		assert.Equal(t, "No health checks registered", status.Message)
	})

	t.Run("all passing", func(t *testing.T) {
		c := NewCompositeHealthChecker("v1")
		c.AddCheck("postgres", ok)
		c.AddNonCriticalCheck("redis", ok)

		status := c.Check(context.Background())
		assert.True(t, status.Healthy)
		assert.False(t, status.Degraded)
		assert.Len(t, status.Checks, 2)
	})

	t.Run("non-critical failure degrades", func(t *testing.T) {
		c := NewCompositeHealthChecker("v1")
		c.AddCheck("postgres", ok)
		c.AddNonCriticalCheck("redis", down)

		status := c.Check(context.Background())
		assert.True(t, status.Healthy)
		assert.True(t, status.Ready)
		assert.True(t, status.Degraded)
		assert.Equal(t, "Degraded: redis", status.Message)
		assert.Equal(t, "connection refused", status.Checks["redis"].Message)
	})

	t.Run("critical failure", func(t *testing.T) {
		c := NewCompositeHealthChecker("v1")
		c.AddCheck("postgres", down)
		c.AddNonCriticalCheck("redis", down)

		status := c.Check(context.Background())
		assert.False(t, status.Healthy)
		assert.False(t, status.Ready)
		assert.Equal(t, "Some checks failed: postgres", status.Message)
	})
}

func TestBreakerCheck(t *testing.T) {
	state := "closed"
	check := NewBreakerCheck(func() string { return state })

	assert.NoError(t, check(context.Background()))
	state = "open"
	assert.ErrorIs(t, check(context.Background()), ErrBreakerOpen)
	state = "half-open"
	assert.NoError(t, check(context.Background()))
}

func TestRequestIDAndLogging(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&buf, nil))

	var seen string
	h := Chain(RequestID(base), Logging, Recovery)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
		logger.FromContext(r.Context()).Info("inside")
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/pages/general", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "abc-123", seen)
	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	var access map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &access))
	assert.Equal(t, "http request", access["msg"])
	assert.Equal(t, "abc-123", access[logger.RequestIDKey])
	assert.EqualValues(t, http.StatusTeapot, access["status"])
}

func TestRequestID_Generated(t *testing.T) {
	h := RequestID(slog.Default())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Len(t, rec.Header().Get(RequestIDHeader), 36)
}

func TestRecovery(t *testing.T) {
	h := Chain(RequestID(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))), Recovery)(
		http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") }),
	)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "internal_server_error")
}

func TestCORS(t *testing.T) {
	h := CORS([]string{"https://reports.example.org"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/pages", nil)
	req.Header.Set("Origin", "https://reports.example.org")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://reports.example.org", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/api/v1/pages", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestSizeLimit(t *testing.T) {
	h := RequestSizeLimit(8)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("0123456789")))

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.5:4321"
	assert.Equal(t, "10.0.0.5", ClientIP(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	assert.Equal(t, "203.0.113.7", ClientIP(req))
}
