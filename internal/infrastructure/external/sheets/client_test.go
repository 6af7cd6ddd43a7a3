package sheets

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halaqat-hub/halaqat-reports/internal/domain/sheet"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := DefaultClientConfig(srv.URL + "/exec")
	cfg.Timeout = 5 * time.Second
	return NewClient(cfg)
}

func TestDeltaResponseDTO_Parsing(t *testing.T) {
	var full deltaResponseDTO
	require.NoError(t, json.Unmarshal([]byte(`{"data":[{"id":"1","name":"أ"}],"changed":[]}`), &full))
	delta, err := full.toDomain()
	require.NoError(t, err)
	assert.True(t, delta.Full)
	require.Len(t, delta.Rows, 1)
	assert.Equal(t, "أ", delta.Rows[0].Text("name"))

	var partial deltaResponseDTO
	require.NoError(t, json.Unmarshal([]byte(`{"data":null,"changed":[{"id":"2"}]}`), &partial))
	delta, err = partial.toDomain()
	require.NoError(t, err)
	assert.False(t, delta.Full)
	assert.Len(t, delta.Changed, 1)

	var empty deltaResponseDTO
	require.NoError(t, json.Unmarshal([]byte(`{"data":[],"changed":[]}`), &empty))
	delta, err = empty.toDomain()
	require.NoError(t, err)
	assert.True(t, delta.Full)
	assert.True(t, delta.HasChanges())
	assert.Empty(t, delta.Rows)
}

func TestClient_FetchWithoutMarker(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "teachers", r.URL.Query().Get("sheet"))
		assert.False(t, r.URL.Query().Has("lastSync"))
		_, _ = io.WriteString(w, `{"data":[{"teacher_id":7,"المعلم":"خالد"}],"changed":[]}`)
	})

	delta, err := client.Fetch(context.Background(), sheet.Teachers, time.Time{})

	require.NoError(t, err)
	assert.True(t, delta.Full)
	require.Len(t, delta.Rows, 1)
	assert.Equal(t, "7", delta.Rows[0].Text("teacher_id"))
}

func TestClient_FetchSendsMarker(t *testing.T) {
	marker := time.Date(2024, 5, 1, 8, 30, 0, 0, time.FixedZone("x", 3*3600))
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2024-05-01T05:30:00.000Z", r.URL.Query().Get("lastSync"))
		_, _ = io.WriteString(w, `{"data":null,"changed":[{"id":"9","status":"حضور"}]}`)
	})

	delta, err := client.Fetch(context.Background(), sheet.Attendance, marker)

	require.NoError(t, err)
	assert.False(t, delta.Full)
	assert.Len(t, delta.Changed, 1)
}

func TestClient_FetchRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = io.WriteString(w, `{"data":null,"changed":[]}`)
	})

	delta, err := client.Fetch(context.Background(), sheet.Report, time.Time{})

	require.NoError(t, err)
	assert.False(t, delta.HasChanges())
	assert.Equal(t, int32(2), calls.Load())
}

func TestClient_FetchWaitsOutRetryAfter(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = io.WriteString(w, `{"data":[],"changed":[]}`)
	})

	start := time.Now()
	_, err := client.Fetch(context.Background(), sheet.Daily, time.Time{})

	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
	assert.GreaterOrEqual(t, time.Since(start), 900*time.Millisecond)
}

func TestClient_FetchDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "unknown sheet", http.StatusBadRequest)
	})

	_, err := client.Fetch(context.Background(), sheet.Report, time.Time{})

	require.Error(t, err)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_FetchRejectsErrorBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"error":"Sheet not found"}`)
	})

	_, err := client.Fetch(context.Background(), sheet.Report, time.Time{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "Sheet not found")
}

func TestClient_Append(t *testing.T) {
	var got sheet.Row
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "attandance", r.URL.Query().Get("sheet"))
		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(body, &got))
		_, _ = io.WriteString(w, `{"status":"success"}`)
	})

	row := sheet.RowOf("teacher_id", "7", "name", "خالد", "status", "حضور")
	err := client.Append(context.Background(), sheet.Attendance, row)

	require.NoError(t, err)
	assert.Equal(t, []string{"teacher_id", "name", "status"}, got.Labels())
	assert.Equal(t, "حضور", got.Text("status"))
}

func TestClient_AppendFailsOnNon2xx(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	})

	err := client.Append(context.Background(), sheet.Settings, sheet.RowOf("الرقم", 1))

	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_NotConfigured(t *testing.T) {
	client := NewClient(DefaultClientConfig(""))

	_, err := client.Fetch(context.Background(), sheet.Report, time.Time{})
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.ErrorIs(t, client.Append(context.Background(), sheet.Report, sheet.Row{}), ErrNotConfigured)
	assert.False(t, client.Status().Configured)
}

func TestRateLimiter_HonoursPenalty(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{RequestsPerSecond: 100, BurstSize: 1, WaitTimeout: 10 * time.Millisecond})
	rl.RecordRateLimitHit(time.Minute)

	err := rl.Allow(context.Background())

	var rlErr *RateLimitError
	require.True(t, errors.As(err, &rlErr))
	assert.Greater(t, rlErr.RetryAfter, 50*time.Second)
}
