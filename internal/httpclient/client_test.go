package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newTestClient(baseURL string, maxRetry time.Duration) *Client {
	return New(Options{
		API:      "test",
		BaseURL:  baseURL,
		RPS:      100,
		Timeout:  2 * time.Second,
		MaxRetry: maxRetry,
		Headers:  map[string]string{"X-Test": "yes"},
	}, testLogger())
}

func TestGetJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/items", r.URL.Path)
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		assert.Equal(t, "yes", r.Header.Get("X-Test"))
		w.Write([]byte(`{"name":"bonk","count":3}`))
	}))
	defer srv.Close()

	var out struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}
	err := newTestClient(srv.URL+"/", 0).GetJSON(context.Background(), "items", "/v1/items", url.Values{"limit": {"5"}}, &out)
	require.NoError(t, err)
	assert.Equal(t, "bonk", out.Name)
	assert.Equal(t, 3, out.Count)
}

func TestPostJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var in map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		json.NewEncoder(w).Encode(map[string]string{"echo": in["q"]})
	}))
	defer srv.Close()

	var out map[string]string
	err := newTestClient(srv.URL, 0).PostJSON(context.Background(), "echo", "/", map[string]string{"q": "fish"}, &out)
	require.NoError(t, err)
	assert.Equal(t, "fish", out["echo"])
}

func TestRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	err := newTestClient(srv.URL, 10*time.Second).GetJSON(context.Background(), "flaky", "/", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestRetriesAttemptTimeout(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			time.Sleep(300 * time.Millisecond)
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := New(Options{
		API:      "slow",
		BaseURL:  srv.URL,
		RPS:      100,
		Timeout:  100 * time.Millisecond,
		MaxRetry: 5 * time.Second,
	}, testLogger())

	var out struct {
		OK bool `json:"ok"`
	}
	err := c.GetJSON(context.Background(), "slow", "/", nil, &out)
	require.NoError(t, err)
	assert.True(t, out.OK)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestCallerDeadlineNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := newTestClient(srv.URL, 5*time.Second).GetJSON(ctx, "slow", "/", nil, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestNotFoundIsPermanent(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	err := newTestClient(srv.URL, 10*time.Second).GetJSON(context.Background(), "missing", "/", nil, nil)
	assert.True(t, errors.Is(err, ErrNotFound), "got %v", err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestClientErrorNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte("bad mint"))
	}))
	defer srv.Close()

	err := newTestClient(srv.URL, 10*time.Second).GetJSON(context.Background(), "bad", "/", nil, nil)

	var se *StatusError
	require.True(t, errors.As(err, &se), "got %v", err)
	assert.Equal(t, http.StatusBadRequest, se.StatusCode)
	assert.Equal(t, "bad mint", se.Body)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestInvalidJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{not json`))
	}))
	defer srv.Close()

	var out map[string]any
	err := newTestClient(srv.URL, 0).GetJSON(context.Background(), "broken", "/", nil, &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode response")
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, 0)
	for i := 0; i < 5; i++ {
		require.Error(t, c.GetJSON(context.Background(), "down", "/", nil, nil))
	}

	err := c.GetJSON(context.Background(), "down", "/", nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circuit breaker is open")
	assert.Equal(t, int32(5), atomic.LoadInt32(&calls))
}
