package httpx

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func getRequest(url string) func(ctx context.Context) (*http.Request, error) {
	return func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	}
}

func TestClientDo_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	client := New(Config{Name: "test", Backoff: BackoffConfig{MaxRetries: 3, InitialInterval: time.Millisecond}}, server.Client())
	resp, err := client.Do(context.Background(), getRequest(server.URL))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, int32(3), calls.Load())
}

func TestClientDo_ClientErrorIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"bad key"}`))
	}))
	defer server.Close()

	client := New(Config{Name: "test", Backoff: BackoffConfig{MaxRetries: 3, InitialInterval: time.Millisecond}}, server.Client())
	_, err := client.Do(context.Background(), getRequest(server.URL))
	require.ErrorIs(t, err, ErrUnexpected)
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	require.Equal(t, http.StatusUnauthorized, statusErr.StatusCode)
	require.Contains(t, statusErr.Body, "bad key")
	require.Equal(t, int32(1), calls.Load())
}

func TestClientDo_BreakerOpensAfterFailures(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := New(Config{Name: "test", BreakerFailures: 2, BreakerCooldown: time.Hour, Backoff: BackoffConfig{MaxRetries: 0, InitialInterval: time.Millisecond}}, server.Client())
	for i := 0; i < 2; i++ {
		_, err := client.Do(context.Background(), getRequest(server.URL))
		require.ErrorIs(t, err, ErrRateLimited)
	}
	_, err := client.Do(context.Background(), getRequest(server.URL))
	require.ErrorIs(t, err, ErrCircuitOpen)
	require.Equal(t, int32(2), calls.Load())
}
