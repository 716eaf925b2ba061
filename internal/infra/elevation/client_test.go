package elevation

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/farmcast/internal/domain/weather"
	"github.com/yanqian/farmcast/internal/infra/httpx"
)

func newTestClient(t *testing.T, body string, status int) (*Client, *string) {
	t.Helper()
	var query string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.Query().Get("locations")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return NewClient(server.URL, httpx.New(httpx.Config{Name: "elevation", Backoff: httpx.BackoffConfig{InitialInterval: time.Millisecond}}, server.Client())), &query
}

func TestElevation_ReturnsFirstResult(t *testing.T) {
	client, query := newTestClient(t, `{"results":[{"latitude":10,"longitude":20,"elevation":312.5}]}`, http.StatusOK)

	value, ok, err := client.Elevation(context.Background(), weather.Location{Lat: 10, Lon: 20})
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 312.5, value)
	require.Equal(t, "10,20", *query)
}

func TestElevation_NoResults(t *testing.T) {
	client, _ := newTestClient(t, `{"results":[]}`, http.StatusOK)

	_, ok, err := client.Elevation(context.Background(), weather.Location{Lat: 10, Lon: 20})
	require.NoError(t, err)
	require.False(t, ok)
}

func TestElevation_UpstreamFailure(t *testing.T) {
	client, _ := newTestClient(t, `not found`, http.StatusNotFound)

	_, _, err := client.Elevation(context.Background(), weather.Location{Lat: 10, Lon: 20})
	require.Error(t, err)
}
