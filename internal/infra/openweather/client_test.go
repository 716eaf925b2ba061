package openweather

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/farmcast/internal/domain/weather"
	"github.com/yanqian/farmcast/internal/infra/httpx"
)

const forecastFixture = `{
	"cod": "200",
	"list": [
		{"dt": 1717214400, "main": {"temp": 31.5, "temp_min": 30.1, "temp_max": 32.4, "humidity": 48},
		 "wind": {"speed": 3.2}, "weather": [{"main": "Clear"}], "dt_txt": "2024-06-01 04:00:00"},
		{"dt": 1717225200, "main": {"temp": 27, "temp_min": 26, "temp_max": 27.5, "humidity": 70},
		 "wind": {"speed": 5}, "rain": {"3h": 4.25}, "weather": [{"main": "Rain"}], "dt_txt": "2024-06-01 07:00:00"}
	]
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client, err := NewClient(server.URL, "test-key",
		httpx.New(httpx.Config{Name: "openweather", Backoff: httpx.BackoffConfig{InitialInterval: time.Millisecond}}, server.Client()),
		slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return client
}

func TestFetchForecast_DecodesSamples(t *testing.T) {
	var seen *url.URL
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		seen = r.URL
		_, _ = w.Write([]byte(forecastFixture))
	})

	forecast, err := client.FetchForecast(context.Background(), weather.Location{Lat: 10, Lon: 20.5})
	require.NoError(t, err)
	require.Equal(t, "/data/2.5/forecast", seen.Path)
	require.Equal(t, "10", seen.Query().Get("lat"))
	require.Equal(t, "20.5", seen.Query().Get("lon"))
	require.Equal(t, "metric", seen.Query().Get("units"))
	require.Equal(t, "test-key", seen.Query().Get("appid"))
	require.Len(t, forecast.Samples, 2)
	require.NotEmpty(t, forecast.Raw)

	first := forecast.Samples[0]
	require.Equal(t, time.Date(2024, 6, 1, 4, 0, 0, 0, time.UTC), first.Timestamp)
	require.Equal(t, 32.4, first.TempMax)
	require.Nil(t, first.Rain3h)
	require.Equal(t, "Clear", first.Condition)

	second := forecast.Samples[1]
	require.NotNil(t, second.Rain3h)
	require.Equal(t, 4.25, *second.Rain3h)
	require.Equal(t, 70.0, second.Humidity)
}

func TestFetchForecast_MissingListIsAnError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"cod":"200","message":0}`))
	})
	_, err := client.FetchForecast(context.Background(), weather.Location{Lat: 10, Lon: 20})
	require.ErrorIs(t, err, errMissingList)
}

func TestFetchForecast_EmptyListIsValid(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"list":[]}`))
	})
	forecast, err := client.FetchForecast(context.Background(), weather.Location{Lat: 10, Lon: 20})
	require.NoError(t, err)
	require.NotNil(t, forecast.Samples)
	require.Empty(t, forecast.Samples)
}

func TestFetchForecast_UpstreamRejection(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	_, err := client.FetchForecast(context.Background(), weather.Location{Lat: 10, Lon: 20})
	require.ErrorIs(t, err, httpx.ErrUnexpected)
}

func TestNewClient_RequiresKey(t *testing.T) {
	_, err := NewClient("", " ", nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.Error(t, err)
}
