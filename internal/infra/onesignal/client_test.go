package onesignal

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/farmcast/internal/infra/httpx"
)

type captured struct {
	mu      sync.Mutex
	auth    string
	path    string
	payload map[string]any
}

func newTestClient(t *testing.T, respond string) (*Client, *captured) {
	t.Helper()
	seen := &captured{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen.mu.Lock()
		seen.auth = r.Header.Get("Authorization")
		seen.path = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&seen.payload)
		seen.mu.Unlock()
		_, _ = w.Write([]byte(respond))
	}))
	t.Cleanup(server.Close)
	client, err := NewClient(Config{BaseURL: server.URL, AppID: "app-1", APIKey: "secret", SMSSender: "+15550000"},
		httpx.New(httpx.Config{Name: "onesignal", Backoff: httpx.BackoffConfig{InitialInterval: time.Millisecond}}, server.Client()),
		slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return client, seen
}

func TestSendPush_PostsPlayerIDs(t *testing.T) {
	client, seen := newTestClient(t, `{"id":"n-1","recipients":2}`)

	require.NoError(t, client.SendPush(context.Background(), []string{"p-1", "p-2"}, "High temperature alert!"))

	seen.mu.Lock()
	defer seen.mu.Unlock()
	require.Equal(t, "/api/v1/notifications", seen.path)
	require.Equal(t, "Basic secret", seen.auth)
	require.Equal(t, "app-1", seen.payload["app_id"])
	require.Equal(t, map[string]any{"en": "High temperature alert!"}, seen.payload["contents"])
	require.Equal(t, []any{"p-1", "p-2"}, seen.payload["include_player_ids"])
	require.NotContains(t, seen.payload, "include_phone_numbers")
}

func TestSendSMS_PostsPhonesAndSender(t *testing.T) {
	client, seen := newTestClient(t, `{"id":"n-2","recipients":1}`)

	require.NoError(t, client.SendSMS(context.Background(), []string{"+911234"}, "Heavy rainfall expected."))

	seen.mu.Lock()
	defer seen.mu.Unlock()
	require.Equal(t, []any{"+911234"}, seen.payload["include_phone_numbers"])
	require.Equal(t, "+15550000", seen.payload["sms_from"])
}

func TestSend_RejectedNotification(t *testing.T) {
	client, _ := newTestClient(t, `{"id":"","errors":["All included players are not subscribed"]}`)

	err := client.SendPush(context.Background(), []string{"p-1"}, "msg")
	require.Error(t, err)
	require.Contains(t, err.Error(), "not subscribed")
}

func TestNewClient_RequiresCredentials(t *testing.T) {
	_, err := NewClient(Config{AppID: "app"}, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.Error(t, err)
}
