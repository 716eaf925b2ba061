package onesignal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/yanqian/farmcast/internal/domain/notify"
	"github.com/yanqian/farmcast/internal/infra/httpx"
)

const defaultBaseURL = "https://onesignal.com"

// Config holds the OneSignal app credentials.
type Config struct {
	BaseURL   string
	AppID     string
	APIKey    string
	SMSSender string
}

// Client sends push and SMS notifications through the OneSignal REST API.
type Client struct {
	cfg    Config
	http   *httpx.Client
	logger *slog.Logger
}

// NewClient constructs the notification client.
func NewClient(cfg Config, httpClient *httpx.Client, logger *slog.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.AppID) == "" || strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("onesignal app id and api key are required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Client{cfg: cfg, http: httpClient, logger: logger.With("component", "onesignal.client")}, nil
}

type notificationRequest struct {
	AppID               string            `json:"app_id"`
	Contents            map[string]string `json:"contents"`
	IncludePlayerIDs    []string          `json:"include_player_ids,omitempty"`
	IncludePhoneNumbers []string          `json:"include_phone_numbers,omitempty"`
	SMSFrom             string            `json:"sms_from,omitempty"`
}

type notificationResponse struct {
	ID         string          `json:"id"`
	Recipients int             `json:"recipients"`
	Errors     json.RawMessage `json:"errors"`
}

// SendPush notifies the given player ids.
func (c *Client) SendPush(ctx context.Context, playerIDs []string, message string) error {
	return c.send(ctx, notificationRequest{
		AppID:            c.cfg.AppID,
		Contents:         map[string]string{"en": message},
		IncludePlayerIDs: playerIDs,
	})
}

// SendSMS texts the given phone numbers.
func (c *Client) SendSMS(ctx context.Context, phones []string, message string) error {
	return c.send(ctx, notificationRequest{
		AppID:               c.cfg.AppID,
		Contents:            map[string]string{"en": message},
		IncludePhoneNumbers: phones,
		SMSFrom:             c.cfg.SMSSender,
	})
}

func (c *Client) send(ctx context.Context, payload notificationRequest) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}
	buildRequest := func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/api/v1/notifications", bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json; charset=utf-8")
		req.Header.Set("Authorization", "Basic "+c.cfg.APIKey)
		return req, nil
	}
	resp, err := c.http.Do(ctx, buildRequest)
	if err != nil {
		return fmt.Errorf("send notification: %w", err)
	}
	defer resp.Body.Close()

	var decoded notificationResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return fmt.Errorf("decode notification response: %w", err)
	}
	if decoded.ID == "" && hasErrors(decoded.Errors) {
		return fmt.Errorf("notification rejected: %s", string(decoded.Errors))
	}
	c.logger.Debug("notification accepted", "id", decoded.ID, "recipients", decoded.Recipients)
	return nil
}

func hasErrors(raw json.RawMessage) bool {
	trimmed := strings.TrimSpace(string(raw))
	return trimmed != "" && trimmed != "null" && trimmed != "[]" && trimmed != "{}"
}

var (
	_ notify.PushSender = (*Client)(nil)
	_ notify.SMSSender  = (*Client)(nil)
)
