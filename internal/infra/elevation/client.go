package elevation

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/yanqian/farmcast/internal/domain/irrigation"
	"github.com/yanqian/farmcast/internal/domain/weather"
	"github.com/yanqian/farmcast/internal/infra/httpx"
)

const defaultBaseURL = "https://api.open-elevation.com"

// Client queries the Open-Elevation lookup API.
type Client struct {
	baseURL string
	http    *httpx.Client
}

// NewClient constructs the elevation client.
func NewClient(baseURL string, httpClient *httpx.Client) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

// Elevation returns the terrain height in meters. ok is false when the API has no result.
func (c *Client) Elevation(ctx context.Context, loc weather.Location) (float64, bool, error) {
	buildRequest := func(ctx context.Context) (*http.Request, error) {
		point := strconv.FormatFloat(loc.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(loc.Lon, 'f', -1, 64)
		return http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/lookup?locations="+url.QueryEscape(point), nil)
	}
	resp, err := c.http.Do(ctx, buildRequest)
	if err != nil {
		return 0, false, fmt.Errorf("lookup elevation: %w", err)
	}
	defer resp.Body.Close()

	var payload struct {
		Results []struct {
			Elevation *float64 `json:"elevation"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, false, fmt.Errorf("decode elevation: %w", err)
	}
	if len(payload.Results) == 0 || payload.Results[0].Elevation == nil {
		return 0, false, nil
	}
	return *payload.Results[0].Elevation, true, nil
}

var _ irrigation.ElevationProvider = (*Client)(nil)
