package openweather

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/yanqian/farmcast/internal/domain/weather"
	"github.com/yanqian/farmcast/internal/infra/httpx"
)

const defaultBaseURL = "https://api.openweathermap.org"

// maxBodyBytes bounds the forecast payload; a 5 day / 3 hour response is well under this.
const maxBodyBytes = 4 << 20

var errMissingList = errors.New("forecast payload has no list")

// Client fetches the OpenWeather 5 day / 3 hour forecast.
type Client struct {
	baseURL string
	apiKey  string
	http    *httpx.Client
	logger  *slog.Logger
}

// NewClient constructs the forecast client.
func NewClient(baseURL, apiKey string, httpClient *httpx.Client, logger *slog.Logger) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("openweather api key is required")
	}
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    httpClient,
		logger:  logger.With("component", "openweather.client"),
	}, nil
}

type forecastPayload struct {
	List *[]forecastEntry `json:"list"`
}

type forecastEntry struct {
	Dt   int64 `json:"dt"`
	Main struct {
		Temp     float64 `json:"temp"`
		TempMin  float64 `json:"temp_min"`
		TempMax  float64 `json:"temp_max"`
		Humidity float64 `json:"humidity"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
	Rain *struct {
		ThreeH *float64 `json:"3h"`
	} `json:"rain"`
	Weather []struct {
		Main string `json:"main"`
	} `json:"weather"`
}

// FetchForecast requests metric units and decodes every entry into a sample.
func (c *Client) FetchForecast(ctx context.Context, loc weather.Location) (weather.Forecast, error) {
	buildRequest := func(ctx context.Context) (*http.Request, error) {
		values := url.Values{}
		values.Set("lat", strconv.FormatFloat(loc.Lat, 'f', -1, 64))
		values.Set("lon", strconv.FormatFloat(loc.Lon, 'f', -1, 64))
		values.Set("units", "metric")
		values.Set("appid", c.apiKey)
		return http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/data/2.5/forecast?"+values.Encode(), nil)
	}

	start := time.Now()
	resp, err := c.http.Do(ctx, buildRequest)
	if err != nil {
		return weather.Forecast{}, fmt.Errorf("fetch forecast: %w", err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return weather.Forecast{}, fmt.Errorf("read forecast body: %w", err)
	}

	samples, err := decodeForecast(raw)
	if err != nil {
		return weather.Forecast{}, err
	}
	c.logger.Debug("forecast fetched", "location", loc.Key(), "samples", len(samples), "latency_ms", time.Since(start).Milliseconds())
	return weather.Forecast{Location: loc, Samples: samples, Raw: raw}, nil
}

func decodeForecast(raw []byte) ([]weather.ForecastSample, error) {
	var payload forecastPayload
	decoder := json.NewDecoder(bytes.NewReader(raw))
	if err := decoder.Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode forecast: %w", err)
	}
	if payload.List == nil {
		return nil, errMissingList
	}
	samples := make([]weather.ForecastSample, 0, len(*payload.List))
	for _, entry := range *payload.List {
		sample := weather.ForecastSample{
			Timestamp:   time.Unix(entry.Dt, 0).UTC(),
			Temperature: entry.Main.Temp,
			Humidity:    entry.Main.Humidity,
			WindSpeed:   entry.Wind.Speed,
			TempMin:     entry.Main.TempMin,
			TempMax:     entry.Main.TempMax,
		}
		if entry.Rain != nil && entry.Rain.ThreeH != nil {
			rain := *entry.Rain.ThreeH
			sample.Rain3h = &rain
		}
		if len(entry.Weather) > 0 {
			sample.Condition = entry.Weather[0].Main
		}
		samples = append(samples, sample)
	}
	return samples, nil
}

var _ weather.ForecastProvider = (*Client)(nil)
