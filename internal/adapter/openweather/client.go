// Package openweather implements domain.WeatherProvider against the
// OpenWeatherMap current-weather API.
package openweather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/dorjecito/thermosafe-sub000/internal/domain"
)

// Client fetches current observations from OpenWeatherMap. One HTTP round
// trip per call, no retries; retry policy belongs to the scheduled jobs.
type Client struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

// NewClient creates an OpenWeatherMap client.
func NewClient(apiKey string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: "https://api.openweathermap.org/data/2.5/weather",
		logger:  logger,
	}
}

// Current fetches the observation for a coordinate. Units are normalized so
// callers never see provider-specific units: OpenWeatherMap reports wind in
// m/s with metric units, converted here to km/h.
func (c *Client) Current(ctx context.Context, lat, lon float64) (domain.Observation, error) {
	params := url.Values{
		"lat":   {fmt.Sprintf("%.6f", lat)},
		"lon":   {fmt.Sprintf("%.6f", lon)},
		"appid": {c.apiKey},
		"units": {"metric"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return domain.Observation{}, &domain.UpstreamError{Err: fmt.Errorf("create request: %w", err)}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Observation{}, &domain.UpstreamError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return domain.Observation{}, &domain.UpstreamError{Status: resp.StatusCode, Body: string(body)}
	}

	var owResp response
	if err := json.NewDecoder(resp.Body).Decode(&owResp); err != nil {
		return domain.Observation{}, &domain.UpstreamError{Err: fmt.Errorf("decode response: %w", err)}
	}

	return domain.Observation{
		TempC:        owResp.Main.Temp,
		HumidityPct:  owResp.Main.Humidity,
		WindKmh:      owResp.Wind.Speed * 3.6,
		UTCOffsetSec: owResp.Timezone,
	}, nil
}

// OpenWeatherMap API response types.

type response struct {
	Main     mainBlock `json:"main"`
	Wind     windBlock `json:"wind"`
	Timezone int       `json:"timezone"` // shift from UTC in seconds
}

type mainBlock struct {
	Temp     float64 `json:"temp"`
	Humidity float64 `json:"humidity"`
}

type windBlock struct {
	Speed float64 `json:"speed"` // m/s with metric units
}
