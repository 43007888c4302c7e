//go:build openweather

package openweather

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests hit the real OpenWeatherMap API and require a valid
// OPENWEATHER_API_KEY env var.
// Run with: go test -tags=openweather ./internal/adapter/openweather/ -v -count=1

func smokeClient(t *testing.T) *Client {
	t.Helper()
	key := os.Getenv("OPENWEATHER_API_KEY")
	if key == "" {
		t.Fatal("OPENWEATHER_API_KEY must be set to run smoke tests")
	}
	return &Client{
		apiKey:     key,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    "https://api.openweathermap.org/data/2.5/weather",
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestSmoke_Current(t *testing.T) {
	c := smokeClient(t)

	// Girona
	obs, err := c.Current(context.Background(), 41.9794, 2.8214)
	require.NoError(t, err)

	assert.Greater(t, obs.TempC, -30.0)
	assert.Less(t, obs.TempC, 55.0)
	assert.GreaterOrEqual(t, obs.HumidityPct, 0.0)
	assert.LessOrEqual(t, obs.HumidityPct, 100.0)
	assert.GreaterOrEqual(t, obs.WindKmh, 0.0)
	assert.NotZero(t, obs.UTCOffsetSec)
}
