package openweather

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dorjecito/thermosafe-sub000/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAPIKey = "test-key"

func testClient(baseURL string) *Client {
	return &Client{
		apiKey:     testAPIKey,
		httpClient: &http.Client{Timeout: 5 * time.Second},
		baseURL:    baseURL,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestClient_Current_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "41.980000", r.URL.Query().Get("lat"))
		assert.Equal(t, "2.820000", r.URL.Query().Get("lon"))
		assert.Equal(t, testAPIKey, r.URL.Query().Get("appid"))
		assert.Equal(t, "metric", r.URL.Query().Get("units"))

		resp := response{
			Main:     mainBlock{Temp: 35.2, Humidity: 70},
			Wind:     windBlock{Speed: 5.0},
			Timezone: 7200,
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	obs, err := c.Current(context.Background(), 41.98, 2.82)
	require.NoError(t, err)

	assert.Equal(t, 35.2, obs.TempC)
	assert.Equal(t, 70.0, obs.HumidityPct)
	assert.InDelta(t, 18.0, obs.WindKmh, 0.001) // 5 m/s -> 18 km/h
	assert.Equal(t, 7200, obs.UTCOffsetSec)
}

func TestClient_Current_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"cod":401,"message":"Invalid API key"}`))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	_, err := c.Current(context.Background(), 41.98, 2.82)
	require.Error(t, err)

	var upErr *domain.UpstreamError
	require.True(t, errors.As(err, &upErr))
	assert.Equal(t, http.StatusUnauthorized, upErr.Status)
	assert.Contains(t, upErr.Body, "Invalid API key")
}

func TestClient_Current_MalformedJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{not json`))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	_, err := c.Current(context.Background(), 41.98, 2.82)
	require.Error(t, err)

	var upErr *domain.UpstreamError
	require.True(t, errors.As(err, &upErr))
	assert.Equal(t, 0, upErr.Status)
}

func TestClient_Current_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	c.httpClient.Timeout = 50 * time.Millisecond

	_, err := c.Current(context.Background(), 41.98, 2.82)
	require.Error(t, err)

	var upErr *domain.UpstreamError
	require.True(t, errors.As(err, &upErr))
	assert.Equal(t, 0, upErr.Status)
}
