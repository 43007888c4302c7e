package domain

import (
	"context"
	"fmt"
)

// Observation is one normalized current-weather reading. Wind speed is always
// km/h; provider-specific units are converted by the gateway.
type Observation struct {
	TempC        float64
	HumidityPct  float64
	WindKmh      float64
	UTCOffsetSec int
}

// WeatherProvider fetches the current observation for a coordinate.
type WeatherProvider interface {
	Current(ctx context.Context, lat, lon float64) (Observation, error)
}

// UpstreamError wraps a failed weather fetch. Status is the upstream HTTP
// status, or 0 for network, timeout, and decode failures.
type UpstreamError struct {
	Status int
	Body   string
	Err    error
}

func (e *UpstreamError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("weather upstream: status %d: %s", e.Status, e.Body)
	}
	return fmt.Sprintf("weather upstream: %v", e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }
