package frost

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/loadsynth/internal/contracts"
	"github.com/wonny/loadsynth/pkg/config"
	"github.com/wonny/loadsynth/pkg/httputil"
	"github.com/wonny/loadsynth/pkg/logger"
	"github.com/wonny/loadsynth/pkg/redis"
)

const sample = `{
  "data": [
    {"sourceId": "SN18700:0", "referenceTime": "2024-01-01T00:00:00.000Z",
     "observations": [{"elementId": "air_temperature", "value": -3.5, "unit": "degC", "timeResolution": "PT1H"}]},
    {"sourceId": "SN18700:0", "referenceTime": "2024-01-01T02:00:00.000Z",
     "observations": [{"elementId": "air_temperature", "value": -4.0, "unit": "degC", "timeResolution": "PT1H"}]},
    {"sourceId": "SN18700:0", "referenceTime": "2024-01-01T05:00:00.000Z",
     "observations": [{"elementId": "air_temperature", "value": 9.9, "unit": "degC", "timeResolution": "PT1H"}]}
  ]
}`

func newTestClient(baseURL string) *Client {
	cfg := config.FrostConfig{BaseURL: baseURL, ClientID: "client-id", RateLimit: 100}
	httpClient := httputil.New(logger.Nop()).DisableRetry()
	cache := redis.NewCache(redis.Disabled(), "loadsynth")
	return NewClient(httpClient, cache, cfg, logger.Nop())
}

func TestHourlyTemperatures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, observationsPath, r.URL.Path)
		assert.Equal(t, "SN18700", r.URL.Query().Get("sources"))
		assert.Equal(t, "air_temperature", r.URL.Query().Get("elements"))
		assert.Equal(t, "2024-01-01T00:00:00Z/2024-01-01T04:00:00Z", r.URL.Query().Get("referencetime"))

		user, _, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "client-id", user)

		w.Header().Set("Content-Type", "application/ld+json")
		_, _ = w.Write([]byte(sample))
	}))
	defer server.Close()

	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	temps, err := newTestClient(server.URL).HourlyTemperatures(context.Background(), "SN18700", from, 4)
	require.NoError(t, err)

	require.Len(t, temps, 4)
	assert.Equal(t, -3.5, temps[0])
	assert.True(t, math.IsNaN(temps[1]))
	assert.Equal(t, -4.0, temps[2])
	assert.True(t, math.IsNaN(temps[3]))
}

func TestHourlyTemperatures_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"reason":"No data found"}}`, http.StatusNotFound)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).HourlyTemperatures(context.Background(), "SN1", time.Now(), 24)
	assert.True(t, errors.Is(err, ErrNoData))
}

func TestHourlyTemperatures_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).HourlyTemperatures(context.Background(), "SN1", time.Now(), 24)
	require.Error(t, err)

	var statusErr *httputil.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusUnauthorized, statusErr.StatusCode)
}

func TestHourlyTemperatures_InvalidArgs(t *testing.T) {
	c := newTestClient("http://127.0.0.1:1")

	_, err := c.HourlyTemperatures(context.Background(), "", time.Now(), 24)
	assert.Error(t, err)

	_, err = c.HourlyTemperatures(context.Background(), "SN1", time.Now(), 0)
	assert.ErrorIs(t, err, contracts.ErrDataLengthMismatch)
}
