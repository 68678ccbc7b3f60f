package frost

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/wonny/loadsynth/internal/contracts"
	"github.com/wonny/loadsynth/pkg/config"
	"github.com/wonny/loadsynth/pkg/httputil"
	"github.com/wonny/loadsynth/pkg/logger"
	"github.com/wonny/loadsynth/pkg/redis"
)

// ErrNoData the station reported no observations for the period
var ErrNoData = errors.New("no temperature observations")

const (
	elementAirTemperature = "air_temperature"
	resolutionHourly      = "PT1H"
	observationsPath      = "/observations/v0.jsonld"
)

// Client fetches hourly air temperatures from MET Norway Frost
// ⭐ SSOT: Frost API 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	cache      *redis.Cache
	logger     *logger.Logger
	baseURL    string
	clientID   string
	secret     string
	now        func() time.Time
}

// NewClient creates a new Frost client.
// cache may be nil; a disabled Redis client also turns caching off.
func NewClient(httpClient *httputil.Client, cache *redis.Cache, cfg config.FrostConfig, log *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient.WithRateLimit(cfg.RateLimit, 1),
		cache:      cache,
		logger:     log.WithField("source", "frost"),
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		clientID:   cfg.ClientID,
		secret:     cfg.ClientSecret,
		now:        time.Now,
	}
}

// === Wire format ===

type observationsResponse struct {
	Data []struct {
		SourceID      string    `json:"sourceId"`
		ReferenceTime time.Time `json:"referenceTime"`
		Observations  []struct {
			ElementID      string   `json:"elementId"`
			Value          *float64 `json:"value"`
			TimeResolution string   `json:"timeResolution"`
		} `json:"observations"`
	} `json:"data"`
}

// reading is one observed hour, stored sparsely so missing hours survive JSON caching
type reading struct {
	Hour  int     `json:"h"`
	Value float64 `json:"v"`
}

// HourlyTemperatures returns hours temperatures for station starting at from.
// Hours without an observation are NaN.
func (c *Client) HourlyTemperatures(ctx context.Context, station string, from time.Time, hours int) (contracts.HourlySeries, error) {
	if station == "" {
		return nil, fmt.Errorf("station is required")
	}
	if hours <= 0 {
		return nil, fmt.Errorf("%w: %d hours requested", contracts.ErrDataLengthMismatch, hours)
	}

	from = from.UTC().Truncate(time.Hour)
	to := from.Add(time.Duration(hours) * time.Hour)
	key := redis.TemperatureKey(station, from, to)

	var readings []reading
	if c.cache != nil {
		hit, err := c.cache.Get(ctx, key, &readings)
		if err != nil {
			c.logger.WithError(err).Warn("temperature cache read failed")
		}
		if hit {
			return toSeries(readings, hours), nil
		}
	}

	readings, err := c.fetch(ctx, station, from, to)
	if err != nil {
		return nil, err
	}
	if len(readings) == 0 {
		return nil, fmt.Errorf("%w: station %s %s..%s", ErrNoData, station, from.Format(time.RFC3339), to.Format(time.RFC3339))
	}

	if c.cache != nil {
		ttl := redis.TTLObservations
		if to.After(c.now().Add(-24 * time.Hour)) {
			ttl = redis.TTLRecent
		}
		if err := c.cache.Set(ctx, key, readings, ttl); err != nil {
			c.logger.WithError(err).Warn("temperature cache write failed")
		}
	}

	c.logger.WithFields(map[string]interface{}{
		"station":  station,
		"hours":    hours,
		"observed": len(readings),
	}).Info("Fetched temperatures")

	return toSeries(readings, hours), nil
}

func (c *Client) fetch(ctx context.Context, station string, from, to time.Time) ([]reading, error) {
	params := url.Values{}
	params.Set("sources", station)
	params.Set("elements", elementAirTemperature)
	params.Set("timeresolutions", resolutionHourly)
	params.Set("referencetime", from.Format(time.RFC3339)+"/"+to.Format(time.RFC3339))
	fullURL := fmt.Sprintf("%s%s?%s", c.baseURL, observationsPath, params.Encode())

	// Frost authenticates with the client ID as basic-auth user
	auth := base64.StdEncoding.EncodeToString([]byte(c.clientID + ":" + c.secret))
	header := http.Header{"Authorization": []string{"Basic " + auth}}

	var resp observationsResponse
	if err := c.httpClient.GetJSON(ctx, fullURL, header, &resp); err != nil {
		var statusErr *httputil.StatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("frost request failed: %w", err)
	}

	var readings []reading
	for _, item := range resp.Data {
		hour := int(item.ReferenceTime.Sub(from) / time.Hour)
		if hour < 0 || !item.ReferenceTime.Before(to) {
			continue
		}
		for _, obs := range item.Observations {
			if obs.ElementID != elementAirTemperature || obs.Value == nil {
				continue
			}
			if obs.TimeResolution != "" && obs.TimeResolution != resolutionHourly {
				continue
			}
			readings = append(readings, reading{Hour: hour, Value: *obs.Value})
			break
		}
	}
	return readings, nil
}

func toSeries(readings []reading, hours int) contracts.HourlySeries {
	out := make(contracts.HourlySeries, hours)
	for i := range out {
		out[i] = math.NaN()
	}
	for _, r := range readings {
		if r.Hour >= 0 && r.Hour < hours {
			out[r.Hour] = r.Value
		}
	}
	return out
}
