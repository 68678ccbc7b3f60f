package export

import (
	"bufio"
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/loadsynth/internal/contracts"
	"github.com/wonny/loadsynth/pkg/config"
	"github.com/wonny/loadsynth/pkg/logger"
)

func TestPoints(t *testing.T) {
	start := time.Date(2030, 1, 7, 0, 0, 0, 0, time.UTC)
	points := Points(Series{
		LoadPointID: "feeder_a",
		RunID:       "r1",
		Start:       start,
		Values:      contracts.HourlySeries{10, math.NaN(), 12.5},
	})

	require.Len(t, points, 2)
	assert.Equal(t, Measurement, points[0].Name())
	assert.Equal(t, start, points[0].Time())
	assert.Equal(t, start.Add(2*time.Hour), points[1].Time())

	tags := map[string]string{}
	for _, tag := range points[1].TagList() {
		tags[tag.Key] = tag.Value
	}
	assert.Equal(t, map[string]string{"load_point": "feeder_a", "run_id": "r1"}, tags)
	require.Len(t, points[1].FieldList(), 1)
	assert.Equal(t, "kw", points[1].FieldList()[0].Key)
	assert.Equal(t, 12.5, points[1].FieldList()[0].Value)
}

func TestInfluxWriter_Write(t *testing.T) {
	var (
		mu    sync.Mutex
		lines []string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v2/write", r.URL.Path)
		assert.Equal(t, "grid", r.URL.Query().Get("org"))
		assert.Equal(t, "loadsynth", r.URL.Query().Get("bucket"))

		scanner := bufio.NewScanner(r.Body)
		mu.Lock()
		for scanner.Scan() {
			if line := strings.TrimSpace(scanner.Text()); line != "" {
				lines = append(lines, line)
			}
		}
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	writer, err := NewInfluxWriter(config.InfluxConfig{
		URL:    server.URL,
		Token:  "token",
		Org:    "grid",
		Bucket: "loadsynth",
	}, logger.Nop())
	require.NoError(t, err)
	defer writer.Close()

	values := make(contracts.HourlySeries, batchSize+10)
	for i := range values {
		values[i] = float64(i)
	}

	n, err := writer.Write(context.Background(), Series{
		LoadPointID: "feeder_a",
		RunID:       "r1",
		Start:       time.Date(2030, 1, 7, 0, 0, 0, 0, time.UTC),
		Values:      values,
	})
	require.NoError(t, err)
	assert.Equal(t, len(values), n)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, lines, len(values))
	assert.True(t, strings.HasPrefix(lines[0], "synthetic_load,load_point=feeder_a,run_id=r1 kw=0"))
}

func TestNewInfluxWriter_NotConfigured(t *testing.T) {
	_, err := NewInfluxWriter(config.InfluxConfig{}, logger.Nop())
	assert.Error(t, err)
}
