package commands

import (
	"context"

	"github.com/wonny/loadsynth/internal/export"
	"github.com/wonny/loadsynth/internal/external/frost"
	"github.com/wonny/loadsynth/internal/synthesis"
	"github.com/wonny/loadsynth/pkg/config"
	"github.com/wonny/loadsynth/pkg/httputil"
	"github.com/wonny/loadsynth/pkg/logger"
	"github.com/wonny/loadsynth/pkg/redis"
)

// keyPrefix namespaces every Redis key written by this service
const keyPrefix = "loadsynth"

// runtime holds the long-lived dependencies of the api and scheduler commands
type runtime struct {
	stores  *stores
	redis   *redis.Client
	cache   *redis.Cache
	limiter *redis.RateLimiter
	influx  *export.InfluxWriter
	service *synthesis.Service
}

// newRuntime connects PostgreSQL (required), Redis and InfluxDB (optional)
// and builds the synthesis service on top of them
func newRuntime(ctx context.Context, cfg *config.Config, log *logger.Logger) (*runtime, error) {
	st, err := openStores(ctx, cfg)
	if err != nil {
		return nil, err
	}
	log.Info("Connected to database")

	rc, err := redis.New(ctx, cfg)
	if err != nil {
		log.WithError(err).Warn("Redis unavailable, running without cache and rate limits")
		rc = redis.Disabled()
	}

	rt := &runtime{
		stores:  st,
		redis:   rc,
		cache:   redis.NewCache(rc, keyPrefix),
		limiter: redis.NewRateLimiter(rc, keyPrefix),
	}

	temps := frost.NewClient(httputil.New(log), rt.cache, cfg.Frost, log)
	opts := []synthesis.Option{
		synthesis.WithTemperatures(temps),
		synthesis.WithCache(rt.cache),
	}

	if cfg.Influx.Enabled() {
		w, err := export.NewInfluxWriter(cfg.Influx, log)
		if err != nil {
			rt.Close()
			return nil, err
		}
		if err := w.Ping(ctx); err != nil {
			log.WithError(err).Warn("InfluxDB not reachable, export disabled")
			w.Close()
		} else {
			rt.influx = w
			opts = append(opts, synthesis.WithExporter(w))
		}
	}

	rt.service = synthesis.NewService(st.loadPoints, st.runs, log, opts...)
	return rt, nil
}

func (rt *runtime) Close() {
	if rt.influx != nil {
		rt.influx.Close()
	}
	_ = rt.redis.Close()
	rt.stores.Close()
}
