package synthesis

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/loadsynth/internal/calendar"
	"github.com/wonny/loadsynth/internal/contracts"
	"github.com/wonny/loadsynth/internal/export"
	"github.com/wonny/loadsynth/internal/ingest"
	"github.com/wonny/loadsynth/internal/loadpoint"
	"github.com/wonny/loadsynth/internal/modelconfig"
	"github.com/wonny/loadsynth/internal/network"
	"github.com/wonny/loadsynth/internal/pipeline"
	"github.com/wonny/loadsynth/internal/runs"
	"github.com/wonny/loadsynth/internal/s0_correction"
	"github.com/wonny/loadsynth/pkg/logger"
	"github.com/wonny/loadsynth/pkg/redis"
)

// TemperatureSource provides hourly temperatures for degree-day correction
type TemperatureSource interface {
	HourlyTemperatures(ctx context.Context, station string, from time.Time, hours int) (contracts.HourlySeries, error)
}

// Exporter receives every saved synthetic series
type Exporter interface {
	Write(ctx context.Context, s export.Series) (int, error)
}

// Service synthesizes stored load points and records the runs
// ⭐ SSOT: 저장된 부하점 합성은 여기서만
type Service struct {
	loadPoints loadpoint.Store
	runs       runs.Store
	temps      TemperatureSource
	cache      *redis.Cache
	exporter   Exporter
	observers  []pipeline.Observer
	logger     *logger.Logger
}

// Option configures optional collaborators
type Option func(*Service)

// WithTemperatures sets the temperature source for degree_day correction
func WithTemperatures(src TemperatureSource) Option {
	return func(s *Service) { s.temps = src }
}

// WithCache caches run summaries
func WithCache(cache *redis.Cache) Option {
	return func(s *Service) { s.cache = cache }
}

// WithExporter exports every saved run
func WithExporter(e Exporter) Option {
	return func(s *Service) { s.exporter = e }
}

// WithObservers attaches pipeline observers to every run
func WithObservers(observers ...pipeline.Observer) Option {
	return func(s *Service) { s.observers = append(s.observers, observers...) }
}

// NewService creates a synthesis service
func NewService(lps loadpoint.Store, rs runs.Store, log *logger.Logger, opts ...Option) *Service {
	s := &Service{
		loadPoints: lps,
		runs:       rs,
		logger:     log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Request is one synthesis of a stored load point
type Request struct {
	LoadPointID string
	Config      *modelconfig.Config
	ConfigYAML  []byte // raw document for the run snapshot; nil renders Config

	// MeasuredFrom is the timestamp of the first measured hour, needed to fetch
	// temperatures for degree_day correction
	MeasuredFrom time.Time
	Temperatures contracts.HourlySeries // overrides the temperature source
	// NormalTemperatures overrides correction.normal_temperatures and normal_years
	NormalTemperatures contracts.HourlySeries
}

// Outcome is a saved run with its pipeline artifacts
type Outcome struct {
	Run      *runs.Run                `json:"run"`
	Result   *pipeline.Result         `json:"-"`
	Ensemble *pipeline.EnsembleResult `json:"ensemble,omitempty"`
	Warnings []modelconfig.Warning    `json:"warnings,omitempty"`
}

// Synthesize runs the pipeline for one load point and saves the run.
// The load point's start day defines the calendar; the config's start day is only
// used for export timestamps when the two agree.
func (s *Service) Synthesize(ctx context.Context, req Request) (*Outcome, error) {
	cfg := req.Config
	if cfg == nil {
		cfg = modelconfig.Default()
	}
	log := s.logger.WithField("load_point", req.LoadPointID)

	lp, err := s.loadPoints.Get(ctx, req.LoadPointID)
	if err != nil {
		return nil, err
	}

	cal, err := calendar.New(lp.StartDay, cfg.Calendar.NumYears)
	if err != nil {
		return nil, err
	}
	start := cfg.StartTime()
	if cfg.StartWeekday() != lp.StartDay {
		log.WithFields(map[string]interface{}{
			"config_start_day":     cfg.Calendar.StartDay,
			"load_point_start_day": lp.StartDay.String(),
		}).Warn("calendar.start_day overridden by load point")
		start = time.Time{}
	}

	temps, err := s.temperatures(ctx, cfg, req, len(lp.Series))
	if err != nil {
		return nil, err
	}
	normal := req.NormalTemperatures
	if temps != nil && normal == nil {
		if normal, err = NormalTemperatures(ctx, s.temps, cfg, req.MeasuredFrom); err != nil {
			return nil, err
		}
	}

	p, err := pipeline.New(pipeline.OptionsFromConfig(cfg), log, s.observers...)
	if err != nil {
		return nil, err
	}
	result, err := p.Run(ctx, pipeline.Input{
		Raw:                lp.Series,
		Calendar:           cal,
		Seed:               cfg.Synthesis.Seed,
		Temperatures:       temps,
		NormalTemperatures: normal,
	})
	if err != nil {
		return nil, err
	}

	out := &Outcome{Result: result, Warnings: modelconfig.Warn(cfg)}
	if cfg.Synthesis.EnsembleRuns > 0 {
		if out.Ensemble, err = p.Ensemble(ctx, result, cfg.Synthesis.EnsembleRuns, cfg.Synthesis.Seed); err != nil {
			return nil, err
		}
	}

	snap, err := modelconfig.NewRunSnapshot(cfg, req.ConfigYAML, lp.ID)
	if err != nil {
		return nil, fmt.Errorf("config snapshot: %w", err)
	}
	out.Run = runs.FromResult(result, snap)
	if err := s.runs.Save(ctx, out.Run); err != nil {
		return nil, err
	}

	if s.cache != nil {
		summary := *out.Run
		summary.Synthetic = nil
		if err := s.cache.Set(ctx, redis.RunSummaryKey(summary.ID), summary, redis.TTLRun); err != nil {
			log.WithError(err).Warn("run summary cache write failed")
		}
	}

	if s.exporter != nil {
		if _, err := s.exporter.Write(ctx, export.Series{
			LoadPointID: lp.ID,
			RunID:       out.Run.ID,
			Start:       start,
			Values:      result.Synthetic,
		}); err != nil {
			return out, fmt.Errorf("export run %s: %w", out.Run.ID, err)
		}
	}

	return out, nil
}

// ModelRequest derives a new load point from the synthesis of a stored one
type ModelRequest struct {
	Request
	TargetID string // new load point
	ParentID string // network node the new load point hangs below
}

// Model synthesizes req.LoadPointID (scaled to scaling.target_peak_kw when set) and adds
// the synthetic series to m as a new load point. The run is saved as with Synthesize.
func (s *Service) Model(ctx context.Context, m *loadpoint.Manager, req ModelRequest) (*Outcome, *loadpoint.LoadPoint, error) {
	if req.TargetID == "" {
		return nil, nil, fmt.Errorf("model %s: target load point id is required", req.LoadPointID)
	}
	if _, err := m.Store().Get(ctx, req.TargetID); err == nil {
		return nil, nil, fmt.Errorf("%w: %s", loadpoint.ErrExists, req.TargetID)
	}
	if net := m.Network(); net != nil && req.ParentID != "" && !net.Has(req.ParentID) {
		return nil, nil, fmt.Errorf("%w: parent %s", network.ErrUnknownNode, req.ParentID)
	}

	out, err := s.Synthesize(ctx, req.Request)
	if err != nil {
		return out, nil, err
	}

	lp := &loadpoint.LoadPoint{
		ID:        req.TargetID,
		ParentID:  req.ParentID,
		StartDay:  out.Result.Calendar.StartDay,
		Series:    out.Result.Synthetic.Clone(),
		UpdatedAt: time.Now(),
	}
	if err := m.Add(ctx, lp); err != nil {
		return out, nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"source": req.LoadPointID,
		"target": lp.ID,
		"parent": lp.ParentID,
		"run_id": out.Run.ID,
		"peak":   lp.Series.Peak(),
	}).Info("Modeled load point added")
	return out, lp, nil
}

// Summary returns a run without its series, from cache when possible
func (s *Service) Summary(ctx context.Context, runID string) (*runs.Run, error) {
	if s.cache != nil {
		var cached runs.Run
		if hit, err := s.cache.Get(ctx, redis.RunSummaryKey(runID), &cached); err == nil && hit {
			return &cached, nil
		}
	}

	run, err := s.runs.Get(ctx, runID)
	if err != nil {
		return nil, err
	}
	run.Synthetic = nil
	return run, nil
}

func (s *Service) temperatures(ctx context.Context, cfg *modelconfig.Config, req Request, hours int) (contracts.HourlySeries, error) {
	if cfg.Correction.Method != s0_correction.MethodDegreeDay {
		return nil, nil
	}
	if req.Temperatures != nil {
		return req.Temperatures, nil
	}
	switch {
	case s.temps == nil:
		return nil, fmt.Errorf("degree_day correction: no temperature source configured")
	case cfg.Correction.Station == "":
		return nil, fmt.Errorf("degree_day correction: correction.station is required")
	case req.MeasuredFrom.IsZero():
		return nil, fmt.Errorf("degree_day correction: measured start time is required")
	}
	return s.temps.HourlyTemperatures(ctx, cfg.Correction.Station, req.MeasuredFrom, hours)
}

// NormalTemperatures resolves the degree-day normal year from the model config:
// the correction.normal_temperatures CSV first, then the hour-of-year mean of the
// correction.normal_years years observed before measuredFrom. Nil when neither is set.
func NormalTemperatures(ctx context.Context, src TemperatureSource, cfg *modelconfig.Config, measuredFrom time.Time) (contracts.HourlySeries, error) {
	c := cfg.Correction
	switch {
	case c.NormalTemperatures != "":
		table, err := ingest.ReadFile(c.NormalTemperatures, ingest.DefaultColumn)
		if err != nil {
			return nil, fmt.Errorf("normal temperatures: %w", err)
		}
		return table.Series, nil
	case c.NormalYears == 0:
		return nil, nil
	case src == nil:
		return nil, fmt.Errorf("correction.normal_years: no temperature source configured")
	case c.Station == "":
		return nil, fmt.Errorf("correction.normal_years: correction.station is required")
	case measuredFrom.IsZero():
		return nil, fmt.Errorf("correction.normal_years: measured start time is required")
	}

	history, err := src.HourlyTemperatures(ctx, c.Station, measuredFrom.AddDate(-c.NormalYears, 0, 0), c.NormalYears*contracts.HoursPerYear)
	if err != nil {
		return nil, fmt.Errorf("normal years: %w", err)
	}
	return s0_correction.MeanYear(history)
}
