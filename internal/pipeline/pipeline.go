package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/loadsynth/internal/calendar"
	"github.com/wonny/loadsynth/internal/contracts"
	"github.com/wonny/loadsynth/internal/loadpoint"
	"github.com/wonny/loadsynth/internal/modelconfig"
	"github.com/wonny/loadsynth/internal/s0_correction"
	"github.com/wonny/loadsynth/internal/s1_curves"
	"github.com/wonny/loadsynth/internal/s2_profile"
	"github.com/wonny/loadsynth/internal/s3_deviation"
	"github.com/wonny/loadsynth/internal/s4_synthesis"
	"github.com/wonny/loadsynth/internal/s5_evaluation"
	"github.com/wonny/loadsynth/pkg/logger"
)

// Options selects the algorithm variants of one pipeline
type Options struct {
	Variant          contracts.CurveVariant
	Mode             contracts.DeviationMode
	CorrectionMethod string  // none | degree_day
	BaseTempC        float64 // degree_day base temperature
	Synthesis        s4_synthesis.Config
	TargetPeakKW     float64 // > 0 rescales the measured series before correction
}

// OptionsFromConfig maps a validated model config onto pipeline options
func OptionsFromConfig(cfg *modelconfig.Config) Options {
	return Options{
		Variant:          cfg.CurveVariant(),
		Mode:             cfg.DeviationMode(),
		CorrectionMethod: cfg.Correction.Method,
		BaseTempC:        cfg.Correction.BaseTempC,
		Synthesis: s4_synthesis.Config{
			Workers:    cfg.Synthesis.Workers,
			BlockHours: cfg.Synthesis.BlockHours,
		},
		TargetPeakKW: cfg.Scaling.TargetPeakKW,
	}
}

// Pipeline runs S0 → S5 for one measured series
// ⭐ SSOT: 파이프라인 조율은 여기서만
type Pipeline struct {
	options     Options
	extractor   s1_curves.Extractor
	modeler     s3_deviation.Modeler
	synthesizer *s4_synthesis.Synthesizer
	observers   []Observer
	logger      *logger.Logger
}

// New resolves the curve variant and deviation mode once
func New(opts Options, log *logger.Logger, observers ...Observer) (*Pipeline, error) {
	extractor, err := s1_curves.ExtractorFor(opts.Variant)
	if err != nil {
		return nil, err
	}
	modeler, err := s3_deviation.ModelerFor(opts.Mode)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.Nop()
	}

	return &Pipeline{
		options:     opts,
		extractor:   extractor,
		modeler:     modeler,
		synthesizer: s4_synthesis.New(opts.Synthesis),
		observers:   observers,
		logger:      log,
	}, nil
}

// Options returns the resolved options
func (p *Pipeline) Options() Options {
	return p.options
}

// Input is one pipeline run request
type Input struct {
	Raw      contracts.HourlySeries
	Calendar calendar.Calendar // start day of Raw; NumYears is the synthetic horizon
	Seed     *uint64           // nil = non-deterministic draws

	// Temperatures aligned with Raw, required for degree_day correction
	Temperatures contracts.HourlySeries
	// NormalTemperatures optional normal year (8760) or full-length normal series
	NormalTemperatures contracts.HourlySeries
}

// Result holds every intermediate artifact of a run
type Result struct {
	RunID        string
	Options      Options
	Calendar     calendar.Calendar
	Seed         *uint64
	Raw          contracts.HourlySeries
	Corrected    contracts.HourlySeries
	Curves       s1_curves.CurveSet
	Peak         float64
	Profile      contracts.HourlySeries
	Distribution s3_deviation.Distribution
	Synthetic    contracts.HourlySeries
	Report       *s5_evaluation.Report
	Stages       []contracts.StageResult
	Duration     time.Duration
}

// Run executes the complete pipeline.
// S0 → S1 → S2 → S3 → S4 → S5
// On failure the partial result is returned with the error.
func (p *Pipeline) Run(ctx context.Context, in Input) (*Result, error) {
	startTime := time.Now()

	result := &Result{
		RunID:    uuid.New().String(),
		Options:  p.options,
		Calendar: in.Calendar,
		Seed:     in.Seed,
		Raw:      in.Raw,
	}
	log := p.logger.WithField("run_id", result.RunID)

	fields := map[string]interface{}{
		"run_id":    result.RunID,
		"samples":   len(in.Raw),
		"start_day": in.Calendar.StartDay.String(),
		"num_years": in.Calendar.NumYears,
		"variant":   string(p.options.Variant),
		"mode":      string(p.options.Mode),
	}
	if in.Seed != nil {
		fields["seed"] = *in.Seed
	}
	log.WithFields(fields).Info("Starting pipeline run")

	stages := []struct {
		stage contracts.Stage
		run   func(context.Context, *Input, *Result) (int, int, map[string]interface{}, error)
	}{
		{contracts.StageCorrection, p.runS0},
		{contracts.StageCurves, p.runS1},
		{contracts.StageMaxProfile, p.runS2},
		{contracts.StageDeviation, p.runS3},
		{contracts.StageSynthesis, p.runS4},
		{contracts.StageEvaluation, p.runS5},
	}

	for _, s := range stages {
		if err := ctx.Err(); err != nil {
			result.Duration = time.Since(startTime)
			return result, err
		}

		stageStart := time.Now()
		inCount, outCount, meta, err := s.run(ctx, &in, result)
		sr := contracts.StageResult{
			Stage:       s.stage,
			Success:     err == nil,
			InputCount:  inCount,
			OutputCount: outCount,
			Duration:    time.Since(stageStart),
			Metadata:    meta,
		}
		if err != nil {
			sr.Error = err.Error()
		}
		result.Stages = append(result.Stages, sr)

		if err != nil {
			result.Duration = time.Since(startTime)
			log.WithError(err).WithField("stage", s.stage.String()).Error("Pipeline stage failed")
			return result, fmt.Errorf("%s failed: %w", s.stage.ShortName(), err)
		}

		log.WithFields(map[string]interface{}{
			"stage":    s.stage.ShortName(),
			"input":    inCount,
			"output":   outCount,
			"duration": sr.Duration,
		}).Info(s.stage.ShortName() + " completed")

		p.notify(ctx, log, s.stage, result)
	}

	result.Duration = time.Since(startTime)
	log.WithFields(map[string]interface{}{
		"metric":         result.Report.Metric,
		"synthetic_peak": result.Report.SyntheticPeak,
		"duration":       result.Duration,
	}).Info("Pipeline run completed successfully")

	return result, nil
}

// runS0 executes S0: temperature correction (with optional rescaling of the measured series)
func (p *Pipeline) runS0(_ context.Context, in *Input, r *Result) (int, int, map[string]interface{}, error) {
	raw := in.Raw
	meta := map[string]interface{}{"method": p.options.CorrectionMethod}

	if p.options.TargetPeakKW > 0 {
		scaled, err := loadpoint.ScaleToPeak(raw, p.options.TargetPeakKW)
		if err != nil {
			return len(in.Raw), 0, meta, fmt.Errorf("scale to target peak: %w", err)
		}
		meta["scaled_from_peak"] = raw.Peak()
		raw = scaled
		r.Raw = scaled
	}

	corrector, err := s0_correction.ForMethod(p.options.CorrectionMethod, in.Temperatures, in.NormalTemperatures, p.options.BaseTempC)
	if err != nil {
		return len(raw), 0, meta, err
	}

	var corrected contracts.HourlySeries
	if dd, ok := corrector.(*s0_correction.DegreeDay); ok {
		var fit s0_correction.Fit
		if corrected, fit, err = dd.CorrectWithFit(raw); err != nil {
			return len(raw), 0, meta, err
		}
		meta["sensitivity"] = fit.Sensitivity
		meta["intercept"] = fit.Intercept
	} else if corrected, err = corrector.Correct(raw, in.Calendar); err != nil {
		return len(raw), 0, meta, err
	}
	r.Corrected = corrected
	return len(raw), len(corrected), meta, nil
}

// runS1 executes S1: variation curves
func (p *Pipeline) runS1(_ context.Context, in *Input, r *Result) (int, int, map[string]interface{}, error) {
	curves, err := p.extractor.Extract(r.Corrected, in.Calendar)
	if err != nil {
		return len(r.Corrected), 0, nil, err
	}
	r.Curves = curves
	r.Peak = r.Corrected.Peak()
	return len(r.Corrected), 1, map[string]interface{}{
		"variant": string(curves.Variant()),
		"peak":    r.Peak,
	}, nil
}

// runS2 executes S2: estimated max profile
func (p *Pipeline) runS2(_ context.Context, in *Input, r *Result) (int, int, map[string]interface{}, error) {
	profile, err := s2_profile.Estimate(r.Curves, r.Peak, in.Calendar)
	if err != nil {
		return 1, 0, nil, err
	}
	r.Profile = profile
	return 1, len(profile), map[string]interface{}{"profile_peak": profile.Peak()}, nil
}

// runS3 executes S3: relative deviation distribution
func (p *Pipeline) runS3(_ context.Context, _ *Input, r *Result) (int, int, map[string]interface{}, error) {
	dist, err := p.modeler.Model(r.Corrected, r.Profile)
	if err != nil {
		return len(r.Corrected), 0, nil, err
	}
	r.Distribution = dist
	return len(r.Corrected), dist.Size(), map[string]interface{}{"mode": string(dist.Mode())}, nil
}

// runS4 executes S4: stochastic synthesis
func (p *Pipeline) runS4(ctx context.Context, in *Input, r *Result) (int, int, map[string]interface{}, error) {
	synthetic, err := p.synthesizer.Synthesize(ctx, r.Profile, r.Distribution, in.Seed)
	if err != nil {
		return len(r.Profile), 0, nil, err
	}
	r.Synthetic = synthetic
	return len(r.Profile), len(synthetic), map[string]interface{}{"seeded": in.Seed != nil}, nil
}

// runS5 executes S5: evaluation
func (p *Pipeline) runS5(_ context.Context, _ *Input, r *Result) (int, int, map[string]interface{}, error) {
	report, err := s5_evaluation.Evaluate(r.Synthetic, r.Corrected, r.Profile)
	if err != nil {
		return len(r.Synthetic), 0, nil, err
	}
	r.Report = report
	return len(r.Synthetic), report.Compared, map[string]interface{}{
		"metric":         report.Metric,
		"synthetic_peak": report.SyntheticPeak,
	}, nil
}
