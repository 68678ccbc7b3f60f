package runs

import (
	"context"
	"errors"
	"time"

	"github.com/wonny/loadsynth/internal/contracts"
	"github.com/wonny/loadsynth/internal/modelconfig"
	"github.com/wonny/loadsynth/internal/pipeline"
)

// ErrNotFound no run with the requested ID
var ErrNotFound = errors.New("run not found")

// Run is a persisted synthesis result
type Run struct {
	ID            string                  `json:"id"`
	LoadPointID   string                  `json:"load_point_id"`
	ConfigHash    string                  `json:"config_hash"`
	ConfigYAML    string                  `json:"config_yaml,omitempty"`
	Variant       contracts.CurveVariant  `json:"curve_variant"`
	Mode          contracts.DeviationMode `json:"deviation_mode"`
	Seed          *uint64                 `json:"seed,omitempty"`
	Metric        float64                 `json:"metric"`
	SyntheticPeak float64                 `json:"synthetic_peak"`
	Synthetic     contracts.HourlySeries  `json:"synthetic,omitempty"` // nil in listings
	CreatedAt     time.Time               `json:"created_at"`
}

// FromResult builds a Run from a completed pipeline result and its config snapshot
func FromResult(r *pipeline.Result, snap *modelconfig.RunSnapshot) *Run {
	run := &Run{
		ID:          r.RunID,
		LoadPointID: snap.LoadPointID,
		ConfigHash:  snap.ConfigHash,
		ConfigYAML:  snap.ConfigYAML,
		Variant:     r.Options.Variant,
		Mode:        r.Options.Mode,
		Synthetic:   r.Synthetic,
		CreatedAt:   snap.CreatedAt,
	}
	if r.Seed != nil {
		seed := *r.Seed
		run.Seed = &seed
	}
	if r.Report != nil {
		run.Metric = r.Report.Metric
		run.SyntheticPeak = r.Report.SyntheticPeak
	}
	return run
}

// Store persists runs
type Store interface {
	Save(ctx context.Context, run *Run) error
	Get(ctx context.Context, id string) (*Run, error)
	ListByLoadPoint(ctx context.Context, loadPointID string, limit int) ([]Run, error)
}
