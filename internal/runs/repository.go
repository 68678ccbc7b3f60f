package runs

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/loadsynth/internal/contracts"
)

// Repository is the PostgreSQL Store (table synthesis_runs)
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new Repository instance
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Save inserts a run; run IDs are never reused
func (r *Repository) Save(ctx context.Context, run *Run) error {
	query := `
		INSERT INTO synthesis_runs (
			id,
			load_point_id,
			config_hash,
			config_yaml,
			curve_variant,
			deviation_mode,
			seed,
			metric,
			synthetic_peak,
			synthetic,
			created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.db.Exec(ctx, query,
		run.ID,
		run.LoadPointID,
		run.ConfigHash,
		run.ConfigYAML,
		string(run.Variant),
		string(run.Mode),
		seedParam(run.Seed),
		run.Metric,
		run.SyntheticPeak,
		[]float64(run.Synthetic),
		run.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", run.ID, err)
	}
	return nil
}

// Get retrieves one run with its synthetic series
func (r *Repository) Get(ctx context.Context, id string) (*Run, error) {
	query := `
		SELECT id, load_point_id, config_hash, config_yaml, curve_variant, deviation_mode,
		       seed, metric, synthetic_peak, synthetic, created_at
		FROM synthesis_runs
		WHERE id = $1
	`

	var (
		run       Run
		variant   string
		mode      string
		seed      *int64
		synthetic []float64
	)
	err := r.db.QueryRow(ctx, query, id).Scan(
		&run.ID,
		&run.LoadPointID,
		&run.ConfigHash,
		&run.ConfigYAML,
		&variant,
		&mode,
		&seed,
		&run.Metric,
		&run.SyntheticPeak,
		&synthetic,
		&run.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("query run %s: %w", id, err)
	}

	run.Variant = contracts.CurveVariant(variant)
	run.Mode = contracts.DeviationMode(mode)
	run.Seed = seedValue(seed)
	run.Synthetic = contracts.HourlySeries(synthetic)
	return &run, nil
}

// ListByLoadPoint returns the newest runs of a load point first, without series
func (r *Repository) ListByLoadPoint(ctx context.Context, loadPointID string, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, load_point_id, config_hash, curve_variant, deviation_mode,
		       seed, metric, synthetic_peak, created_at
		FROM synthesis_runs
		WHERE load_point_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, loadPointID, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var (
			run     Run
			variant string
			mode    string
			seed    *int64
		)
		if err := rows.Scan(&run.ID, &run.LoadPointID, &run.ConfigHash, &variant, &mode,
			&seed, &run.Metric, &run.SyntheticPeak, &run.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.Variant = contracts.CurveVariant(variant)
		run.Mode = contracts.DeviationMode(mode)
		run.Seed = seedValue(seed)
		out = append(out, run)
	}
	return out, rows.Err()
}

// seeds are stored as the signed bit pattern of the uint64
func seedParam(seed *uint64) *int64 {
	if seed == nil {
		return nil
	}
	v := int64(*seed)
	return &v
}

func seedValue(v *int64) *uint64 {
	if v == nil {
		return nil
	}
	seed := uint64(*v)
	return &seed
}
