package loadpoint

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/loadsynth/internal/contracts"
)

// Repository is the PostgreSQL Store (table load_points)
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new Repository instance
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Save inserts or replaces a load point
func (r *Repository) Save(ctx context.Context, lp *LoadPoint) error {
	query := `
		INSERT INTO load_points (
			id,
			parent_id,
			start_day,
			hourly_kw,
			updated_at
		) VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (id) DO UPDATE SET
			parent_id = EXCLUDED.parent_id,
			start_day = EXCLUDED.start_day,
			hourly_kw = EXCLUDED.hourly_kw,
			updated_at = NOW()
	`

	_, err := r.db.Exec(ctx, query,
		lp.ID,
		lp.ParentID,
		int16(lp.StartDay),
		[]float64(lp.Series),
	)
	if err != nil {
		return fmt.Errorf("upsert load point %s: %w", lp.ID, err)
	}
	return nil
}

// Get retrieves one load point with its series
func (r *Repository) Get(ctx context.Context, id string) (*LoadPoint, error) {
	query := `
		SELECT id, parent_id, start_day, hourly_kw, updated_at
		FROM load_points
		WHERE id = $1
	`

	var (
		lp       LoadPoint
		startDay int16
		values   []float64
	)
	err := r.db.QueryRow(ctx, query, id).Scan(
		&lp.ID,
		&lp.ParentID,
		&startDay,
		&values,
		&lp.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("query load point %s: %w", id, err)
	}

	lp.StartDay = contracts.Weekday(startDay)
	lp.Series = contracts.HourlySeries(values)
	return &lp, nil
}

// List returns summaries without transferring series
func (r *Repository) List(ctx context.Context) ([]Summary, error) {
	// NaN is the greatest float8 in PostgreSQL, so the peak skips missing readings explicitly
	query := `
		SELECT
			lp.id,
			lp.parent_id,
			lp.start_day,
			cardinality(lp.hourly_kw),
			COALESCE((SELECT max(v) FROM unnest(lp.hourly_kw) AS v WHERE v <> 'NaN'), 'NaN'),
			lp.updated_at
		FROM load_points lp
		ORDER BY lp.id
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query load points: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var (
			s        Summary
			startDay int16
		)
		if err := rows.Scan(&s.ID, &s.ParentID, &startDay, &s.Hours, &s.Peak, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan load point: %w", err)
		}
		s.StartDay = contracts.Weekday(startDay)
		out = append(out, s)
	}
	return out, rows.Err()
}

// Delete removes a load point
func (r *Repository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM load_points WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete load point %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}
