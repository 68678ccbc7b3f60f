package loadpoint

import (
	"context"
	"errors"
	"time"

	"github.com/wonny/loadsynth/internal/contracts"
)

var (
	// ErrNotFound load point does not exist
	ErrNotFound = errors.New("load point not found")
	// ErrExists load point id is taken
	ErrExists = errors.New("load point already exists")
)

// LoadPoint is a named hourly load series attached to a network node
type LoadPoint struct {
	ID        string                 `json:"id"`
	ParentID  string                 `json:"parent_id"`
	StartDay  contracts.Weekday      `json:"start_day"`
	Series    contracts.HourlySeries `json:"series"`
	UpdatedAt time.Time              `json:"updated_at"`
}

// Clone returns a deep copy; stores hand out and keep only clones
func (lp *LoadPoint) Clone() *LoadPoint {
	c := *lp
	c.Series = lp.Series.Clone()
	return &c
}

// Summary is a load point without its series
type Summary struct {
	ID        string            `json:"id"`
	ParentID  string            `json:"parent_id"`
	StartDay  contracts.Weekday `json:"start_day"`
	Hours     int               `json:"hours"`
	Peak      float64           `json:"peak"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// Summarize describes lp without copying the series
func (lp *LoadPoint) Summarize() Summary {
	return Summary{
		ID:        lp.ID,
		ParentID:  lp.ParentID,
		StartDay:  lp.StartDay,
		Hours:     len(lp.Series),
		Peak:      lp.Series.Peak(),
		UpdatedAt: lp.UpdatedAt,
	}
}

// Store persists load points. Save inserts or replaces.
type Store interface {
	Save(ctx context.Context, lp *LoadPoint) error
	Get(ctx context.Context, id string) (*LoadPoint, error)
	List(ctx context.Context) ([]Summary, error)
	Delete(ctx context.Context, id string) error
}
