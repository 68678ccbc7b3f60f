package s3_deviation

import (
	"github.com/wonny/loadsynth/internal/contracts"
)

// Distribution is a resampling pool of relative deviations.
// Eligible returns the samples that may be drawn for an hour of day; callers must not modify it.
type Distribution interface {
	Eligible(hour int) []float64
	Mode() contracts.DeviationMode
	Size() int
	distribution()
}

// Shared one pooled multiset, eligible for every hour
type Shared struct {
	Samples []float64 `json:"samples"`
}

// Eligible returns the whole pool
func (d *Shared) Eligible(int) []float64 { return d.Samples }

// Mode returns ModeShared
func (d *Shared) Mode() contracts.DeviationMode { return contracts.ModeShared }

// Size returns the sample count
func (d *Shared) Size() int { return len(d.Samples) }

func (*Shared) distribution() {}

// Hourly 24 disjoint pools partitioned by hour of day
type Hourly struct {
	ByHour [contracts.HoursPerDay][]float64 `json:"by_hour"`
}

// Eligible returns the pool for hour
func (d *Hourly) Eligible(hour int) []float64 { return d.ByHour[hour] }

// Mode returns ModeIndividual
func (d *Hourly) Mode() contracts.DeviationMode { return contracts.ModeIndividual }

// Size returns the total sample count
func (d *Hourly) Size() int {
	n := 0
	for _, samples := range d.ByHour {
		n += len(samples)
	}
	return n
}

func (*Hourly) distribution() {}

// All returns every sample of d in one new slice
func All(d Distribution) []float64 {
	switch v := d.(type) {
	case *Shared:
		out := make([]float64, len(v.Samples))
		copy(out, v.Samples)
		return out
	case *Hourly:
		out := make([]float64, 0, v.Size())
		for _, samples := range v.ByHour {
			out = append(out, samples...)
		}
		return out
	}
	return nil
}
