package s4_synthesis

import (
	"context"
	"fmt"
	"math/rand/v2"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/wonny/loadsynth/internal/calendar"
	"github.com/wonny/loadsynth/internal/contracts"
	"github.com/wonny/loadsynth/internal/s3_deviation"
)

// DefaultBlockHours is one week of hours
const DefaultBlockHours = 168

// Config controls synthesis fan-out
type Config struct {
	// Workers bounds concurrent blocks (0 = GOMAXPROCS)
	Workers int `json:"workers"`

	// BlockHours is the size of one independently seeded block (0 = DefaultBlockHours).
	// It is part of the reproducibility key: the same seed with a different block size
	// gives a different series.
	BlockHours int `json:"block_hours"`
}

// Synthesizer draws synthetic load from a max profile and a deviation distribution
type Synthesizer struct {
	config Config
}

// New creates a synthesizer
func New(config Config) *Synthesizer {
	if config.Workers <= 0 {
		config.Workers = runtime.GOMAXPROCS(0)
	}
	if config.BlockHours <= 0 {
		config.BlockHours = DefaultBlockHours
	}
	return &Synthesizer{config: config}
}

// Synthesize computes synthetic[t] = profile[t] × (1 + d), d drawn uniformly with
// replacement from dist.Eligible(hour(t)). Draws are independent; nothing is clamped.
//
// With a seed, block b uses its own PCG stream seeded (seed, b), so the output is
// bit-identical for any worker count. A nil seed draws from the process-wide source.
func (s *Synthesizer) Synthesize(
	ctx context.Context,
	profile contracts.HourlySeries,
	dist s3_deviation.Distribution,
	seed *uint64,
) (contracts.HourlySeries, error) {
	if dist == nil {
		return nil, fmt.Errorf("%w: nil distribution", contracts.ErrEmptyDistribution)
	}
	for h := 0; h < min(contracts.HoursPerDay, len(profile)); h++ {
		if len(dist.Eligible(h)) == 0 {
			return nil, fmt.Errorf("%w: no samples eligible for hour %d", contracts.ErrEmptyDistribution, h)
		}
	}

	out := make(contracts.HourlySeries, len(profile))
	block := s.config.BlockHours
	numBlocks := (len(profile) + block - 1) / block

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.Workers)

	for b := 0; b < numBlocks; b++ {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			intN := rand.IntN
			if seed != nil {
				intN = rand.New(rand.NewPCG(*seed, uint64(b))).IntN
			}

			from, to := b*block, min((b+1)*block, len(profile))
			for t := from; t < to; t++ {
				samples := dist.Eligible(calendar.HourOfDay(t))
				out[t] = profile[t] * (1 + samples[intN(len(samples))])
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
