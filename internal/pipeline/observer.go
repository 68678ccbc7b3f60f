package pipeline

import (
	"context"

	"github.com/wonny/loadsynth/internal/contracts"
	"github.com/wonny/loadsynth/pkg/logger"
)

// Observer receives the partial result after every completed stage.
// Observer errors are logged and never fail the run.
type Observer interface {
	Observe(ctx context.Context, stage contracts.Stage, result *Result) error
}

// ObserverFunc adapts a function to Observer
type ObserverFunc func(ctx context.Context, stage contracts.Stage, result *Result) error

// Observe calls f
func (f ObserverFunc) Observe(ctx context.Context, stage contracts.Stage, result *Result) error {
	return f(ctx, stage, result)
}

func (p *Pipeline) notify(ctx context.Context, log *logger.Logger, stage contracts.Stage, result *Result) {
	for _, o := range p.observers {
		if err := o.Observe(ctx, stage, result); err != nil {
			log.WithError(err).WithField("stage", stage.ShortName()).Warn("Observer failed")
		}
	}
}
