package jobs

import (
	"context"
	"fmt"

	"github.com/wonny/loadsynth/internal/contracts"
	"github.com/wonny/loadsynth/internal/loadpoint"
	"github.com/wonny/loadsynth/internal/modelconfig"
	"github.com/wonny/loadsynth/internal/synthesis"
	"github.com/wonny/loadsynth/pkg/logger"
)

// ResynthesisJob regenerates synthetic load for every stored load point
// ⭐ SSOT: 정기 재합성 스케줄은 이 Job에서만
type ResynthesisJob struct {
	store    loadpoint.Store
	service  *synthesis.Service
	config   *modelconfig.Config
	yaml     []byte
	schedule string
	logger   *logger.Logger
}

// NewResynthesisJob creates a new re-synthesis job.
// yamlData is the raw model config recorded with every run; it may be nil.
func NewResynthesisJob(
	store loadpoint.Store,
	service *synthesis.Service,
	cfg *modelconfig.Config,
	yamlData []byte,
	schedule string,
	log *logger.Logger,
) *ResynthesisJob {
	return &ResynthesisJob{
		store:    store,
		service:  service,
		config:   cfg,
		yaml:     yamlData,
		schedule: schedule,
		logger:   log,
	}
}

// Name returns the job name
func (j *ResynthesisJob) Name() string {
	return "resynthesis"
}

// Schedule returns the configured cron schedule
func (j *ResynthesisJob) Schedule() string {
	return j.schedule
}

// Run synthesizes each load point once.
// A load point that fails is logged and skipped; the job only fails when nothing
// could be synthesized, so a retry never duplicates successful runs.
func (j *ResynthesisJob) Run(ctx context.Context) error {
	list, err := j.store.List(ctx)
	if err != nil {
		return fmt.Errorf("list load points: %w", err)
	}

	var done, skipped, failed int
	for _, lp := range list {
		if err := ctx.Err(); err != nil {
			return err
		}

		if lp.Hours == 0 || lp.Hours%contracts.HoursPerYear != 0 {
			skipped++
			j.logger.WithFields(map[string]interface{}{
				"load_point": lp.ID,
				"hours":      lp.Hours,
			}).Debug("Skipping load point without whole years")
			continue
		}

		out, err := j.service.Synthesize(ctx, synthesis.Request{
			LoadPointID: lp.ID,
			Config:      j.config,
			ConfigYAML:  j.yaml,
		})
		if err != nil {
			failed++
			j.logger.WithError(err).WithField("load_point", lp.ID).Warn("Re-synthesis failed")
			continue
		}
		done++
		j.logger.WithFields(map[string]interface{}{
			"load_point": lp.ID,
			"run_id":     out.Run.ID,
			"metric":     out.Run.Metric,
		}).Debug("Load point re-synthesized")
	}

	j.logger.WithFields(map[string]interface{}{
		"synthesized": done,
		"skipped":     skipped,
		"failed":      failed,
	}).Info("Re-synthesis completed")

	if failed > 0 && done == 0 {
		return fmt.Errorf("re-synthesis failed for all %d eligible load points", failed)
	}
	return nil
}
