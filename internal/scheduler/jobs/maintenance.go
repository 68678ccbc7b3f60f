package jobs

import (
	"context"
	"fmt"

	"github.com/wonny/loadsynth/pkg/database"
	"github.com/wonny/loadsynth/pkg/logger"
)

// HealthChecker reports database health
type HealthChecker interface {
	HealthCheck(ctx context.Context) (*database.HealthStatus, error)
}

// HealthCheckJob checks the run database between re-synthesis runs
type HealthCheckJob struct {
	db     HealthChecker
	logger *logger.Logger
}

// NewHealthCheckJob creates a new health check job
func NewHealthCheckJob(db HealthChecker, log *logger.Logger) *HealthCheckJob {
	return &HealthCheckJob{
		db:     db,
		logger: log,
	}
}

// Name returns the job name
func (j *HealthCheckJob) Name() string {
	return "db_health"
}

// Schedule returns the cron schedule (every 5 minutes)
func (j *HealthCheckJob) Schedule() string {
	return "0 */5 * * * *"
}

// Run executes the health check
func (j *HealthCheckJob) Run(ctx context.Context) error {
	status, err := j.db.HealthCheck(ctx)
	if err != nil {
		return fmt.Errorf("database health check: %w", err)
	}

	j.logger.WithFields(map[string]interface{}{
		"healthy":       status.Healthy,
		"response_time": status.ResponseTime,
		"total_conns":   status.Stats.TotalConns,
	}).Debug("Database health check completed")

	if !status.Healthy {
		return fmt.Errorf("database unhealthy: %s", status.Error)
	}
	return nil
}
