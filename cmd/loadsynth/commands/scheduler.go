package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/loadsynth/internal/scheduler"
	"github.com/wonny/loadsynth/internal/scheduler/jobs"
	"github.com/wonny/loadsynth/pkg/config"
	"github.com/wonny/loadsynth/pkg/logger"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "스케줄러 관리",
	Long: `정기 재합성 스케줄러를 시작하거나 작업을 관리합니다.

등록되는 작업:
- resynthesis: SYNTH_SCHEDULE (기본: 매주 월요일 03:00) 모든 부하 지점 재합성
- db_health: 5분마다 데이터베이스 상태 확인

Subcommands:
  start   - 스케줄러 시작
  list    - 등록된 작업과 다음 실행 시각
  run     - 특정 작업 즉시 실행 (완료까지 대기)

Example:
  go run ./cmd/loadsynth scheduler start
  go run ./cmd/loadsynth scheduler run resynthesis --config model.yaml`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "스케줄러 시작",
		Args:  cobra.NoArgs,
		RunE:  runScheduler,
	}

	schedulerListCmd = &cobra.Command{
		Use:   "list",
		Short: "등록된 작업 목록",
		Args:  cobra.NoArgs,
		RunE:  listJobs,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "특정 작업 즉시 실행",
		Args:  cobra.ExactArgs(1),
		RunE:  runJob,
	}
)

var schedulerConfig string

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)

	schedulerCmd.PersistentFlags().StringVar(&schedulerConfig, "config", "", "재합성 모델 설정 YAML")
}

func runScheduler(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}

	sched, cleanup, err := initScheduler(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer cleanup()

	sched.Start()

	out := cmd.ErrOrStderr()
	PrintSuccess(out, "Scheduler started")
	printJobs(cmd, sched)
	fmt.Fprintln(out, "\nPress Ctrl+C to stop")

	<-ctx.Done()
	sched.Stop()
	return nil
}

func listJobs(cmd *cobra.Command, args []string) error {
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}

	sched, cleanup, err := initScheduler(context.Background(), cfg, log)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer cleanup()

	// entries only get a next activation once cron is running
	sched.Start()
	defer sched.Stop()

	printJobs(cmd, sched)
	return nil
}

func runJob(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}

	sched, cleanup, err := initScheduler(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer cleanup()

	result, err := sched.RunJob(ctx, args[0])
	if err != nil {
		return fmt.Errorf("run job: %w", err)
	}

	out := cmd.ErrOrStderr()
	PrintHeader(out, "Job "+result.JobName)
	PrintKeyValue(out, "Attempts", fmt.Sprint(result.Attempts), 10)
	PrintKeyValue(out, "Duration", result.Duration.Round(time.Millisecond).String(), 10)
	if !result.Success {
		return fmt.Errorf("job %s failed: %s", result.JobName, result.Error)
	}
	PrintSuccess(out, "Job completed")
	return nil
}

func printJobs(cmd *cobra.Command, sched *scheduler.Scheduler) {
	out := cmd.OutOrStdout()
	widths := []int{20, 16, 19}
	PrintTableHeader(out, []string{"JOB", "SCHEDULE", "NEXT RUN"}, widths)

	stats := sched.GetJobStats()
	for _, name := range sched.GetAllJobs() {
		next := "-"
		if t, err := sched.NextRun(name); err == nil && !t.IsZero() {
			next = t.Format(time.DateTime)
		}
		PrintTableRow(out, []string{name, stats[name].Schedule, next}, widths)
	}
}

// initScheduler builds the runtime and registers every job.
// cleanup releases the runtime and must be called after the scheduler stops.
func initScheduler(ctx context.Context, cfg *config.Config, log *logger.Logger) (*scheduler.Scheduler, func(), error) {
	rt, err := newRuntime(ctx, cfg, log)
	if err != nil {
		return nil, nil, err
	}

	mc, yamlData, err := loadModelConfig(cfg, schedulerConfig)
	if err != nil {
		rt.Close()
		return nil, nil, err
	}

	sched := scheduler.New(log, scheduler.DefaultOptions())
	for _, job := range []scheduler.Job{
		jobs.NewResynthesisJob(rt.stores.loadPoints, rt.service, mc, yamlData, cfg.Synthesis.Schedule, log),
		jobs.NewHealthCheckJob(rt.stores.db, log),
	} {
		if err := sched.AddJob(job); err != nil {
			rt.Close()
			return nil, nil, err
		}
	}

	return sched, rt.Close, nil
}
