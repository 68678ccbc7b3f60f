package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/loadsynth/internal/loadpoint"
	"github.com/wonny/loadsynth/internal/modelconfig"
	"github.com/wonny/loadsynth/internal/runs"
	"github.com/wonny/loadsynth/pkg/config"
	"github.com/wonny/loadsynth/pkg/database"
	"github.com/wonny/loadsynth/pkg/logger"
)

var (
	// Global flags
	verbose   bool
	logFormat string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "loadsynth",
	Short: "시간별 전력 부하 합성기",
	Long: `loadsynth Unified CLI

측정된 시간별 부하로부터 통계적으로 유사한 합성 부하를 생성합니다.
6단계 파이프라인: 온도 보정 → 변동 곡선 → 최대 프로파일 → 편차 분포 → 확률 합성 → 평가.

Usage:
  go run ./cmd/loadsynth [command]

Examples:
  go run ./cmd/loadsynth synthesize measured.csv --seed 42 > synthetic.csv
  go run ./cmd/loadsynth loadpoint import feeder_a measured.csv
  go run ./cmd/loadsynth network show grid.yaml
  go run ./cmd/loadsynth api`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug 로그 출력")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format override (console|json)")
}

// bootstrap loads environment config and the logger shared by every command
func bootstrap() (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	if logFormat != "" {
		cfg.LogFormat = logFormat
	}
	return cfg, logger.New(cfg), nil
}

// loadModelConfig reads path, falling back to SYNTH_MODEL_CONFIG and then the built-in default.
// The raw YAML is nil for the built-in default.
func loadModelConfig(cfg *config.Config, path string) (*modelconfig.Config, []byte, error) {
	if path == "" {
		path = cfg.Synthesis.ModelConfigPath
	}
	if path == "" {
		return modelconfig.Default(), nil, nil
	}
	mc, data, err := modelconfig.Load(path)
	if err != nil {
		return nil, nil, fmt.Errorf("load model config: %w", err)
	}
	return mc, data, nil
}

// stores bundles the PostgreSQL-backed repositories
type stores struct {
	db         *database.DB
	loadPoints *loadpoint.Repository
	runs       *runs.Repository
}

// openStores connects to PostgreSQL and applies the schema
func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	db, err := database.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return &stores{
		db:         db,
		loadPoints: loadpoint.NewRepository(db.Pool),
		runs:       runs.NewRepository(db.Pool),
	}, nil
}

func (s *stores) Close() {
	s.db.Close()
}
