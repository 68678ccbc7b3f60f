package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/loadsynth/internal/calendar"
	"github.com/wonny/loadsynth/internal/contracts"
	"github.com/wonny/loadsynth/internal/export"
	"github.com/wonny/loadsynth/internal/external/frost"
	"github.com/wonny/loadsynth/internal/ingest"
	"github.com/wonny/loadsynth/internal/modelconfig"
	"github.com/wonny/loadsynth/internal/pipeline"
	"github.com/wonny/loadsynth/internal/plotting"
	"github.com/wonny/loadsynth/internal/s0_correction"
	"github.com/wonny/loadsynth/internal/synthesis"
	"github.com/wonny/loadsynth/pkg/config"
	"github.com/wonny/loadsynth/pkg/httputil"
	"github.com/wonny/loadsynth/pkg/logger"
	"github.com/wonny/loadsynth/pkg/redis"
)

// synthesizeCmd represents the synthesize command
var synthesizeCmd = &cobra.Command{
	Use:   "synthesize [measured.csv|-]",
	Short: "CSV 측정 부하로 합성 부하 생성",
	Long: `측정된 시간별 부하 CSV를 읽어 합성 부하 CSV를 stdout으로 출력합니다.

입력 CSV는 value 열(또는 --column)과 선택적 timestamp 열을 가집니다.
빈 칸은 결측으로 처리됩니다. 길이는 8760의 배수여야 합니다.

요약과 로그는 stderr로 출력되므로 stdout을 파일로 리다이렉트할 수 있습니다.

Example:
  go run ./cmd/loadsynth synthesize measured.csv --seed 42 > synthetic.csv
  go run ./cmd/loadsynth synthesize measured.csv --variant B --mode individual --years 3
  go run ./cmd/loadsynth synthesize measured.csv --plots out/plots --html out/run.html
  go run ./cmd/loadsynth synthesize measured.csv --temperatures temps.csv --normal-temperatures normal.csv --config model.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runSynthesize,
}

var synthFlags struct {
	config       string
	column       string
	seed         uint64
	startDay     string
	years        int
	variant      string
	mode         string
	targetPeak   float64
	ensemble     int
	temperatures string
	normalTemps  string
	output       string
	plots        string
	html         string
	influx       bool
	name         string
}

func init() {
	rootCmd.AddCommand(synthesizeCmd)

	f := synthesizeCmd.Flags()
	f.StringVar(&synthFlags.config, "config", "", "모델 설정 YAML (default: SYNTH_MODEL_CONFIG or built-in)")
	f.StringVar(&synthFlags.column, "column", ingest.DefaultColumn, "부하 값 열 이름")
	f.Uint64Var(&synthFlags.seed, "seed", 0, "난수 시드 (생략 시 비결정적)")
	f.StringVar(&synthFlags.startDay, "start-day", "", "첫 날의 요일 (monday..sunday)")
	f.IntVar(&synthFlags.years, "years", 0, "합성 연수")
	f.StringVar(&synthFlags.variant, "variant", "", "변동 곡선 변형 (A|B)")
	f.StringVar(&synthFlags.mode, "mode", "", "편차 모드 (shared|individual)")
	f.Float64Var(&synthFlags.targetPeak, "target-peak", 0, "측정 부하를 이 최대값(kW)으로 스케일")
	f.IntVar(&synthFlags.ensemble, "ensemble", 0, "최대값 통계용 추가 합성 횟수")
	f.StringVar(&synthFlags.temperatures, "temperatures", "", "시간별 외기온도 CSV (degree_day 보정)")
	f.StringVar(&synthFlags.normalTemps, "normal-temperatures", "", "기준 연도 외기온도 CSV (1년 측정값 보정에 필요)")
	f.StringVarP(&synthFlags.output, "output", "o", "", "합성 CSV 출력 파일 (default: stdout)")
	f.StringVar(&synthFlags.plots, "plots", "", "단계별 PNG 출력 디렉터리")
	f.StringVar(&synthFlags.html, "html", "", "HTML 차트 출력 파일")
	f.BoolVar(&synthFlags.influx, "influx", false, "InfluxDB로 합성 시계열 내보내기")
	f.StringVar(&synthFlags.name, "name", "", "내보내기용 부하 지점 이름 (default: 입력 파일명)")
}

func runSynthesize(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	summary := cmd.ErrOrStderr()

	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}

	mc, err := synthesisConfig(cmd, cfg)
	if err != nil {
		return err
	}
	for _, w := range modelconfig.Warn(mc) {
		log.WithField("code", w.Code).Warn(w.Message)
	}

	table, err := readTable(cmd.InOrStdin(), args[0], synthFlags.column)
	if err != nil {
		return err
	}
	if table.Missing > 0 {
		log.WithField("missing", table.Missing).Info("Measured series has missing readings")
	}

	temps, normal, err := synthesisTemperatures(ctx, cfg, mc, table, log)
	if err != nil {
		return err
	}

	cal, err := calendar.New(mc.StartWeekday(), mc.Calendar.NumYears)
	if err != nil {
		return err
	}

	var observers []pipeline.Observer
	if synthFlags.plots != "" {
		observers = append(observers, plotting.NewPNGObserver(synthFlags.plots))
	}

	p, err := pipeline.New(pipeline.OptionsFromConfig(mc), log, observers...)
	if err != nil {
		return err
	}
	result, err := p.Run(ctx, pipeline.Input{
		Raw:                table.Series,
		Calendar:           cal,
		Seed:               mc.Synthesis.Seed,
		Temperatures:       temps,
		NormalTemperatures: normal,
	})
	if err != nil {
		return err
	}

	var ensemble *pipeline.EnsembleResult
	if mc.Synthesis.EnsembleRuns > 0 {
		if ensemble, err = p.Ensemble(ctx, result, mc.Synthesis.EnsembleRuns, mc.Synthesis.Seed); err != nil {
			return err
		}
	}

	if err := writeSynthetic(cmd.OutOrStdout(), synthFlags.output, result.Synthetic, mc.StartTime()); err != nil {
		return err
	}

	if synthFlags.html != "" {
		if err := writeHTML(synthFlags.html, result); err != nil {
			return err
		}
	}

	if synthFlags.influx {
		name := synthFlags.name
		if name == "" {
			name = strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
		}
		if err := exportInflux(ctx, cfg, log, name, result, mc.StartTime()); err != nil {
			return err
		}
	}

	printRunSummary(summary, result, ensemble)
	return nil
}

// synthesisConfig loads the model config and applies command-line overrides
func synthesisConfig(cmd *cobra.Command, cfg *config.Config) (*modelconfig.Config, error) {
	mc, _, err := loadModelConfig(cfg, synthFlags.config)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("seed") {
		seed := synthFlags.seed
		mc.Synthesis.Seed = &seed
	}
	if synthFlags.startDay != "" {
		mc.Calendar.StartDay = synthFlags.startDay
	}
	if synthFlags.years > 0 {
		mc.Calendar.NumYears = synthFlags.years
	}
	if synthFlags.variant != "" {
		mc.Curves.Variant = synthFlags.variant
	}
	if synthFlags.mode != "" {
		mc.Deviation.Mode = synthFlags.mode
	}
	if flags.Changed("target-peak") {
		mc.Scaling.TargetPeakKW = synthFlags.targetPeak
	}
	if flags.Changed("ensemble") {
		mc.Synthesis.EnsembleRuns = synthFlags.ensemble
	}
	if synthFlags.normalTemps != "" {
		mc.Correction.NormalTemperatures = synthFlags.normalTemps
	}
	if synthFlags.temperatures != "" && mc.Correction.Method == s0_correction.MethodNone {
		mc.Correction.Method = s0_correction.MethodDegreeDay
	}
	if cfg.Synthesis.Workers > 0 && mc.Synthesis.Workers == 0 {
		mc.Synthesis.Workers = cfg.Synthesis.Workers
	}

	if err := modelconfig.Validate(mc); err != nil {
		return nil, err
	}
	return mc, nil
}

// readTable reads a series from path, or from stdin when path is "-"
func readTable(stdin io.Reader, path, column string) (*ingest.Table, error) {
	if path == "-" {
		return ingest.ReadSeries(stdin, column)
	}
	return ingest.ReadFile(path, column)
}

// synthesisTemperatures resolves the degree-day temperature series: a CSV file first,
// then Frost observations for the configured station starting at the measured timestamps.
// The normal year follows correction.normal_temperatures or correction.normal_years.
func synthesisTemperatures(ctx context.Context, cfg *config.Config, mc *modelconfig.Config, table *ingest.Table, log *logger.Logger) (temps, normal contracts.HourlySeries, err error) {
	if mc.Correction.Method != s0_correction.MethodDegreeDay {
		return nil, nil, nil
	}

	var src synthesis.TemperatureSource
	if synthFlags.temperatures == "" || mc.Correction.NormalYears > 0 {
		if mc.Correction.Station == "" || table.Start.IsZero() {
			return nil, nil, fmt.Errorf("degree_day correction needs --temperatures, or correction.station and a timestamp column")
		}
		rc, err := redis.New(ctx, cfg)
		if err != nil {
			log.WithError(err).Warn("Redis unavailable, fetching temperatures uncached")
			rc = redis.Disabled()
		}
		defer rc.Close()
		src = frost.NewClient(httputil.New(log), redis.NewCache(rc, "loadsynth"), cfg.Frost, log)
	}

	if synthFlags.temperatures != "" {
		t, err := readTable(nil, synthFlags.temperatures, ingest.DefaultColumn)
		if err != nil {
			return nil, nil, fmt.Errorf("temperatures: %w", err)
		}
		temps = t.Series
	} else if temps, err = src.HourlyTemperatures(ctx, mc.Correction.Station, table.Start, len(table.Series)); err != nil {
		return nil, nil, err
	}

	normal, err = synthesis.NormalTemperatures(ctx, src, mc, table.Start)
	if err != nil {
		return nil, nil, err
	}
	return temps, normal, nil
}

func writeSynthetic(stdout io.Writer, path string, series contracts.HourlySeries, start time.Time) error {
	if path == "" {
		return ingest.WriteSeries(stdout, series, start)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := ingest.WriteSeries(f, series, start); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeHTML(path string, result *pipeline.Result) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := plotting.RenderHTML(f, plotting.ChartFromResult(result)); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func exportInflux(ctx context.Context, cfg *config.Config, log *logger.Logger, name string, result *pipeline.Result, start time.Time) error {
	if start.IsZero() {
		return fmt.Errorf("influx export needs calendar.start_date for timestamps")
	}
	w, err := export.NewInfluxWriter(cfg.Influx, log)
	if err != nil {
		return err
	}
	defer w.Close()

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := w.Ping(pingCtx); err != nil {
		return err
	}

	_, err = w.Write(ctx, export.Series{
		LoadPointID: name,
		RunID:       result.RunID,
		Start:       start,
		Values:      result.Synthetic,
	})
	return err
}

func printRunSummary(w io.Writer, result *pipeline.Result, ensemble *pipeline.EnsembleResult) {
	const width = 16

	PrintHeader(w, "Synthesis run "+result.RunID)
	PrintKeyValue(w, "Variant", string(result.Options.Variant), width)
	PrintKeyValue(w, "Mode", string(result.Options.Mode), width)
	if result.Seed != nil {
		PrintKeyValue(w, "Seed", strconv.FormatUint(*result.Seed, 10), width)
	}
	PrintKeyValue(w, "Hours", strconv.Itoa(len(result.Synthetic)), width)
	PrintKeyValue(w, "Measured peak", formatKW(result.Peak), width)
	PrintKeyValue(w, "Synthetic peak", formatKW(result.Report.SyntheticPeak), width)
	PrintKeyValue(w, "Metric", strconv.FormatFloat(result.Report.Metric, 'f', 3, 64), width)
	PrintKeyValue(w, "Mean error", strconv.FormatFloat(result.Report.MeanError, 'f', 4, 64), width)

	if ensemble != nil && ensemble.Stats != nil {
		PrintSeparator(w)
		PrintKeyValue(w, "Ensemble runs", strconv.Itoa(ensemble.Stats.Runs), width)
		PrintKeyValue(w, "Peak mean", formatKW(ensemble.Stats.Mean), width)
		PrintKeyValue(w, "Peak p90", formatKW(ensemble.Stats.P90), width)
		PrintKeyValue(w, "Peak p99", formatKW(ensemble.Stats.P99), width)
	}

	PrintSeparator(w)
	for _, st := range result.Stages {
		PrintKeyValue(w, st.Stage.ShortName(), fmt.Sprintf("%-24s %s", st.Stage.Description(), st.Duration.Round(time.Millisecond)), width)
	}
	PrintSuccess(w, fmt.Sprintf("completed in %s", result.Duration.Round(time.Millisecond)))
}
