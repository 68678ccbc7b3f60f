package commands

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/loadsynth/internal/contracts"
	"github.com/wonny/loadsynth/internal/ingest"
	"github.com/wonny/loadsynth/internal/loadpoint"
	"github.com/wonny/loadsynth/internal/modelconfig"
	"github.com/wonny/loadsynth/internal/network"
	"github.com/wonny/loadsynth/internal/synthesis"
)

// loadpointCmd represents the loadpoint command
var loadpointCmd = &cobra.Command{
	Use:   "loadpoint",
	Short: "부하 지점 관리",
	Long: `PostgreSQL에 저장된 부하 지점(시간별 측정 부하)을 관리합니다.

Subcommands:
  import     - CSV에서 부하 지점 가져오기
  list       - 부하 지점 목록
  scale      - 계수 또는 목표 최대값으로 스케일
  offset     - 상수 kW 더하기
  copy       - 부하 지점 복제
  delete     - 부하 지점 삭제
  aggregate  - 네트워크 하위 트리 부하 합계 (CSV)
  model      - 기존 부하 지점을 합성해 새 부하 지점으로 추가

--network 파일을 주면 부모 노드가 토폴로지에 존재하는지 검증합니다.

Example:
  go run ./cmd/loadsynth loadpoint import feeder_a measured.csv --start-day tuesday
  go run ./cmd/loadsynth loadpoint scale feeder_a --peak 500
  go run ./cmd/loadsynth loadpoint copy feeder_a feeder_b --parent 2 --network grid.yaml
  go run ./cmd/loadsynth loadpoint model feeder_a feeder_c --parent 2 --target-peak 800 --seed 1`,
}

var (
	loadpointImportCmd = &cobra.Command{
		Use:   "import [id] [measured.csv]",
		Short: "CSV에서 부하 지점 가져오기",
		Args:  cobra.ExactArgs(2),
		RunE:  runLoadpointImport,
	}

	loadpointListCmd = &cobra.Command{
		Use:   "list",
		Short: "부하 지점 목록",
		Args:  cobra.NoArgs,
		RunE:  runLoadpointList,
	}

	loadpointScaleCmd = &cobra.Command{
		Use:   "scale [id]",
		Short: "계수(--factor) 또는 목표 최대값(--peak)으로 스케일",
		Args:  cobra.ExactArgs(1),
		RunE:  runLoadpointScale,
	}

	loadpointOffsetCmd = &cobra.Command{
		Use:   "offset [id] [kw]",
		Short: "모든 시간에 상수 kW 더하기",
		Args:  cobra.ExactArgs(2),
		RunE:  runLoadpointOffset,
	}

	loadpointCopyCmd = &cobra.Command{
		Use:   "copy [src] [dst]",
		Short: "부하 지점 복제",
		Args:  cobra.ExactArgs(2),
		RunE:  runLoadpointCopy,
	}

	loadpointDeleteCmd = &cobra.Command{
		Use:   "delete [id]",
		Short: "부하 지점 삭제",
		Args:  cobra.ExactArgs(1),
		RunE:  runLoadpointDelete,
	}

	loadpointModelCmd = &cobra.Command{
		Use:   "model [src] [dst]",
		Short: "src를 합성해 dst 부하 지점으로 추가 (선택적으로 목표 최대값으로 스케일)",
		Args:  cobra.ExactArgs(2),
		RunE:  runLoadpointModel,
	}

	loadpointAggregateCmd = &cobra.Command{
		Use:   "aggregate [node]",
		Short: "네트워크 노드 하위 부하 합계를 CSV로 출력",
		Args:  cobra.ExactArgs(1),
		RunE:  runLoadpointAggregate,
	}
)

var lpFlags struct {
	network  string
	parent   string
	startDay string
	column   string
	factor   float64
	peak     float64
	config   string
	seed     uint64
}

func init() {
	rootCmd.AddCommand(loadpointCmd)
	loadpointCmd.AddCommand(loadpointImportCmd)
	loadpointCmd.AddCommand(loadpointListCmd)
	loadpointCmd.AddCommand(loadpointScaleCmd)
	loadpointCmd.AddCommand(loadpointOffsetCmd)
	loadpointCmd.AddCommand(loadpointCopyCmd)
	loadpointCmd.AddCommand(loadpointDeleteCmd)
	loadpointCmd.AddCommand(loadpointAggregateCmd)
	loadpointCmd.AddCommand(loadpointModelCmd)

	loadpointCmd.PersistentFlags().StringVar(&lpFlags.network, "network", "", "네트워크 토폴로지 YAML")

	loadpointImportCmd.Flags().StringVar(&lpFlags.parent, "parent", "", "부모 네트워크 노드")
	loadpointImportCmd.Flags().StringVar(&lpFlags.startDay, "start-day", "monday", "첫 측정일의 요일")
	loadpointImportCmd.Flags().StringVar(&lpFlags.column, "column", ingest.DefaultColumn, "부하 값 열 이름")

	loadpointScaleCmd.Flags().Float64Var(&lpFlags.factor, "factor", 0, "곱할 계수")
	loadpointScaleCmd.Flags().Float64Var(&lpFlags.peak, "peak", 0, "목표 최대값 (kW)")
	loadpointScaleCmd.MarkFlagsMutuallyExclusive("factor", "peak")
	loadpointScaleCmd.MarkFlagsOneRequired("factor", "peak")

	loadpointCopyCmd.Flags().StringVar(&lpFlags.parent, "parent", "", "복제본의 부모 네트워크 노드")

	loadpointModelCmd.Flags().StringVar(&lpFlags.parent, "parent", "", "새 부하 지점의 부모 네트워크 노드")
	loadpointModelCmd.Flags().Float64Var(&lpFlags.peak, "target-peak", 0, "합성 전 측정 부하를 이 최대값(kW)으로 스케일")
	loadpointModelCmd.Flags().StringVar(&lpFlags.config, "config", "", "모델 설정 YAML (default: SYNTH_MODEL_CONFIG or built-in)")
	loadpointModelCmd.Flags().Uint64Var(&lpFlags.seed, "seed", 0, "난수 시드 (생략 시 비결정적)")
}

// withManager opens the repository and runs fn with a Manager over it
func withManager(cmd *cobra.Command, fn func(ctx context.Context, m *loadpoint.Manager) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, _, err := bootstrap()
	if err != nil {
		return err
	}

	var net *network.Graph
	if lpFlags.network != "" {
		if net, err = network.LoadFile(lpFlags.network); err != nil {
			return err
		}
	}

	st, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	return fn(ctx, loadpoint.NewManager(st.loadPoints, net))
}

func runLoadpointImport(cmd *cobra.Command, args []string) error {
	id, path := args[0], args[1]

	startDay, err := contracts.ParseWeekday(lpFlags.startDay)
	if err != nil {
		return err
	}
	table, err := readTable(cmd.InOrStdin(), path, lpFlags.column)
	if err != nil {
		return err
	}
	if _, err := table.Series.Years(); err != nil {
		PrintWarning(cmd.ErrOrStderr(), fmt.Sprintf("%s cannot be synthesized until it spans whole years: %v", id, err))
	}

	return withManager(cmd, func(ctx context.Context, m *loadpoint.Manager) error {
		lp := &loadpoint.LoadPoint{
			ID:        id,
			ParentID:  lpFlags.parent,
			StartDay:  startDay,
			Series:    table.Series,
			UpdatedAt: time.Now(),
		}
		if err := m.Add(ctx, lp); err != nil {
			return err
		}
		PrintSuccess(cmd.ErrOrStderr(), fmt.Sprintf("imported %s: %d hours, peak %s kW, %d missing",
			id, len(table.Series), formatKW(table.Series.Peak()), table.Missing))
		return nil
	})
}

func runLoadpointList(cmd *cobra.Command, args []string) error {
	return withManager(cmd, func(ctx context.Context, m *loadpoint.Manager) error {
		list, err := m.Store().List(ctx)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		widths := []int{20, 12, 10, 8, 12, 19}
		PrintTableHeader(out, []string{"ID", "PARENT", "START", "HOURS", "PEAK (kW)", "UPDATED"}, widths)
		for _, lp := range list {
			PrintTableRow(out, []string{
				lp.ID,
				lp.ParentID,
				lp.StartDay.String(),
				strconv.Itoa(lp.Hours),
				formatKW(lp.Peak),
				lp.UpdatedAt.Format(time.DateTime),
			}, widths)
		}
		return nil
	})
}

func runLoadpointScale(cmd *cobra.Command, args []string) error {
	return withManager(cmd, func(ctx context.Context, m *loadpoint.Manager) error {
		lp, err := m.Update(ctx, args[0], func(s contracts.HourlySeries) (contracts.HourlySeries, error) {
			if cmd.Flags().Changed("peak") {
				return loadpoint.ScaleToPeak(s, lpFlags.peak)
			}
			return loadpoint.Scale(s, lpFlags.factor), nil
		})
		if err != nil {
			return err
		}
		PrintSuccess(cmd.ErrOrStderr(), fmt.Sprintf("%s peak is now %s kW", lp.ID, formatKW(lp.Series.Peak())))
		return nil
	})
}

func runLoadpointOffset(cmd *cobra.Command, args []string) error {
	delta, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return fmt.Errorf("offset %q: %w", args[1], err)
	}

	return withManager(cmd, func(ctx context.Context, m *loadpoint.Manager) error {
		lp, err := m.Update(ctx, args[0], func(s contracts.HourlySeries) (contracts.HourlySeries, error) {
			return loadpoint.Offset(s, delta), nil
		})
		if err != nil {
			return err
		}
		PrintSuccess(cmd.ErrOrStderr(), fmt.Sprintf("%s peak is now %s kW", lp.ID, formatKW(lp.Series.Peak())))
		return nil
	})
}

func runLoadpointCopy(cmd *cobra.Command, args []string) error {
	return withManager(cmd, func(ctx context.Context, m *loadpoint.Manager) error {
		cp, err := m.Copy(ctx, args[0], args[1], lpFlags.parent)
		if err != nil {
			return err
		}
		PrintSuccess(cmd.ErrOrStderr(), fmt.Sprintf("copied %s to %s", args[0], cp.ID))
		return nil
	})
}

func runLoadpointDelete(cmd *cobra.Command, args []string) error {
	return withManager(cmd, func(ctx context.Context, m *loadpoint.Manager) error {
		if err := m.Remove(ctx, args[0]); err != nil {
			return err
		}
		PrintSuccess(cmd.ErrOrStderr(), "deleted "+args[0])
		return nil
	})
}

func runLoadpointAggregate(cmd *cobra.Command, args []string) error {
	if lpFlags.network == "" {
		return fmt.Errorf("aggregate requires --network")
	}
	return withManager(cmd, func(ctx context.Context, m *loadpoint.Manager) error {
		sum, n, err := m.Aggregate(ctx, args[0])
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("no load points below %s", args[0])
		}
		PrintSuccess(cmd.ErrOrStderr(), fmt.Sprintf("summed %d load points below %s", n, args[0]))
		return ingest.WriteSeries(cmd.OutOrStdout(), sum, time.Time{})
	})
}

func runLoadpointModel(cmd *cobra.Command, args []string) error {
	src, dst := args[0], args[1]
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}
	mc, _, err := loadModelConfig(cfg, lpFlags.config)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("target-peak") {
		mc.Scaling.TargetPeakKW = lpFlags.peak
	}
	if flags.Changed("seed") {
		seed := lpFlags.seed
		mc.Synthesis.Seed = &seed
	}
	if err := modelconfig.Validate(mc); err != nil {
		return err
	}

	var net *network.Graph
	if lpFlags.network != "" {
		if net, err = network.LoadFile(lpFlags.network); err != nil {
			return err
		}
	}

	rt, err := newRuntime(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer rt.Close()

	out, lp, err := rt.service.Model(ctx, loadpoint.NewManager(rt.stores.loadPoints, net), synthesis.ModelRequest{
		Request:  synthesis.Request{LoadPointID: src, Config: mc},
		TargetID: dst,
		ParentID: lpFlags.parent,
	})
	if err != nil {
		return err
	}

	w := cmd.ErrOrStderr()
	PrintSuccess(w, fmt.Sprintf("modeled %s from %s", lp.ID, src))
	PrintKeyValue(w, "Run", out.Run.ID, 16)
	PrintKeyValue(w, "Synthetic peak", formatKW(lp.Series.Peak())+" kW", 16)
	PrintKeyValue(w, "Metric", fmt.Sprintf("%.4f", out.Run.Metric), 16)
	return nil
}
