package commands

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/loadsynth/internal/contracts"
	"github.com/wonny/loadsynth/internal/ingest"
)

const radialNetwork = "../../../internal/network/testdata/radial.yaml"

// resetFlags restores defaults; cobra keeps parsed values between Execute calls
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	resetFlags(rootCmd)
	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func writeMeasured(t *testing.T) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("value\n")
	for i := 0; i < contracts.HoursPerYear; i++ {
		day := float64(i / 24 % 7)
		fmt.Fprintf(&b, "%.3f\n", 40+15*math.Sin(float64(i%24)/24*2*math.Pi)+day+float64(i%5))
	}
	path := filepath.Join(t.TempDir(), "measured.csv")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
	return path
}

func TestSynthesizeCommand(t *testing.T) {
	if testing.Short() {
		t.Skip("full-year synthesis")
	}
	measured := writeMeasured(t)
	html := filepath.Join(t.TempDir(), "run.html")

	out1, summary, err := execute(t, "synthesize", measured, "--seed", "7", "--variant", "B", "--html", html)
	require.NoError(t, err)
	assert.Contains(t, summary, "Synthetic peak")

	table, err := ingest.ReadSeries(strings.NewReader(out1), ingest.DefaultColumn)
	require.NoError(t, err)
	assert.Len(t, table.Series, contracts.HoursPerYear)
	assert.Zero(t, table.Missing)

	page, err := os.ReadFile(html)
	require.NoError(t, err)
	assert.Contains(t, string(page), "echarts")

	out2, _, err := execute(t, "synthesize", measured, "--seed", "7", "--variant", "B", "--html", html)
	require.NoError(t, err)
	assert.Equal(t, out1, out2, "same seed, same series")
}

func writeTemperatures(t *testing.T, name string, offset float64) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("value\n")
	for i := 0; i < contracts.HoursPerYear; i++ {
		fmt.Fprintf(&b, "%.2f\n", offset+6-12*math.Cos(2*math.Pi*float64(i/24)/365))
	}
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
	return path
}

func TestSynthesizeCommand_DegreeDay(t *testing.T) {
	measured := writeMeasured(t)
	temps := writeTemperatures(t, "temps.csv", 0)

	// one measured year cannot be its own reference
	_, _, err := execute(t, "synthesize", measured, "--seed", "3", "--temperatures", temps)
	assert.ErrorIs(t, err, contracts.ErrNoNormalYear)

	if testing.Short() {
		t.Skip("full-year synthesis")
	}
	normal := writeTemperatures(t, "normal.csv", 2)
	out, _, err := execute(t, "synthesize", measured, "--seed", "3", "--temperatures", temps, "--normal-temperatures", normal)
	require.NoError(t, err)

	table, err := ingest.ReadSeries(strings.NewReader(out), ingest.DefaultColumn)
	require.NoError(t, err)
	assert.Len(t, table.Series, contracts.HoursPerYear)
}

func TestSynthesizeCommand_Errors(t *testing.T) {
	short := filepath.Join(t.TempDir(), "short.csv")
	require.NoError(t, os.WriteFile(short, []byte("value\n1\n2\n3\n"), 0o644))

	_, _, err := execute(t, "synthesize", short, "--seed", "1")
	assert.ErrorIs(t, err, contracts.ErrDataLengthMismatch)

	_, _, err = execute(t, "synthesize", filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)

	_, _, err = execute(t, "synthesize", short, "--variant", "C")
	assert.ErrorContains(t, err, "curves.variant")
}

func TestLoadpointModelCommand_Args(t *testing.T) {
	_, _, err := execute(t, "loadpoint", "model", "feeder_a")
	assert.ErrorContains(t, err, "accepts 2 arg(s)")

	_, _, err = execute(t, "loadpoint", "model", "feeder_a", "feeder_b", "--target-peak", "-5")
	assert.ErrorContains(t, err, "scaling.target_peak_kw")
}

func TestNetworkCommands(t *testing.T) {
	out, _, err := execute(t, "network", "show", radialNetwork)
	require.NoError(t, err)
	assert.Equal(t, "5 nodes, roots: 1\n1\n  2\n    3\n    4\n  sub_a\n", out)

	out, _, err = execute(t, "network", "children", radialNetwork, "2")
	require.NoError(t, err)
	assert.Equal(t, "3\n4\n", out)

	_, _, err = execute(t, "network", "children", radialNetwork, "99")
	assert.Error(t, err)
}
