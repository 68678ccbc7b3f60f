package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wonny/loadsynth/internal/network"
)

// networkCmd represents the network command
var networkCmd = &cobra.Command{
	Use:   "network",
	Short: "네트워크 토폴로지 조회",
	Long: `MATPOWER 형식(bus, branch) YAML 토폴로지를 조회합니다.

Example:
  go run ./cmd/loadsynth network show grid.yaml
  go run ./cmd/loadsynth network children grid.yaml 2`,
}

var (
	networkShowCmd = &cobra.Command{
		Use:   "show [grid.yaml]",
		Short: "루트부터 트리 형태로 출력",
		Args:  cobra.ExactArgs(1),
		RunE:  runNetworkShow,
	}

	networkChildrenCmd = &cobra.Command{
		Use:   "children [grid.yaml] [node]",
		Short: "노드의 직계 자식 출력",
		Args:  cobra.ExactArgs(2),
		RunE:  runNetworkChildren,
	}
)

func init() {
	rootCmd.AddCommand(networkCmd)
	networkCmd.AddCommand(networkShowCmd)
	networkCmd.AddCommand(networkChildrenCmd)
}

func runNetworkShow(cmd *cobra.Command, args []string) error {
	g, err := network.LoadFile(args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%d nodes, roots: %s\n", g.Len(), strings.Join(g.Roots(), ", "))
	for _, root := range g.Roots() {
		printTree(out, g, root, 0, map[string]bool{})
	}
	return nil
}

// printTree prints node and its descendants; a node reached twice is printed once
func printTree(w io.Writer, g *network.Graph, node string, depth int, seen map[string]bool) {
	if seen[node] {
		fmt.Fprintf(w, "%s%s (*)\n", strings.Repeat("  ", depth), node)
		return
	}
	seen[node] = true
	fmt.Fprintf(w, "%s%s\n", strings.Repeat("  ", depth), node)
	for _, child := range g.Children(node) {
		printTree(w, g, child, depth+1, seen)
	}
}

func runNetworkChildren(cmd *cobra.Command, args []string) error {
	g, err := network.LoadFile(args[0])
	if err != nil {
		return err
	}
	if !g.Has(args[1]) {
		return fmt.Errorf("%w: %s", network.ErrUnknownNode, args[1])
	}

	for _, child := range g.Children(args[1]) {
		fmt.Fprintln(cmd.OutOrStdout(), child)
	}
	return nil
}
