package network

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

var (
	// ErrUnknownNode node is not in the graph
	ErrUnknownNode = errors.New("unknown node")
	// ErrDuplicateNode node already exists
	ErrDuplicateNode = errors.New("duplicate node")
)

// Graph is a directed radial network: edges run from the feeding bus to the fed bus.
// Methods never share internal maps with callers.
type Graph struct {
	nodes    map[string]struct{}
	children map[string]map[string]struct{}
	parents  map[string]map[string]struct{}
}

// New returns an empty graph
func New() *Graph {
	return &Graph{
		nodes:    make(map[string]struct{}),
		children: make(map[string]map[string]struct{}),
		parents:  make(map[string]map[string]struct{}),
	}
}

// Branch is one MATPOWER branch row (from bus → to bus)
type Branch struct {
	From BusID `yaml:"fbus" json:"fbus"`
	To   BusID `yaml:"tbus" json:"tbus"`
}

// BusID accepts numeric or string bus identifiers
type BusID string

// UnmarshalYAML keeps the scalar text, so `1` and "1" are the same bus
func (b *BusID) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: bus id must be a scalar", node.Line)
	}
	*b = BusID(node.Value)
	return nil
}

// Matpower is the subset of a MATPOWER case the topology needs
type Matpower struct {
	Bus    []BusID  `yaml:"bus" json:"bus"`
	Branch []Branch `yaml:"branch" json:"branch"`
}

// FromMatpower builds a graph from bus and branch tables
func FromMatpower(m Matpower) (*Graph, error) {
	g := New()
	for _, b := range m.Bus {
		g.addNode(string(b))
	}
	for i, br := range m.Branch {
		from, to := string(br.From), string(br.To)
		if !g.Has(from) || !g.Has(to) {
			return nil, fmt.Errorf("%w: branch %d references %s → %s", ErrUnknownNode, i, from, to)
		}
		g.addEdge(from, to)
	}
	return g, nil
}

// LoadFile reads a YAML MATPOWER topology
func LoadFile(path string) (*Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m Matpower
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return FromMatpower(m)
}

// Matpower exports the graph back into bus/branch tables, sorted
func (g *Graph) Matpower() Matpower {
	var m Matpower
	for _, id := range g.Nodes() {
		m.Bus = append(m.Bus, BusID(id))
		for _, c := range g.Children(id) {
			m.Branch = append(m.Branch, Branch{From: BusID(id), To: BusID(c)})
		}
	}
	return m
}

// AddNode attaches id below parent. An empty parent adds a root.
func (g *Graph) AddNode(id, parent string) error {
	if id == "" {
		return fmt.Errorf("empty node id")
	}
	if g.Has(id) {
		return fmt.Errorf("%w: %s", ErrDuplicateNode, id)
	}
	if parent != "" && !g.Has(parent) {
		return fmt.Errorf("%w: parent %s", ErrUnknownNode, parent)
	}
	g.addNode(id)
	if parent != "" {
		g.addEdge(parent, id)
	}
	return nil
}

// RemoveNode deletes id and its incident edges; its children stay as roots
func (g *Graph) RemoveNode(id string) error {
	if !g.Has(id) {
		return fmt.Errorf("%w: %s", ErrUnknownNode, id)
	}
	for c := range g.children[id] {
		delete(g.parents[c], id)
	}
	for p := range g.parents[id] {
		delete(g.children[p], id)
	}
	delete(g.children, id)
	delete(g.parents, id)
	delete(g.nodes, id)
	return nil
}

// Has reports whether id is in the graph
func (g *Graph) Has(id string) bool {
	_, ok := g.nodes[id]
	return ok
}

// Len returns the node count
func (g *Graph) Len() int {
	return len(g.nodes)
}

// Nodes returns all node ids, sorted
func (g *Graph) Nodes() []string {
	return sortedKeys(g.nodes)
}

// Children returns the direct successors of id, sorted
func (g *Graph) Children(id string) []string {
	return sortedKeys(g.children[id])
}

// Parents returns the direct predecessors of id, sorted
func (g *Graph) Parents(id string) []string {
	return sortedKeys(g.parents[id])
}

// Roots returns nodes without a parent, sorted
func (g *Graph) Roots() []string {
	var roots []string
	for _, id := range g.Nodes() {
		if len(g.parents[id]) == 0 {
			roots = append(roots, id)
		}
	}
	return roots
}

// Subtree returns id and every node reachable from it, in breadth-first order
func (g *Graph) Subtree(id string) []string {
	if !g.Has(id) {
		return nil
	}
	seen := map[string]bool{id: true}
	out := []string{id}
	for i := 0; i < len(out); i++ {
		for _, c := range g.Children(out[i]) {
			if !seen[c] {
				seen[c] = true
				out = append(out, c)
			}
		}
	}
	return out
}

// Clone returns an independent deep copy
func (g *Graph) Clone() *Graph {
	c := New()
	for id := range g.nodes {
		c.addNode(id)
	}
	for from, tos := range g.children {
		for to := range tos {
			c.addEdge(from, to)
		}
	}
	return c
}

func (g *Graph) addNode(id string) {
	g.nodes[id] = struct{}{}
}

func (g *Graph) addEdge(from, to string) {
	if g.children[from] == nil {
		g.children[from] = make(map[string]struct{})
	}
	if g.parents[to] == nil {
		g.parents[to] = make(map[string]struct{})
	}
	g.children[from][to] = struct{}{}
	g.parents[to][from] = struct{}{}
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
