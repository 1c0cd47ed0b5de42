package scheduler

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// NodeInfo contains information about a task for visualization
type NodeInfo struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	State     string `json:"state"`
	Cancelled bool   `json:"cancelled,omitempty"`
}

// EdgeInfo contains information about a dependency edge
type EdgeInfo struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// GraphInfo contains the full graph structure for visualization
type GraphInfo struct {
	Nodes []NodeInfo `json:"nodes"`
	Edges []EdgeInfo `json:"edges"`
}

// Visualization renders the scheduler's dependency graph.
type Visualization struct {
	graph *Graph
}

// NewVisualization creates a visualization helper
func NewVisualization(graph *Graph) *Visualization {
	return &Visualization{graph: graph}
}

// GenerateInfo creates a representation of the graph for export
func (v *Visualization) GenerateInfo() *GraphInfo {
	ids := v.graph.TaskIDs()
	sort.Strings(ids)

	info := &GraphInfo{
		Nodes: make([]NodeInfo, 0, len(ids)),
	}

	for _, id := range ids {
		t, err := v.graph.Task(id)
		if err != nil {
			continue
		}

		info.Nodes = append(info.Nodes, NodeInfo{
			ID:        t.ID(),
			Name:      t.Name(),
			State:     t.State().String(),
			Cancelled: t.Cancelled(),
		})

		deps := v.graph.Dependencies(id)
		sort.Strings(deps)
		for _, depID := range deps {
			info.Edges = append(info.Edges, EdgeInfo{From: depID, To: id})
		}
	}

	return info
}

// GenerateJSON renders the graph as indented JSON
func (v *Visualization) GenerateJSON() (string, error) {
	info := v.GenerateInfo()

	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal graph info: %w", err)
	}

	return string(data), nil
}

// GenerateDOT renders the graph in Graphviz DOT format
func (v *Visualization) GenerateDOT() string {
	info := v.GenerateInfo()

	names := make(map[string]string, len(info.Nodes))

	var sb strings.Builder
	sb.WriteString("digraph tasks {\n")
	sb.WriteString("  rankdir=LR;\n")
	sb.WriteString("  node [shape=box, style=rounded];\n\n")

	for _, n := range info.Nodes {
		names[n.ID] = n.Name
		color := stateColor(n.State, n.Cancelled)
		sb.WriteString(fmt.Sprintf("  %q [label=%q, color=%q];\n", n.Name, n.Name, color))
	}

	sb.WriteString("\n")
	for _, e := range info.Edges {
		sb.WriteString(fmt.Sprintf("  %q -> %q;\n", names[e.From], names[e.To]))
	}
	sb.WriteString("}\n")

	return sb.String()
}

func stateColor(state string, cancelled bool) string {
	if cancelled {
		return "red"
	}
	switch state {
	case "executing":
		return "orange"
	case "finished":
		return "green"
	case "ready":
		return "blue"
	default:
		return "black"
	}
}
