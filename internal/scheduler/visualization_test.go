package scheduler

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskline/taskline/internal/lifecycle"
)

func buildTestGraph(t *testing.T) *Graph {
	t.Helper()

	g := NewGraph()
	a := lifecycle.NewTask("compile")
	b := lifecycle.NewTask("test")
	require.NoError(t, g.AddTask(a))
	require.NoError(t, g.AddTask(b))
	require.NoError(t, g.AddEdge(a.ID(), b.ID()))
	return g
}

func TestGenerateInfo(t *testing.T) {
	g := buildTestGraph(t)
	v := NewVisualization(g)

	info := v.GenerateInfo()

	require.Len(t, info.Nodes, 2)
	require.Len(t, info.Edges, 1)
	for _, n := range info.Nodes {
		assert.Equal(t, "initialized", n.State)
	}
}

func TestGenerateJSON(t *testing.T) {
	g := buildTestGraph(t)
	v := NewVisualization(g)

	out, err := v.GenerateJSON()
	require.NoError(t, err)

	var info GraphInfo
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Len(t, info.Nodes, 2)
	assert.Len(t, info.Edges, 1)
}

func TestGenerateDOT(t *testing.T) {
	g := buildTestGraph(t)
	v := NewVisualization(g)

	dot := v.GenerateDOT()

	assert.True(t, strings.HasPrefix(dot, "digraph tasks {"))
	assert.Contains(t, dot, `"compile"`)
	assert.Contains(t, dot, `"test"`)
	assert.Contains(t, dot, `"compile" -> "test";`)
}
