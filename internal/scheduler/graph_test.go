package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskline/taskline/internal/lifecycle"
)

func TestNewGraph(t *testing.T) {
	g := NewGraph()
	assert.NotNil(t, g)
	assert.Equal(t, 0, g.Size())
}

func TestGraphAddTask(t *testing.T) {
	g := NewGraph()
	task := lifecycle.NewTask("build")

	require.NoError(t, g.AddTask(task))
	assert.Equal(t, 1, g.Size())

	got, err := g.Task(task.ID())
	require.NoError(t, err)
	assert.Same(t, task, got)
}

func TestGraphAddTaskRejectsNilAndDuplicate(t *testing.T) {
	g := NewGraph()
	task := lifecycle.NewTask("build")

	assert.Error(t, g.AddTask(nil))
	require.NoError(t, g.AddTask(task))
	assert.Error(t, g.AddTask(task))
}

func TestGraphEdges(t *testing.T) {
	g := NewGraph()
	a := lifecycle.NewTask("a")
	b := lifecycle.NewTask("b")
	c := lifecycle.NewTask("c")
	require.NoError(t, g.AddTask(a))
	require.NoError(t, g.AddTask(b))
	require.NoError(t, g.AddTask(c))

	require.NoError(t, g.AddEdge(a.ID(), c.ID()))
	require.NoError(t, g.AddEdge(b.ID(), c.ID()))

	deps := g.Dependencies(c.ID())
	assert.ElementsMatch(t, []string{a.ID(), b.ID()}, deps)

	dependents := g.Dependents(a.ID())
	assert.Equal(t, []string{c.ID()}, dependents)

	roots := g.Roots()
	assert.ElementsMatch(t, []string{a.ID(), b.ID()}, roots)
}

func TestGraphAddEdgeUnknownTask(t *testing.T) {
	g := NewGraph()
	a := lifecycle.NewTask("a")
	require.NoError(t, g.AddTask(a))

	assert.Error(t, g.AddEdge(a.ID(), "missing"))
	assert.Error(t, g.AddEdge("missing", a.ID()))
}

func TestGraphValidateDetectsCycle(t *testing.T) {
	g := NewGraph()
	a := lifecycle.NewTask("a")
	b := lifecycle.NewTask("b")
	require.NoError(t, g.AddTask(a))
	require.NoError(t, g.AddTask(b))

	require.NoError(t, g.AddEdge(a.ID(), b.ID()))
	require.NoError(t, g.Validate())

	require.NoError(t, g.AddEdge(b.ID(), a.ID()))
	assert.Error(t, g.Validate())
}
