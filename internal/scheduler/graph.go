package scheduler

import (
	"fmt"
	"sync"

	"github.com/autom8ter/dagger"

	"github.com/taskline/taskline/internal/lifecycle"
)

const (
	nodeType = "task"
	edgeType = "dependency"
)

// Graph tracks admitted tasks and their dependency edges. An edge
// from -> to means "to depends on from".
type Graph struct {
	graph *dagger.Graph
	tasks map[string]*lifecycle.Task
	mutex sync.RWMutex
}

// NewGraph creates an empty dependency graph
func NewGraph() *Graph {
	return &Graph{
		graph: dagger.NewGraph(),
		tasks: make(map[string]*lifecycle.Task),
	}
}

// AddTask adds a task node to the graph
func (g *Graph) AddTask(t *lifecycle.Task) error {
	if t == nil {
		return fmt.Errorf("task cannot be nil")
	}

	g.mutex.Lock()
	defer g.mutex.Unlock()

	if _, exists := g.tasks[t.ID()]; exists {
		return fmt.Errorf("task %s already in graph", t.ID())
	}

	path := dagger.Path{XID: t.ID(), XType: nodeType}
	attributes := dagger.Attributes{"task": t}
	g.graph.SetNode(path, attributes)

	g.tasks[t.ID()] = t
	return nil
}

// AddEdge records that toID depends on fromID
func (g *Graph) AddEdge(fromID, toID string) error {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	if _, exists := g.tasks[fromID]; !exists {
		return fmt.Errorf("task %s not in graph", fromID)
	}
	if _, exists := g.tasks[toID]; !exists {
		return fmt.Errorf("task %s not in graph", toID)
	}

	fromPath := dagger.Path{XID: fromID, XType: nodeType}
	toPath := dagger.Path{XID: toID, XType: nodeType}
	edgeNode := dagger.Node{
		Path:       dagger.Path{XType: edgeType},
		Attributes: dagger.Attributes{"type": "dependency"},
	}

	_, err := g.graph.SetEdge(fromPath, toPath, edgeNode)
	if err != nil {
		return fmt.Errorf("failed to add dependency %s -> %s: %w", fromID, toID, err)
	}

	return nil
}

// Task retrieves a task by its ID
func (g *Graph) Task(id string) (*lifecycle.Task, error) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	t, exists := g.tasks[id]
	if !exists {
		return nil, fmt.Errorf("task %s not found", id)
	}

	return t, nil
}

// Dependencies returns the IDs of tasks that must finish before the
// given task can run
func (g *Graph) Dependencies(id string) []string {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	return g.dependenciesUnsafe(id)
}

func (g *Graph) dependenciesUnsafe(id string) []string {
	var deps []string
	nodePath := dagger.Path{XID: id, XType: nodeType}

	g.graph.RangeEdgesTo(edgeType, nodePath, func(e dagger.Edge) bool {
		deps = append(deps, e.From.XID)
		return true
	})

	return deps
}

// Dependents returns the IDs of tasks that depend on the given task
func (g *Graph) Dependents(id string) []string {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	return g.dependentsUnsafe(id)
}

func (g *Graph) dependentsUnsafe(id string) []string {
	var dependents []string
	nodePath := dagger.Path{XID: id, XType: nodeType}

	g.graph.RangeEdgesFrom(edgeType, nodePath, func(e dagger.Edge) bool {
		dependents = append(dependents, e.To.XID)
		return true
	})

	return dependents
}

// TaskIDs returns all task IDs in the graph
func (g *Graph) TaskIDs() []string {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	ids := make([]string, 0, len(g.tasks))
	for id := range g.tasks {
		ids = append(ids, id)
	}

	return ids
}

// Roots returns all tasks with no dependencies
func (g *Graph) Roots() []string {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	var roots []string
	for id := range g.tasks {
		if len(g.dependenciesUnsafe(id)) == 0 {
			roots = append(roots, id)
		}
	}

	return roots
}

// Validate checks that the dependency relation is acyclic
func (g *Graph) Validate() error {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	if g.hasCycle() {
		return fmt.Errorf("dependency graph contains cycles")
	}

	return nil
}

// hasCycle checks for cycles using DFS
func (g *Graph) hasCycle() bool {
	visited := make(map[string]bool)
	recStack := make(map[string]bool)

	for id := range g.tasks {
		if !visited[id] {
			if g.hasCycleDFS(id, visited, recStack) {
				return true
			}
		}
	}

	return false
}

func (g *Graph) hasCycleDFS(id string, visited, recStack map[string]bool) bool {
	visited[id] = true
	recStack[id] = true

	for _, depID := range g.dependentsUnsafe(id) {
		if !visited[depID] {
			if g.hasCycleDFS(depID, visited, recStack) {
				return true
			}
		} else if recStack[depID] {
			return true // back edge, cycle
		}
	}

	recStack[id] = false
	return false
}

// Size returns the number of tasks in the graph
func (g *Graph) Size() int {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	return len(g.tasks)
}

// Close releases graph resources
func (g *Graph) Close() {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	if g.graph != nil {
		g.graph.Close()
	}
}
