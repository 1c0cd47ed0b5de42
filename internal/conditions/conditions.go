// Package conditions provides ready-made readiness conditions for tasks.
package conditions

import (
	"os"
	"sync"
	"time"

	"github.com/taskline/taskline/internal/lifecycle"
)

// Delay is satisfied once the duration has elapsed after evaluation
// begins. Cancellation of the task short-circuits the wait; the report
// is still delivered exactly once.
type Delay struct {
	Duration time.Duration
}

func (c Delay) Evaluate(t *lifecycle.Task, report func(bool)) {
	timer := time.NewTimer(c.Duration)
	defer timer.Stop()

	select {
	case <-timer.C:
		report(true)
	case <-t.Context().Done():
		// The task is being torn down; the outcome no longer matters,
		// but the single-shot contract still holds.
		report(true)
	}
}

// FileExists is satisfied iff the path exists at evaluation time.
type FileExists struct {
	Path string
}

func (c FileExists) Evaluate(t *lifecycle.Task, report func(bool)) {
	_, err := os.Stat(c.Path)
	report(err == nil)
}

// EnvSet is satisfied iff the environment variable is non-empty.
type EnvSet struct {
	Name string
}

func (c EnvSet) Evaluate(t *lifecycle.Task, report func(bool)) {
	report(os.Getenv(c.Name) != "")
}

// DependenciesNotCancelled is satisfied iff none of the task's recorded
// dependencies finished cancelled. Dependency satisfaction alone is
// about reaching the terminal state; this condition is how a task opts
// out of running after an upstream failure.
type DependenciesNotCancelled struct{}

func (c DependenciesNotCancelled) Evaluate(t *lifecycle.Task, report func(bool)) {
	for _, dep := range t.Dependencies() {
		if dep.Cancelled() {
			report(false)
			return
		}
	}
	report(true)
}

// Not inverts the result of the wrapped condition.
type Not struct {
	Condition lifecycle.Condition
}

func (c Not) Evaluate(t *lifecycle.Task, report func(bool)) {
	c.Condition.Evaluate(t, func(satisfied bool) {
		report(!satisfied)
	})
}

// Gate is a manually controlled condition. Evaluations block until the
// gate is opened or rejected; a gate that is already open reports
// immediately. One gate may guard any number of tasks.
type Gate struct {
	mu      sync.Mutex
	decided bool
	open    bool
	pending []func(bool)
}

// NewGate creates a closed gate
func NewGate() *Gate {
	return &Gate{}
}

func (g *Gate) Evaluate(t *lifecycle.Task, report func(bool)) {
	g.mu.Lock()
	if g.decided {
		open := g.open
		g.mu.Unlock()
		report(open)
		return
	}
	g.pending = append(g.pending, report)
	g.mu.Unlock()
}

// Open satisfies all pending and future evaluations
func (g *Gate) Open() {
	g.decide(true)
}

// Reject fails all pending and future evaluations
func (g *Gate) Reject() {
	g.decide(false)
}

func (g *Gate) decide(open bool) {
	g.mu.Lock()
	if g.decided {
		g.mu.Unlock()
		return
	}
	g.decided = true
	g.open = open
	pending := g.pending
	g.pending = nil
	g.mu.Unlock()

	for _, report := range pending {
		report(open)
	}
}
