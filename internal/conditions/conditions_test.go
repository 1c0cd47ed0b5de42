package conditions

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskline/taskline/internal/lifecycle"
)

func evaluate(t *testing.T, c lifecycle.Condition, task *lifecycle.Task) bool {
	t.Helper()

	result := make(chan bool, 1)
	go c.Evaluate(task, func(satisfied bool) {
		result <- satisfied
	})

	select {
	case satisfied := <-result:
		return satisfied
	case <-time.After(2 * time.Second):
		t.Fatal("condition did not report")
		return false
	}
}

func TestDelayReportsAfterDuration(t *testing.T) {
	task := lifecycle.NewTask("t")
	start := time.Now()

	satisfied := evaluate(t, Delay{Duration: 30 * time.Millisecond}, task)

	assert.True(t, satisfied)
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}

func TestDelayShortCircuitsOnCancel(t *testing.T) {
	task := lifecycle.NewTask("t")
	task.Cancel()

	start := time.Now()
	satisfied := evaluate(t, Delay{Duration: 10 * time.Second}, task)

	assert.True(t, satisfied)
	assert.Less(t, time.Since(start), time.Second)
}

func TestFileExists(t *testing.T) {
	task := lifecycle.NewTask("t")
	path := filepath.Join(t.TempDir(), "marker")

	assert.False(t, evaluate(t, FileExists{Path: path}, task))

	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	assert.True(t, evaluate(t, FileExists{Path: path}, task))
}

func TestEnvSet(t *testing.T) {
	task := lifecycle.NewTask("t")

	t.Setenv("TASKLINE_TEST_VAR", "")
	assert.False(t, evaluate(t, EnvSet{Name: "TASKLINE_TEST_VAR"}, task))

	t.Setenv("TASKLINE_TEST_VAR", "1")
	assert.True(t, evaluate(t, EnvSet{Name: "TASKLINE_TEST_VAR"}, task))
}

func TestDependenciesNotCancelled(t *testing.T) {
	dep := lifecycle.NewTask("dep")
	task := lifecycle.NewTask("t")
	task.AddDependency(dep)

	assert.True(t, evaluate(t, DependenciesNotCancelled{}, task))

	dep.Cancel()
	assert.False(t, evaluate(t, DependenciesNotCancelled{}, task))
}

func TestNot(t *testing.T) {
	task := lifecycle.NewTask("t")

	always := lifecycle.ConditionFunc(func(t *lifecycle.Task, report func(bool)) {
		report(true)
	})

	assert.False(t, evaluate(t, Not{Condition: always}, task))
}

func TestGateOpen(t *testing.T) {
	task := lifecycle.NewTask("t")
	gate := NewGate()

	var reported atomic.Int32
	var got atomic.Bool
	go gate.Evaluate(task, func(satisfied bool) {
		got.Store(satisfied)
		reported.Add(1)
	})

	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, int32(0), reported.Load())

	gate.Open()
	require.Eventually(t, func() bool {
		return reported.Load() == 1
	}, 2*time.Second, 5*time.Millisecond)
	assert.True(t, got.Load())

	// Already-open gate reports immediately
	assert.True(t, evaluate(t, gate, task))
}

func TestGateReject(t *testing.T) {
	task := lifecycle.NewTask("t")
	gate := NewGate()
	gate.Reject()

	assert.False(t, evaluate(t, gate, task))

	// First decision wins
	gate.Open()
	assert.False(t, evaluate(t, gate, task))
}

func TestGateGatesTaskThroughLifecycle(t *testing.T) {
	task := lifecycle.NewTask("t")
	gate := NewGate()
	task.AddCondition(gate)
	task.MarkEnqueued()
	task.DependenciesResolved()

	require.Equal(t, lifecycle.StateEvaluating, task.State())

	gate.Open()
	require.Eventually(t, func() bool {
		return task.State() == lifecycle.StateReady
	}, 2*time.Second, 5*time.Millisecond)
	assert.False(t, task.Cancelled())
}
