package observers

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskline/taskline/internal/lifecycle"
)

func runTask(t *testing.T, task *lifecycle.Task) {
	t.Helper()

	task.MarkEnqueued()
	task.DependenciesResolved()
	task.Start()
	select {
	case <-task.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("task did not finish in time")
	}
}

func TestCollectorRecordsLifecycle(t *testing.T) {
	task := lifecycle.NewTask("t")
	c := NewCollector()
	task.AddObserver(c)

	runTask(t, task)

	assert.Equal(t, 1, c.Count(EventAttached))
	assert.Equal(t, 1, c.Count(EventStarted))
	assert.Equal(t, 0, c.Count(EventCancelled))
	assert.Equal(t, 1, c.Count(EventFinished))

	events := c.Events()
	require.Len(t, events, 3)
	assert.Equal(t, EventAttached, events[0].Kind)
	assert.Equal(t, EventStarted, events[1].Kind)
	assert.Equal(t, EventFinished, events[2].Kind)
}

func TestTimingMeasuresDurations(t *testing.T) {
	task := lifecycle.NewTask("t", lifecycle.WithBody(func(ctx context.Context, task *lifecycle.Task) {
		time.Sleep(20 * time.Millisecond)
	}))
	timing := NewTiming()
	task.AddObserver(timing)

	assert.Zero(t, timing.RunDuration())

	runTask(t, task)

	assert.GreaterOrEqual(t, timing.RunDuration(), 20*time.Millisecond)
	assert.GreaterOrEqual(t, timing.QueueDuration(), time.Duration(0))
}

func TestLoggingObserverIsSafe(t *testing.T) {
	// Smoke test: logging must not interfere with the lifecycle.
	task := lifecycle.NewTask("t")
	task.AddObserver(NewLogging())

	task.MarkEnqueued()
	task.Cancel()
	task.Start()
	select {
	case <-task.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("task did not finish in time")
	}

	assert.True(t, task.Finished())
}
