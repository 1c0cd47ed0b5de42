// Package observers provides ready-made lifecycle observers for tasks.
package observers

import (
	"sync"
	"time"

	"github.com/taskline/taskline/internal/lifecycle"
	"github.com/taskline/taskline/internal/logger"
)

// Logging logs every lifecycle event of the tasks it is attached to.
// One instance may observe any number of tasks.
type Logging struct{}

// NewLogging creates a logging observer
func NewLogging() *Logging {
	return &Logging{}
}

func (o *Logging) Attached(t *lifecycle.Task) {
	logger.Op.WithFields(map[string]interface{}{
		"task": t.Name(),
	}).Debug("Observer attached")
}

func (o *Logging) Started(t *lifecycle.Task) {
	logger.User.Infof("Starting task: %s", t.Name())
}

func (o *Logging) Cancelled(t *lifecycle.Task) {
	logger.User.Warnf("Task cancelled: %s", t.Name())
}

func (o *Logging) Finished(t *lifecycle.Task) {
	if t.Cancelled() {
		logger.Op.WithFields(map[string]interface{}{
			"task": t.Name(),
		}).Info("Task finished after cancellation")
		return
	}
	logger.User.Successf("Task completed: %s", t.Name())
}

// Timing records wall-clock durations for a single task. Attach one
// instance per task.
type Timing struct {
	mu         sync.Mutex
	attachedAt time.Time
	startedAt  time.Time
	finishedAt time.Time
}

// NewTiming creates a timing observer
func NewTiming() *Timing {
	return &Timing{}
}

func (o *Timing) Attached(t *lifecycle.Task) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.attachedAt = time.Now()
}

func (o *Timing) Started(t *lifecycle.Task) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.startedAt = time.Now()
}

func (o *Timing) Cancelled(t *lifecycle.Task) {}

func (o *Timing) Finished(t *lifecycle.Task) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.finishedAt = time.Now()
}

// QueueDuration is the time between attachment and the body starting.
// Zero until the task has started.
func (o *Timing) QueueDuration() time.Duration {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.startedAt.IsZero() {
		return 0
	}
	return o.startedAt.Sub(o.attachedAt)
}

// RunDuration is the time between the body starting and the task
// finishing. Zero until the task has finished.
func (o *Timing) RunDuration() time.Duration {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.startedAt.IsZero() || o.finishedAt.IsZero() {
		return 0
	}
	return o.finishedAt.Sub(o.startedAt)
}

// EventKind identifies a lifecycle event recorded by a Collector.
type EventKind string

const (
	EventAttached  EventKind = "attached"
	EventStarted   EventKind = "started"
	EventCancelled EventKind = "cancelled"
	EventFinished  EventKind = "finished"
)

// Event is one recorded lifecycle notification.
type Event struct {
	Kind EventKind
	Task *lifecycle.Task
	At   time.Time
}

// Collector records lifecycle events in delivery order. Safe for
// concurrent use across any number of tasks.
type Collector struct {
	mu     sync.Mutex
	events []Event
}

// NewCollector creates an empty collector
func NewCollector() *Collector {
	return &Collector{}
}

func (c *Collector) record(kind EventKind, t *lifecycle.Task) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, Event{Kind: kind, Task: t, At: time.Now()})
}

func (c *Collector) Attached(t *lifecycle.Task)  { c.record(EventAttached, t) }
func (c *Collector) Started(t *lifecycle.Task)   { c.record(EventStarted, t) }
func (c *Collector) Cancelled(t *lifecycle.Task) { c.record(EventCancelled, t) }
func (c *Collector) Finished(t *lifecycle.Task)  { c.record(EventFinished, t) }

// Events returns a snapshot of the recorded events
func (c *Collector) Events() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Event, len(c.events))
	copy(out, c.events)
	return out
}

// Count returns how many events of the given kind were recorded
func (c *Collector) Count(kind EventKind) int {
	n := 0
	for _, e := range c.Events() {
		if e.Kind == kind {
			n++
		}
	}
	return n
}
