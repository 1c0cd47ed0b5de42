package lifecycle

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/taskline/taskline/internal/logger"
)

// BodyFunc is the work body of a task. The context is cancelled when the
// task is cancelled; the body must observe it if it wants to abort early,
// a running body is never interrupted forcibly.
type BodyFunc func(ctx context.Context, t *Task)

// Option configures a Task at construction time.
type Option func(*Task)

// WithBody sets the task's work body. The default body is a no-op.
func WithBody(body BodyFunc) Option {
	return func(t *Task) { t.body = body }
}

// WithOnCancelled sets a hook invoked on the task's serial queue after
// cancellation, before observers are notified.
func WithOnCancelled(hook func(*Task)) Option {
	return func(t *Task) { t.onCancelled = hook }
}

// WithOnFinished sets a hook invoked on the task's serial queue after the
// task finishes, before observers are notified.
func WithOnFinished(hook func(*Task)) Option {
	return func(t *Task) { t.onFinished = hook }
}

// Task is a cancellable, observable unit of asynchronous work with a
// strictly forward-moving lifecycle. It is driven by a host scheduler
// through MarkEnqueued, DependenciesResolved, IsReady and Start.
//
// Synchronization contract: stateMu guards only the state and cancelled
// fields and is never held across any callback. opMu makes each composite
// lifecycle operation atomic relative to the others and is likewise
// released before any externally visible notification. Collapsing the two
// would either deadlock observers that re-read task state or admit
// interleavings that break the monotonic state invariant.
type Task struct {
	id   string
	name string

	stateMu   sync.Mutex // guards state and cancelled, nothing else
	state     State
	cancelled bool

	opMu sync.Mutex // serializes composite lifecycle operations

	conditions []Condition
	observers  []Observer
	deps       []*Task

	body        BodyFunc
	onCancelled func(*Task)
	onFinished  func(*Task)

	// Scheduler bindings. depCheck is the host's native dependency
	// predicate; onReadiness is invoked whenever the readiness answer may
	// have changed (transition to ready, cancellation); onDepAdded lets
	// the host turn late AddDependency calls into graph edges.
	depCheck    func(*Task) bool
	onReadiness func(*Task)
	onDepAdded  func(t, dep *Task)

	queue *serialQueue

	ctx       context.Context
	ctxCancel context.CancelFunc

	done chan struct{}
}

// NewTask creates a task in the initialized state.
func NewTask(name string, opts ...Option) *Task {
	ctx, cancel := context.WithCancel(context.Background())
	t := &Task{
		id:        uuid.New().String(),
		name:      name,
		state:     StateInitialized,
		queue:     newSerialQueue(),
		ctx:       ctx,
		ctxCancel: cancel,
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// ID returns the unique identifier for this task.
func (t *Task) ID() string {
	return t.id
}

// Name returns the human-readable task name.
func (t *Task) Name() string {
	return t.name
}

// Context returns the task's context. It is cancelled when the task is
// cancelled or finished.
func (t *Task) Context() context.Context {
	return t.ctx
}

// Done returns a channel closed after the finish notification has been
// delivered to every observer.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// State returns the current lifecycle state.
func (t *Task) State() State {
	t.stateMu.Lock()
	defer t.stateMu.Unlock()
	return t.state
}

// Cancelled reports whether cancellation has been requested. The flag is
// independent from the state axis and is never reset.
func (t *Task) Cancelled() bool {
	t.stateMu.Lock()
	defer t.stateMu.Unlock()
	return t.cancelled
}

// Finished reports whether the task reached its terminal state.
func (t *Task) Finished() bool {
	return t.State() == StateFinished
}

// setState advances the state. Transitions are strictly forward; a
// backward or repeated transition is a caller bug and panics.
func (t *Task) setState(next State) {
	t.stateMu.Lock()
	prev := t.state
	if next <= prev {
		t.stateMu.Unlock()
		panic(fmt.Sprintf("lifecycle: task %q: invalid state transition %s -> %s", t.name, prev, next))
	}
	t.state = next
	t.stateMu.Unlock()

	logger.Op.WithFields(map[string]interface{}{
		"task":  t.name,
		"from":  prev.String(),
		"state": next.String(),
	}).Debug("Task state transition")
}

// AddObserver appends an observer and synchronously delivers Attached.
// Observers may only be added before execution begins.
func (t *Task) AddObserver(o Observer) {
	t.opMu.Lock()
	if t.State() >= StateExecuting {
		t.opMu.Unlock()
		panic(fmt.Sprintf("lifecycle: task %q: observer added in state %s", t.name, t.State()))
	}
	t.observers = append(t.observers, o)
	t.opMu.Unlock()

	o.Attached(t)
}

// AddCondition appends a readiness condition. Conditions may only be
// added before condition evaluation begins.
func (t *Task) AddCondition(c Condition) {
	t.opMu.Lock()
	defer t.opMu.Unlock()

	if t.State() >= StateEvaluating {
		panic(fmt.Sprintf("lifecycle: task %q: condition added in state %s", t.name, t.State()))
	}
	t.conditions = append(t.conditions, c)
}

// AddDependency records a scheduling dependency on another task. The
// relation is ordering only; the host scheduler owns resolution.
func (t *Task) AddDependency(dep *Task) {
	t.opMu.Lock()
	t.deps = append(t.deps, dep)
	hook := t.onDepAdded
	t.opMu.Unlock()

	if hook != nil {
		hook(t, dep)
	}
}

// Dependencies returns a snapshot of the recorded dependencies.
func (t *Task) Dependencies() []*Task {
	t.opMu.Lock()
	defer t.opMu.Unlock()

	deps := make([]*Task, len(t.deps))
	copy(deps, t.deps)
	return deps
}

// MarkEnqueued is called once by the host scheduler on admission.
// No-op unless the task is still initialized. Dependency-satisfaction
// signals are only meaningful after admission; the scheduler must admit
// a task before signaling it.
func (t *Task) MarkEnqueued() {
	t.opMu.Lock()
	defer t.opMu.Unlock()

	if t.State() != StateInitialized {
		return
	}
	t.setState(StatePending)
}

// Bind installs the host scheduler's native dependency predicate,
// readiness-change callback and dependency-registration hook. Called by
// the scheduler at admission.
func (t *Task) Bind(depCheck func(*Task) bool, onReadiness func(*Task), onDepAdded func(t, dep *Task)) {
	t.opMu.Lock()
	defer t.opMu.Unlock()
	t.depCheck = depCheck
	t.onReadiness = onReadiness
	t.onDepAdded = onDepAdded
}

// IsReady reports whether the scheduler may dispatch this task. A
// cancelled task is always ready so the scheduler can fast-path it off
// the queue regardless of dependencies or conditions.
func (t *Task) IsReady() bool {
	t.opMu.Lock()
	defer t.opMu.Unlock()

	if t.Cancelled() {
		return true
	}
	if t.depCheck != nil && !t.depCheck(t) {
		return false
	}
	switch t.State() {
	case StateReady, StateExecuting, StateFinished:
		return true
	default:
		return false
	}
}

// DependenciesResolved is the host's signal that every native dependency
// of this task is satisfied. It triggers condition evaluation exactly
// once; redundant signals are suppressed by the pending-state guard.
func (t *Task) DependenciesResolved() {
	t.opMu.Lock()

	if t.State() != StatePending || t.Cancelled() {
		t.opMu.Unlock()
		return
	}
	if len(t.conditions) == 0 {
		t.setState(StateReady)
		t.opMu.Unlock()
		t.readinessChanged()
		return
	}

	t.setState(StateEvaluating)
	conds := make([]Condition, len(t.conditions))
	copy(conds, t.conditions)
	t.opMu.Unlock()

	t.evaluateConditions(conds)
}

// evaluateConditions runs every condition concurrently and aggregates
// results on the serial queue, keyed by original index so the outcome is
// deterministic regardless of completion order.
func (t *Task) evaluateConditions(conds []Condition) {
	results := make([]bool, len(conds))
	reported := make([]bool, len(conds))
	remaining := len(conds)

	for i, c := range conds {
		i, c := i, c
		go c.Evaluate(t, func(satisfied bool) {
			t.queue.async(func() {
				if reported[i] {
					logger.Op.WithFields(map[string]interface{}{
						"task":      t.name,
						"condition": i,
					}).Warn("Condition reported more than once, ignoring")
					return
				}
				reported[i] = true
				results[i] = satisfied
				remaining--
				if remaining == 0 {
					t.conditionsEvaluated(results)
				}
			})
		})
	}
}

// conditionsEvaluated runs on the serial queue once every condition has
// reported. Any failure cancels the task; either way the task becomes
// ready so the scheduler can dispatch it. Cancellation makes the task
// ready immediately, so by the time a slow condition reports the
// scheduler may already have fast-pathed the task to finished; in that
// case the evaluation outcome is moot and the state stays put.
func (t *Task) conditionsEvaluated(results []bool) {
	for i, satisfied := range results {
		if !satisfied {
			logger.Op.WithFields(map[string]interface{}{
				"task":      t.name,
				"condition": i,
			}).Debug("Readiness condition failed, cancelling task")
			t.Cancel()
			break
		}
	}

	t.opMu.Lock()
	if t.State() == StateEvaluating {
		t.setState(StateReady)
	}
	t.opMu.Unlock()

	t.readinessChanged()
}

// Start is invoked by the host scheduler's worker dispatch. Execution is
// redirected onto the task's private serial queue; the handoff never
// blocks the caller. Completion is observable through Done or a Finished
// observer, not through Start returning.
func (t *Task) Start() {
	t.queue.async(t.startOnQueue)
}

func (t *Task) startOnQueue() {
	t.opMu.Lock()

	if t.State() >= StateExecuting {
		t.opMu.Unlock()
		return
	}
	if t.Cancelled() {
		t.opMu.Unlock()
		t.Finish()
		return
	}

	t.setState(StateExecuting)
	observers := t.snapshotObservers()
	body := t.body
	t.opMu.Unlock()

	for _, o := range observers {
		o.Started(t)
	}
	if body != nil {
		body(t.ctx, t)
	}
	t.Finish()
}

// Cancel requests cooperative cancellation. Only the first call has
// effect. The cancelled flag makes the task immediately ready, the
// task's context is cancelled, and the cancellation hook plus observer
// notifications are delivered asynchronously on the serial queue.
// Cancellation never skips the finish notification.
func (t *Task) Cancel() {
	t.opMu.Lock()

	t.stateMu.Lock()
	if t.cancelled || t.state == StateFinished {
		t.stateMu.Unlock()
		t.opMu.Unlock()
		return
	}
	t.cancelled = true
	t.stateMu.Unlock()

	observers := t.snapshotObservers()
	hook := t.onCancelled
	t.opMu.Unlock()

	logger.Op.WithFields(map[string]interface{}{
		"task": t.name,
	}).Debug("Task cancelled")

	t.ctxCancel()
	t.queue.async(func() {
		if hook != nil {
			hook(t)
		}
		for _, o := range observers {
			o.Cancelled(t)
		}
	})

	t.readinessChanged()
}

// Finish moves the task to its terminal state. Only the first effective
// call fires notifications; the finish hook and observer notifications
// are delivered asynchronously on the serial queue, after which the
// queue is shut down.
func (t *Task) Finish() {
	t.opMu.Lock()

	if t.State() == StateFinished {
		t.opMu.Unlock()
		return
	}
	t.setState(StateFinished)
	observers := t.snapshotObservers()
	hook := t.onFinished
	t.opMu.Unlock()

	t.ctxCancel()
	t.queue.async(func() {
		if hook != nil {
			hook(t)
		}
		for _, o := range observers {
			o.Finished(t)
		}
		close(t.done)
		t.queue.close()
	})
}

// snapshotObservers copies the observer list so notifications run
// without any lock held. Caller must hold opMu.
func (t *Task) snapshotObservers() []Observer {
	observers := make([]Observer, len(t.observers))
	copy(observers, t.observers)
	return observers
}

func (t *Task) readinessChanged() {
	t.opMu.Lock()
	hook := t.onReadiness
	t.opMu.Unlock()

	if hook != nil {
		hook(t)
	}
}
