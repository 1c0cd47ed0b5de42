package lifecycle

// Observer is notified of lifecycle events for a task it is attached to.
// Observers are notified in attachment order. The task holds the only
// strong reference; observers must treat the task argument as a
// non-owning back-reference.
type Observer interface {
	// Attached is invoked synchronously when the observer is added.
	Attached(t *Task)

	// Started is invoked when the task body is about to run.
	Started(t *Task)

	// Cancelled is invoked once if the task is cancelled. Cancellation
	// does not suppress the Finished notification.
	Cancelled(t *Task)

	// Finished is invoked exactly once when the task reaches its
	// terminal state.
	Finished(t *Task)
}

// ObserverFuncs adapts plain functions to the Observer interface. Nil
// fields are no-ops.
type ObserverFuncs struct {
	OnAttached  func(t *Task)
	OnStarted   func(t *Task)
	OnCancelled func(t *Task)
	OnFinished  func(t *Task)
}

func (o ObserverFuncs) Attached(t *Task) {
	if o.OnAttached != nil {
		o.OnAttached(t)
	}
}

func (o ObserverFuncs) Started(t *Task) {
	if o.OnStarted != nil {
		o.OnStarted(t)
	}
}

func (o ObserverFuncs) Cancelled(t *Task) {
	if o.OnCancelled != nil {
		o.OnCancelled(t)
	}
}

func (o ObserverFuncs) Finished(t *Task) {
	if o.OnFinished != nil {
		o.OnFinished(t)
	}
}
