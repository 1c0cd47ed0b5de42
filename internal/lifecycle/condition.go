package lifecycle

// Condition is an asynchronous readiness predicate evaluated before a
// task may execute. Evaluate must eventually invoke report exactly once;
// a condition that never reports hangs the task indefinitely (there is
// no timeout at this layer). If any condition of a task reports false
// the task is cancelled.
type Condition interface {
	Evaluate(t *Task, report func(satisfied bool))
}

// ConditionFunc adapts a plain function to the Condition interface.
type ConditionFunc func(t *Task, report func(satisfied bool))

func (f ConditionFunc) Evaluate(t *Task, report func(satisfied bool)) {
	f(t, report)
}
