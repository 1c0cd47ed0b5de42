package lifecycle

// State represents the lifecycle state of a Task. States form a fixed
// total order and a task's state only ever moves forward through it.
type State int

const (
	// StateInitialized indicates the task has been created but not yet
	// admitted by a scheduler.
	StateInitialized State = iota
	// StatePending indicates the task is queued and waiting for its
	// dependencies to resolve.
	StatePending
	// StateEvaluating indicates readiness conditions are being evaluated.
	StateEvaluating
	// StateReady indicates the task may be dispatched for execution.
	StateReady
	// StateExecuting indicates the task body is running.
	StateExecuting
	// StateFinished indicates the task is done. Terminal.
	StateFinished
)

// String returns a string representation of the State
func (s State) String() string {
	switch s {
	case StateInitialized:
		return "initialized"
	case StatePending:
		return "pending"
	case StateEvaluating:
		return "evaluating"
	case StateReady:
		return "ready"
	case StateExecuting:
		return "executing"
	case StateFinished:
		return "finished"
	default:
		return "unknown"
	}
}
