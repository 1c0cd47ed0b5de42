package workflow

import (
	"context"
	"fmt"
	"os/exec"
	"time"

	"github.com/taskline/taskline/internal/conditions"
	"github.com/taskline/taskline/internal/lifecycle"
	"github.com/taskline/taskline/internal/logger"
	"github.com/taskline/taskline/internal/scheduler"
)

// Build turns a validated workflow into lifecycle tasks, admits them
// into the scheduler and wires up their dependencies. It returns the
// built tasks keyed by step name so callers can attach observers
// before the run starts.
func Build(w *Workflow, sched *scheduler.Scheduler) (map[string]*lifecycle.Task, error) {
	tasks := make(map[string]*lifecycle.Task, len(w.Steps))

	for _, step := range w.Steps {
		t := lifecycle.NewTask(step.Name, lifecycle.WithBody(commandBody(step)))

		for _, spec := range step.Conditions {
			c, err := spec.condition()
			if err != nil {
				return nil, fmt.Errorf("step %q: %w", step.Name, err)
			}
			t.AddCondition(c)
		}
		// A step never runs on top of a failed dependency.
		if len(step.DependsOn) > 0 {
			t.AddCondition(conditions.DependenciesNotCancelled{})
		}

		tasks[step.Name] = t
		if err := sched.Add(t); err != nil {
			return nil, err
		}
	}

	// Dependencies are added after admission so they route through the
	// scheduler's graph rather than the task's pre-admission snapshot.
	for _, step := range w.Steps {
		for _, dep := range step.DependsOn {
			tasks[step.Name].AddDependency(tasks[dep])
		}
	}

	return tasks, nil
}

func (s *ConditionSpec) condition() (lifecycle.Condition, error) {
	switch {
	case s.Delay != "":
		d, err := time.ParseDuration(s.Delay)
		if err != nil {
			return nil, fmt.Errorf("invalid delay %q: %w", s.Delay, err)
		}
		return conditions.Delay{Duration: d}, nil
	case s.FileExists != "":
		return conditions.FileExists{Path: s.FileExists}, nil
	case s.EnvSet != "":
		return conditions.EnvSet{Name: s.EnvSet}, nil
	default:
		return nil, fmt.Errorf("empty condition")
	}
}

// commandBody returns a task body that runs the step's command. A
// failing command cancels the task unless the step allows failure;
// cancellation is what marks the run unsuccessful and what the
// dependents' conditions react to.
func commandBody(step Step) lifecycle.BodyFunc {
	return func(ctx context.Context, t *lifecycle.Task) {
		cmd := exec.CommandContext(ctx, step.Command[0], step.Command[1:]...)
		output, err := cmd.CombinedOutput()

		fields := map[string]interface{}{
			"step":    step.Name,
			"command": step.Command[0],
		}
		if len(output) > 0 {
			fields["output"] = string(output)
		}

		if err != nil {
			fields["error"] = err.Error()
			if step.AllowFailure {
				logger.Op.WithFields(fields).Warn("Step failed (failure allowed)")
				return
			}
			logger.Op.WithFields(fields).Error("Step failed")
			t.Cancel()
			return
		}
		logger.Op.WithFields(fields).Debug("Step completed")
	}
}
