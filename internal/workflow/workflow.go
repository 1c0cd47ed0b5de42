package workflow

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Workflow is a declarative description of a set of tasks and the
// dependencies between them, loaded from a YAML file.
type Workflow struct {
	Name  string `yaml:"name"`
	Steps []Step `yaml:"steps"`
}

// Step describes one task of a workflow
type Step struct {
	Name         string          `yaml:"name"`
	Command      []string        `yaml:"command"`
	DependsOn    []string        `yaml:"depends_on,omitempty"`
	Conditions   []ConditionSpec `yaml:"conditions,omitempty"`
	AllowFailure bool            `yaml:"allow_failure,omitempty"`
}

// ConditionSpec is one readiness condition attached to a step. Exactly
// one of the fields must be set.
type ConditionSpec struct {
	Delay      string `yaml:"delay,omitempty"`
	FileExists string `yaml:"file_exists,omitempty"`
	EnvSet     string `yaml:"env_set,omitempty"`
}

// Load reads and validates a workflow from a YAML file
func Load(path string) (*Workflow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read workflow file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a workflow from YAML bytes
func Parse(data []byte) (*Workflow, error) {
	var w Workflow
	if err := yaml.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("failed to parse workflow: %w", err)
	}
	if err := w.Validate(); err != nil {
		return nil, err
	}
	return &w, nil
}

// Validate checks the workflow for structural errors: missing names or
// commands, duplicate step names, references to unknown steps and
// malformed conditions. Dependency cycles are caught later by the
// scheduler's graph validation.
func (w *Workflow) Validate() error {
	if w.Name == "" {
		return fmt.Errorf("workflow name is required")
	}
	if len(w.Steps) == 0 {
		return fmt.Errorf("workflow %q has no steps", w.Name)
	}

	names := make(map[string]bool, len(w.Steps))
	for i, step := range w.Steps {
		if step.Name == "" {
			return fmt.Errorf("step %d has no name", i)
		}
		if names[step.Name] {
			return fmt.Errorf("duplicate step name %q", step.Name)
		}
		names[step.Name] = true

		if len(step.Command) == 0 {
			return fmt.Errorf("step %q has no command", step.Name)
		}
		for j, spec := range step.Conditions {
			if err := spec.validate(); err != nil {
				return fmt.Errorf("step %q condition %d: %w", step.Name, j, err)
			}
		}
	}

	for _, step := range w.Steps {
		for _, dep := range step.DependsOn {
			if !names[dep] {
				return fmt.Errorf("step %q depends on unknown step %q", step.Name, dep)
			}
			if dep == step.Name {
				return fmt.Errorf("step %q depends on itself", step.Name)
			}
		}
	}

	return nil
}

func (s *ConditionSpec) validate() error {
	set := 0
	if s.Delay != "" {
		if _, err := time.ParseDuration(s.Delay); err != nil {
			return fmt.Errorf("invalid delay %q: %w", s.Delay, err)
		}
		set++
	}
	if s.FileExists != "" {
		set++
	}
	if s.EnvSet != "" {
		set++
	}
	if set != 1 {
		return fmt.Errorf("exactly one of delay, file_exists or env_set must be set")
	}
	return nil
}
