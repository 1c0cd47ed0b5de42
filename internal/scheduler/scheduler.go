package scheduler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/taskline/taskline/internal/lifecycle"
	"github.com/taskline/taskline/internal/logger"
	"github.com/taskline/taskline/internal/progress"
)

// Config contains configuration for the scheduler
type Config struct {
	// MaxWorkers is the maximum number of tasks to run in parallel
	MaxWorkers int

	// PollInterval is how often the dispatch loop re-checks readiness
	PollInterval time.Duration
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		MaxWorkers:   10,
		PollInterval: 100 * time.Millisecond,
	}
}

// TaskResult contains the outcome of a single task
type TaskResult struct {
	TaskID    string
	Name      string
	Cancelled bool
	StartTime *time.Time
	EndTime   *time.Time
	Duration  time.Duration
}

// Result contains the outcome of a scheduler run
type Result struct {
	// Success indicates every task finished without being cancelled
	Success bool

	// Tasks maps task IDs to their results
	Tasks map[string]*TaskResult

	// Elapsed is the total wall-clock time of the run
	Elapsed time.Duration
}

// entry is the scheduler's bookkeeping for one admitted task.
// remaining counts unfinished dependencies and is read lock-free from
// the task's native dependency check; the other fields are guarded by
// the scheduler mutex.
type entry struct {
	task       *lifecycle.Task
	remaining  atomic.Int32
	deps       map[string]bool
	dispatched bool
	finished   bool
	result     *TaskResult
}

// Scheduler admits tasks, resolves their dependencies and dispatches
// ready tasks onto a bounded worker pool. It observes every admitted
// task; a task's finish notification is what releases its worker slot
// and signals its dependents.
type Scheduler struct {
	config *Config
	graph  *Graph

	mutex         sync.RWMutex
	entries       map[string]*entry
	finishedCount int
	running       bool
	startTime     time.Time

	workers chan struct{}
	wake    chan struct{}
}

// New creates a scheduler with the given configuration
func New(config *Config) *Scheduler {
	if config == nil {
		config = DefaultConfig()
	}

	return &Scheduler{
		config:  config,
		graph:   NewGraph(),
		entries: make(map[string]*entry),
		workers: make(chan struct{}, config.MaxWorkers),
		wake:    make(chan struct{}, 1),
	}
}

// Graph returns the scheduler's dependency graph
func (s *Scheduler) Graph() *Graph {
	return s.graph
}

// Add admits a task: the task becomes pending, its recorded dependencies
// become graph edges, and any dependency task not yet admitted is
// admitted transitively.
func (s *Scheduler) Add(t *lifecycle.Task) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.addLocked(t)
}

func (s *Scheduler) addLocked(t *lifecycle.Task) error {
	if _, exists := s.entries[t.ID()]; exists {
		return fmt.Errorf("task %q already admitted", t.Name())
	}
	if err := s.graph.AddTask(t); err != nil {
		return err
	}

	e := &entry{
		task: t,
		deps: make(map[string]bool),
		result: &TaskResult{
			TaskID: t.ID(),
			Name:   t.Name(),
		},
	}
	s.entries[t.ID()] = e

	// The dependency check reads the entry's counter directly so the
	// task can answer IsReady without touching scheduler locks.
	t.Bind(
		func(*lifecycle.Task) bool { return e.remaining.Load() == 0 },
		func(*lifecycle.Task) { s.wakeup() },
		func(task, dep *lifecycle.Task) {
			if err := s.AddDependency(dep, task); err != nil {
				logger.Op.WithFields(map[string]interface{}{
					"task":       task.Name(),
					"dependency": dep.Name(),
					"error":      err.Error(),
				}).Error("Failed to register dependency")
			}
		},
	)
	t.AddObserver(s)
	t.MarkEnqueued()

	for _, dep := range t.Dependencies() {
		if err := s.linkLocked(dep, e); err != nil {
			return err
		}
	}

	return nil
}

// AddDependency records that dependent must wait for dep to finish
func (s *Scheduler) AddDependency(dep, dependent *lifecycle.Task) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	e, exists := s.entries[dependent.ID()]
	if !exists {
		return fmt.Errorf("task %q not admitted", dependent.Name())
	}
	return s.linkLocked(dep, e)
}

func (s *Scheduler) linkLocked(dep *lifecycle.Task, e *entry) error {
	if e.deps[dep.ID()] {
		return nil // edge already known
	}

	de, exists := s.entries[dep.ID()]
	if !exists {
		if err := s.addLocked(dep); err != nil {
			return err
		}
		de = s.entries[dep.ID()]
	}

	if err := s.graph.AddEdge(dep.ID(), e.task.ID()); err != nil {
		return err
	}
	e.deps[dep.ID()] = true
	if !de.finished {
		e.remaining.Add(1)
	}

	return nil
}

// Attached implements lifecycle.Observer
func (s *Scheduler) Attached(t *lifecycle.Task) {}

// Started implements lifecycle.Observer
func (s *Scheduler) Started(t *lifecycle.Task) {
	logger.Op.WithFields(map[string]interface{}{
		"task": t.Name(),
	}).Debug("Task started")
}

// Cancelled implements lifecycle.Observer
func (s *Scheduler) Cancelled(t *lifecycle.Task) {
	logger.Op.WithFields(map[string]interface{}{
		"task": t.Name(),
	}).Debug("Task cancelled")
}

// Finished implements lifecycle.Observer. This is the dependency
// satisfaction signal: every dependent with no unfinished dependencies
// left is told to begin condition evaluation.
func (s *Scheduler) Finished(t *lifecycle.Task) {
	s.mutex.Lock()

	e, exists := s.entries[t.ID()]
	if !exists || e.finished {
		s.mutex.Unlock()
		return
	}
	e.finished = true
	now := time.Now()
	e.result.EndTime = &now
	e.result.Cancelled = t.Cancelled()
	if e.result.StartTime != nil {
		e.result.Duration = now.Sub(*e.result.StartTime)
	}
	s.finishedCount++
	wasDispatched := e.dispatched

	var resolved []*lifecycle.Task
	for _, depID := range s.graph.Dependents(t.ID()) {
		de, ok := s.entries[depID]
		if !ok {
			continue
		}
		if de.remaining.Add(-1) == 0 {
			resolved = append(resolved, de.task)
		}
	}
	s.mutex.Unlock()

	if wasDispatched {
		<-s.workers
	}
	for _, dt := range resolved {
		dt.DependenciesResolved()
	}
	s.wakeup()
}

// wakeup nudges the dispatch loop without blocking
func (s *Scheduler) wakeup() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Run dispatches admitted tasks until all of them have finished or the
// context is cancelled. Context cancellation cancels every unfinished
// task; the run still waits for them to reach their terminal state via
// the cancelled fast path.
func (s *Scheduler) Run(ctx context.Context) (*Result, error) {
	s.mutex.Lock()
	if s.running {
		s.mutex.Unlock()
		return nil, fmt.Errorf("scheduler already running")
	}
	s.running = true
	s.startTime = time.Now()
	total := len(s.entries)
	s.mutex.Unlock()

	if err := s.graph.Validate(); err != nil {
		return s.buildResult(), err
	}

	logger.User.Startingf("Executing %d tasks (max %d workers)", total, s.config.MaxWorkers)

	reporter := progress.NewReporter()
	ticker := time.NewTicker(s.config.PollInterval)
	defer ticker.Stop()

	ctxDone := ctx.Done()
	for {
		s.dispatchReady()
		if s.drained() {
			break
		}

		select {
		case <-ctxDone:
			logger.User.Warn("Cancellation requested, cancelling remaining tasks")
			s.CancelAll()
			ctxDone = nil
		case <-s.wake:
		case <-ticker.C:
			if reporter.ShouldReport() {
				s.logProgress(reporter)
			}
		}
	}

	result := s.buildResult()
	s.logFinal(result)
	return result, ctx.Err()
}

// dispatchReady starts every undispatched ready task for which a worker
// slot is available. Tasks whose dependencies are already satisfied at
// admission are seeded here; redundant signals are suppressed by the
// task itself.
func (s *Scheduler) dispatchReady() {
	s.mutex.RLock()
	candidates := make([]*entry, 0, len(s.entries))
	for _, e := range s.entries {
		if !e.dispatched && !e.finished {
			candidates = append(candidates, e)
		}
	}
	s.mutex.RUnlock()

	for _, e := range candidates {
		if e.remaining.Load() == 0 {
			e.task.DependenciesResolved()
		}
		if !e.task.IsReady() {
			continue
		}

		select {
		case s.workers <- struct{}{}:
		default:
			return // all worker slots busy
		}

		s.mutex.Lock()
		if e.dispatched || e.finished {
			s.mutex.Unlock()
			<-s.workers
			continue
		}
		e.dispatched = true
		now := time.Now()
		e.result.StartTime = &now
		s.mutex.Unlock()

		logger.Op.WithFields(map[string]interface{}{
			"task": e.task.Name(),
		}).Debug("Dispatching task")
		e.task.Start()
	}
}

// drained reports whether every admitted task has finished
func (s *Scheduler) drained() bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.finishedCount == len(s.entries)
}

// CancelAll cancels every unfinished task
func (s *Scheduler) CancelAll() {
	s.mutex.RLock()
	tasks := make([]*lifecycle.Task, 0, len(s.entries))
	for _, e := range s.entries {
		if !e.finished {
			tasks = append(tasks, e.task)
		}
	}
	s.mutex.RUnlock()

	for _, t := range tasks {
		t.Cancel()
	}
}

// Progress returns the number of finished and total tasks
func (s *Scheduler) Progress() (finished, total int) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.finishedCount, len(s.entries)
}

func (s *Scheduler) logProgress(reporter *progress.Reporter) {
	s.mutex.RLock()
	info := progress.Info{
		TotalTasks:    len(s.entries),
		FinishedTasks: s.finishedCount,
		ElapsedTime:   time.Since(s.startTime),
	}
	for _, e := range s.entries {
		if e.dispatched && !e.finished {
			info.RunningTasks++
		}
		if e.finished && e.result.Cancelled {
			info.CancelledTasks++
		}
	}
	s.mutex.RUnlock()

	info.EstimatedLeft = progress.CalculateETA(info.FinishedTasks, info.TotalTasks, info.ElapsedTime)
	logger.User.Info(reporter.Report(info))
}

func (s *Scheduler) logFinal(result *Result) {
	cancelled := 0
	for _, tr := range result.Tasks {
		if tr.Cancelled {
			cancelled++
		}
	}

	if cancelled == 0 {
		logger.User.Successf("Run completed: %d/%d tasks successful in %v",
			len(result.Tasks), len(result.Tasks), result.Elapsed.Round(time.Second))
	} else {
		logger.User.Errorf("Run completed: %d successful, %d cancelled in %v",
			len(result.Tasks)-cancelled, cancelled, result.Elapsed.Round(time.Second))
	}
}

// buildResult constructs the final run result
func (s *Scheduler) buildResult() *Result {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	result := &Result{
		Tasks:   make(map[string]*TaskResult),
		Elapsed: time.Since(s.startTime),
		Success: true,
	}

	for id, e := range s.entries {
		resultCopy := *e.result
		result.Tasks[id] = &resultCopy

		if !e.finished || e.result.Cancelled {
			result.Success = false
		}
	}

	return result
}
