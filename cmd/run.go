package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/taskline/taskline/internal/logger"
	"github.com/taskline/taskline/internal/observers"
	"github.com/taskline/taskline/internal/scheduler"
	"github.com/taskline/taskline/internal/workflow"
)

var (
	runWorkers      int
	runPollInterval time.Duration
)

var runCmd = &cobra.Command{
	Use:   "run <workflow.yaml>",
	Short: "Run a workflow",
	Long: `Load a workflow file, build its tasks and execute them with bounded
parallelism. The run fails if any task is cancelled, whether by a failed
command, an unsatisfied condition or an interrupt.`,
	Args: cobra.ExactArgs(1),
	RunE: runWorkflow,
}

func init() {
	runCmd.Flags().IntVarP(&runWorkers, "workers", "w", 10, "Maximum number of tasks to run in parallel")
	runCmd.Flags().DurationVar(&runPollInterval, "poll-interval", 100*time.Millisecond, "How often the dispatcher re-checks readiness")
}

func runWorkflow(cmd *cobra.Command, args []string) error {
	w, err := workflow.Load(args[0])
	if err != nil {
		return err
	}
	logger.User.Startingf("Running workflow %q", w.Name)

	sched := scheduler.New(&scheduler.Config{
		MaxWorkers:   runWorkers,
		PollInterval: runPollInterval,
	})
	tasks, err := workflow.Build(w, sched)
	if err != nil {
		return err
	}

	logging := observers.NewLogging()
	for _, t := range tasks {
		t.AddObserver(logging)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := sched.Run(ctx)
	if err != nil {
		return fmt.Errorf("workflow %q interrupted: %w", w.Name, err)
	}
	if !result.Success {
		return fmt.Errorf("workflow %q finished with cancelled tasks", w.Name)
	}
	return nil
}
