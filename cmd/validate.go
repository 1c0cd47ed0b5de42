package cmd

import (
	"github.com/spf13/cobra"

	"github.com/taskline/taskline/internal/logger"
	"github.com/taskline/taskline/internal/scheduler"
	"github.com/taskline/taskline/internal/workflow"
)

var validateCmd = &cobra.Command{
	Use:   "validate <workflow.yaml>",
	Short: "Validate a workflow file without running it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := workflow.Load(args[0])
		if err != nil {
			return err
		}

		// Structural checks happen in Load; building against a throwaway
		// scheduler additionally catches dependency cycles.
		sched := scheduler.New(nil)
		if _, err := workflow.Build(w, sched); err != nil {
			return err
		}
		if err := sched.Graph().Validate(); err != nil {
			return err
		}

		logger.User.Successf("Workflow %q is valid (%d steps)", w.Name, len(w.Steps))
		return nil
	},
}
