package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/taskline/taskline/internal/scheduler"
	"github.com/taskline/taskline/internal/workflow"
)

var graphFormat string

var graphCmd = &cobra.Command{
	Use:   "graph <workflow.yaml>",
	Short: "Print a workflow's dependency graph",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := workflow.Load(args[0])
		if err != nil {
			return err
		}

		sched := scheduler.New(nil)
		if _, err := workflow.Build(w, sched); err != nil {
			return err
		}

		viz := scheduler.NewVisualization(sched.Graph())
		switch graphFormat {
		case "dot":
			fmt.Fprintln(cmd.OutOrStdout(), viz.GenerateDOT())
		case "json":
			out, err := viz.GenerateJSON()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
		default:
			return fmt.Errorf("unknown format %q (want dot or json)", graphFormat)
		}
		return nil
	},
}

func init() {
	graphCmd.Flags().StringVarP(&graphFormat, "format", "f", "dot", "Output format: dot or json")
}
