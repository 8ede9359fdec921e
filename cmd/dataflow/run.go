package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nodeshop/dataflow/internal/execute"
	"github.com/nodeshop/dataflow/internal/plan"
)

func newRunCommand() *cobra.Command {
	var prevPath, snapshotOut string

	cmd := &cobra.Command{
		Use:   "run <graph.json>",
		Short: "Validate, plan, and execute a graph once against the demo invoker",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := readGraphFile(args[0])
			if err != nil {
				return err
			}
			if err := g.Validate(); err != nil {
				return err
			}

			var prev *plan.RuntimeGraph
			if prevPath != "" {
				data, err := os.ReadFile(prevPath)
				if err != nil {
					return err
				}
				prev, err = plan.SnapshotFromJSON(data)
				if err != nil {
					return err
				}
			}

			rt := plan.Preprocess(g, prev)
			executor := execute.New(defaultInvoker())
			store := execute.NewContextStore()

			if err := executor.Run(cmd.Context(), g, rt, store); err != nil {
				return err
			}

			executed := 0
			for _, n := range rt.Nodes {
				if n.ShouldExecute {
					executed++
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "executed %d/%d nodes\n", executed, len(rt.Nodes))

			if snapshotOut != "" {
				doc, err := rt.ToJSON()
				if err != nil {
					return err
				}
				if err := os.WriteFile(snapshotOut, doc, 0o644); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&prevPath, "prev", "", "path to a previous RuntimeGraph snapshot to plan incrementally against")
	cmd.Flags().StringVar(&snapshotOut, "snapshot-out", "", "write the resulting RuntimeGraph snapshot to this path")
	return cmd
}
