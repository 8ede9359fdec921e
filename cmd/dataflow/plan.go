package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nodeshop/dataflow/internal/plan"
)

func newPlanCommand() *cobra.Command {
	var prevPath string

	cmd := &cobra.Command{
		Use:   "plan <graph.json>",
		Short: "Validate a graph and print the RuntimeGraph Preprocess produces",
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
			doc, err := rt.ToJSON()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(doc))
			return nil
		},
	}

	cmd.Flags().StringVar(&prevPath, "prev", "", "path to a previous RuntimeGraph snapshot to plan incrementally against")
	return cmd
}
