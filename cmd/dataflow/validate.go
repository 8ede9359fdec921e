package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nodeshop/dataflow/internal/graph"
)

func newValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <graph.json>",
		Short: "Validate a graph document without planning or executing it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := readGraphFile(args[0])
			if err != nil {
				return err
			}
			if err := g.Validate(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		},
	}
}

// readGraphFile reads and parses a graph document, shared by
// validate/plan/run.
func readGraphFile(path string) (*graph.Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return graph.FromJSON(data)
}
