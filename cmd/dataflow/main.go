// Command dataflow is the control-plane CLI and server for the
// incremental dataflow scheduler, grounded on the teacher's cmd/server
// (main.go's component wiring) for "serve", and on opentofu-opentofu's
// cobra_root.go (InitCobra's root-command-plus-AddCommand shape) for the
// subcommand structure itself — the teacher carries spf13/cobra in its
// go.mod but never calls it; this is that dependency's first real use.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:   "dataflow",
		Short: "Incremental dataflow graph scheduler",
		Long:  "dataflow validates, plans, and executes dataflow graphs incrementally, re-running only the nodes a change actually affects.",
	}

	root.AddCommand(
		newServeCommand(),
		newValidateCommand(),
		newPlanCommand(),
		newRunCommand(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
