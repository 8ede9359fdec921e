package main

import (
	"os"

	"github.com/nodeshop/dataflow/cmd/dataflow/demo"
	"github.com/nodeshop/dataflow/internal/invoke"
)

// defaultInvoker builds the illustrative demo.Invoker from whatever API
// keys are present in the environment, for the CLI's "serve" and "run"
// subcommands. It is never the only way to obtain an invoke.Invoker — a
// real deployment wires its own function library to the same interface —
// but it lets the CLI run end to end without one.
func defaultInvoker() invoke.Invoker {
	return demo.NewInvoker(os.Getenv("ANTHROPIC_API_KEY"), os.Getenv("OPENAI_API_KEY"))
}
