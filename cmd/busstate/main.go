// Package main provides the entry point for busstate.
//
// busstate holds saga state, a message dedup window and a subscription
// registry in memory, and can soak them with concurrent load while
// exposing their sizes as Prometheus metrics.
package main

import (
	"fmt"
	"os"

	"github.com/yndnr/busstate-go/internal/cli/command"
)

func main() {
	app := command.App()

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
