// Command pagestore is the CLI for operating a single page store: create
// a backing file, run it behind a driver loop, and introspect its
// contents.
package main

import (
	"fmt"
	"os"

	"github.com/dittokv/pagestore/cmd/pagestore/commands"

	// Registers the Prometheus implementation of page.Metrics.
	_ "github.com/dittokv/pagestore/pkg/metrics/prometheus"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.Version = version
	commands.Commit = commit
	commands.Date = date

	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
