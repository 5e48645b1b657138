// Command vecsight builds embedding snapshots, trains novelty reference
// models and serves both over HTTP.
package main

import (
	"fmt"
	"os"

	"github.com/hupe1980/vecsight/cmd/vecsight/commands"
)

// Version information (set at build time)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.SetVersion(version, commit, date)

	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
