// Command ipcost is the cost engine command line.
package main

import (
	"fmt"
	"os"

	"github.com/turtacn/KeyIP-CostEngine/internal/bootstrap"
	"github.com/turtacn/KeyIP-CostEngine/internal/config"
	"github.com/turtacn/KeyIP-CostEngine/internal/interfaces/cli"
)

// Build-time variables injected via ldflags.
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func init() {
	bootstrap.Version = version
	bootstrap.GitCommit = commit
	bootstrap.BuildDate = buildDate
}

func main() {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}

//Personal.AI order the ending
