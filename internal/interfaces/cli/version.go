package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/turtacn/KeyIP-CostEngine/internal/bootstrap"
)

func versionString() string {
	return fmt.Sprintf("%s (commit: %s, built: %s)", bootstrap.Version, bootstrap.GitCommit, bootstrap.BuildDate)
}

// NewVersionCmd prints build information. It needs no configuration.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:               "version",
		Short:             "Print build information",
		Args:              cobra.NoArgs,
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "ipcost %s %s/%s %s\n",
				versionString(), runtime.GOOS, runtime.GOARCH, runtime.Version())
			return nil
		},
	}
}

//Personal.AI order the ending
