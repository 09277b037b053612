package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/turtacn/KeyIP-CostEngine/internal/bootstrap"
	"github.com/turtacn/KeyIP-CostEngine/internal/infrastructure/database/postgres"
	"github.com/turtacn/KeyIP-CostEngine/pkg/errors"
)

// NewMigrateCmd manages the Postgres schema and reference seed. It always
// targets the database section of the config, whatever --data says.
func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back database migrations",
	}

	up := newMigrateRunCmd("up", "Apply every pending migration", func(m *postgres.Migrator) error {
		return m.Up()
	})

	var steps int
	down := newMigrateRunCmd("down", "Roll back the last migrations", func(m *postgres.Migrator) error {
		return m.Down(steps)
	})
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")
	down.PreRunE = func(*cobra.Command, []string) error {
		if steps < 1 {
			return errors.InvalidParam("steps must be at least 1").WithDetail(fmt.Sprint(steps))
		}
		return nil
	}

	version := newMigrateRunCmd("version", "Print the applied migration version", func(*postgres.Migrator) error {
		return nil
	})

	cmd.AddCommand(up, down, version)
	return cmd
}

func newMigrateRunCmd(use, short string, fn func(m *postgres.Migrator) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := withTimeout(cmd, cliCtx)
			defer cancel()

			conn, err := bootstrap.OpenDatabase(ctx, cliCtx.Config.Database, cliCtx.Logger)
			if err != nil {
				return err
			}
			defer conn.Close()

			m, err := postgres.NewMigrator(conn.DB(), cliCtx.Logger)
			if err != nil {
				return err
			}
			if err := fn(m); err != nil {
				return err
			}
			v, dirty, err := m.Version()
			if err != nil {
				return err
			}
			return PrintResult(cmd, migrationStatus{Version: v, Dirty: dirty})
		},
	}
}

type migrationStatus struct {
	Version uint `json:"version"`
	Dirty   bool `json:"dirty"`
}

func (s migrationStatus) String() string {
	if s.Dirty {
		return fmt.Sprintf("schema version %d (dirty)\n", s.Version)
	}
	return fmt.Sprintf("schema version %d\n", s.Version)
}

//Personal.AI order the ending
