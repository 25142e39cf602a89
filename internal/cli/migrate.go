package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/craftbooks/recordstore/internal/schema"
)

// NewMigrateCommand creates the migrate command.
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the database schema",
		Long: `Create or upgrade the database schema.

Opens the database (creating it if missing) and applies any pending
additive schema changes. Re-running against an up-to-date database is a
no-op.

Example:
  recordstore migrate --db shop.db`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(rootOpts, cmd)
		},
	}
}

func runMigrate(opts *RootOptions, cmd *cobra.Command) error {
	out := formatter(opts, cmd)

	// Open performs the migration itself; the command exists so operators
	// can upgrade a database without starting the application.
	s, err := openStore(opts)
	if err != nil {
		return err
	}
	defer closeStore()

	version, err := s.Version(cmd.Context())
	if err != nil {
		return WrapExitError(ExitCommandError, "read schema version", err)
	}
	out.VerboseLog("database %s at schema version %d", opts.DBPath, version)

	return out.Success(migrateResult{
		Path:        opts.DBPath,
		Version:     version,
		Collections: len(schema.Names()),
	})
}

type migrateResult struct {
	Path        string `json:"path"`
	Version     int    `json:"version"`
	Collections int    `json:"collections"`
}

func (r migrateResult) String() string {
	return fmt.Sprintf("%s: schema version %d, %d collections", r.Path, r.Version, r.Collections)
}
