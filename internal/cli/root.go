// Package cli implements the recordstore command-line interface.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/craftbooks/recordstore/internal/store"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	DBPath  string
	Verbose bool
	Format  string // "json" | "text"
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the recordstore CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "recordstore",
		Short: "Embedded record store administration",
		Long:  "Inspect and administer a recordstore database: migrations, sequences, balances, and data loading.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Validate format flag
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().StringVar(&opts.DBPath, "db", "recordstore.db", "path to the database file")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	// Add subcommands
	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewSeqCommand(opts))
	cmd.AddCommand(NewBalanceCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewSeedCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// openStore opens (and migrates) the database named by --db through the
// process-wide handle. Callers release it with closeStore.
func openStore(opts *RootOptions) (*store.Store, error) {
	store.Configure(opts.DBPath)
	s, err := store.Shared()
	if err != nil {
		return nil, WrapExitError(ExitCommandError, fmt.Sprintf("open database %q", opts.DBPath), err)
	}
	return s, nil
}

func closeStore() {
	store.Shutdown()
}

// formatter builds the command's output formatter from the global flags.
func formatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}
