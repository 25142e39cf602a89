package cli

import (
	"github.com/spf13/cobra"
)

// SeqOptions holds flags for the seq command.
type SeqOptions struct {
	*RootOptions
	Width int
}

// NewSeqCommand creates the seq command.
func NewSeqCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SeqOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "seq <prefix>",
		Short: "Issue the next document code for a prefix",
		Long: `Issue the next document code for a prefix.

Increments the named counter and prints the generated code, e.g. INV-007.
Each successful call consumes exactly one value.

Example:
  recordstore seq INV --db shop.db
  recordstore seq EST --width 5`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeq(opts, args[0], cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Width, "width", 0, "minimum digit count for the numeric part (default 3)")

	return cmd
}

func runSeq(opts *SeqOptions, prefix string, cmd *cobra.Command) error {
	out := formatter(opts.RootOptions, cmd)

	s, err := openStore(opts.RootOptions)
	if err != nil {
		return err
	}
	defer closeStore()

	code, err := s.GenerateCode(cmd.Context(), prefix, opts.Width)
	if err != nil {
		return out.Fail(ExitFailure, "generate code", err)
	}

	return out.Success(seqResult{Prefix: prefix, Code: code})
}

type seqResult struct {
	Prefix string `json:"prefix"`
	Code   string `json:"code"`
}

func (r seqResult) String() string { return r.Code }
