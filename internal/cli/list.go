package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/craftbooks/recordstore/internal/store"
)

// ListOptions holds flags for the list command.
type ListOptions struct {
	*RootOptions
	Filters []string
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ListOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "list <collection>",
		Short: "List records in a collection",
		Long: `List records in a collection, optionally filtered by field equality.

Each --filter takes a field=value pair; multiple filters must all match.

Example:
  recordstore list invoices --db shop.db
  recordstore list invoices --filter status=unpaid --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringArrayVar(&opts.Filters, "filter", nil, "field=value equality filter (repeatable)")

	return cmd
}

func runList(opts *ListOptions, collection string, cmd *cobra.Command) error {
	out := formatter(opts.RootOptions, cmd)

	filters, err := parseFilters(opts.Filters)
	if err != nil {
		return WrapExitError(ExitCommandError, "parse filters", err)
	}

	s, err := openStore(opts.RootOptions)
	if err != nil {
		return err
	}
	defer closeStore()

	var recs []store.Record
	if len(filters) == 0 {
		recs, err = s.GetAll(cmd.Context(), collection)
	} else {
		recs, err = s.Query(cmd.Context(), collection, filters)
	}
	if err != nil {
		return out.Fail(ExitFailure, "list records", err)
	}

	if opts.Format == "json" {
		return out.Success(recs)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d record(s)\n", collection, len(recs))
	for _, rec := range recs {
		line, err := json.Marshal(rec)
		if err != nil {
			return WrapExitError(ExitFailure, "render record", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", line)
	}
	return nil
}

// parseFilters turns field=value pairs into an equality filter record.
func parseFilters(pairs []string) (store.Record, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	filters := make(store.Record, len(pairs))
	for _, pair := range pairs {
		field, value, ok := strings.Cut(pair, "=")
		if !ok || field == "" {
			return nil, fmt.Errorf("invalid filter %q: want field=value", pair)
		}
		filters[field] = value
	}
	return filters, nil
}
