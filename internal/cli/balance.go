package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/craftbooks/recordstore/internal/ledger"
)

// NewBalanceCommand creates the balance command.
func NewBalanceCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "balance <collection> <id>",
		Short: "Recompute an entity's ledger balance",
		Long: `Recompute an entity's ledger balance.

Rebuilds current_balance from the entity's opening balance and its full
ledger history, writes it back, and prints the result. Safe to run any
number of times.

Balance-bearing collections: ` + strings.Join(ledger.Kinds(), ", ") + `

Example:
  recordstore balance customers 0198c5b2-... --db shop.db`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBalance(rootOpts, args[0], args[1], cmd)
		},
	}
}

func runBalance(opts *RootOptions, collection, id string, cmd *cobra.Command) error {
	out := formatter(opts, cmd)

	if _, ok := ledger.EntityFor(collection); !ok {
		return NewExitError(ExitCommandError,
			fmt.Sprintf("collection %q is not balance-bearing (want one of %s)",
				collection, strings.Join(ledger.Kinds(), ", ")))
	}

	s, err := openStore(opts)
	if err != nil {
		return err
	}
	defer closeStore()

	balance, err := ledger.Recalculate(cmd.Context(), s, collection, id)
	if err != nil {
		return out.Fail(ExitFailure, "recalculate balance", err)
	}

	return out.Success(balanceResult{
		Collection: collection,
		ID:         id,
		Balance:    balance.String(),
	})
}

type balanceResult struct {
	Collection string `json:"collection"`
	ID         string `json:"id"`
	Balance    string `json:"balance"`
}

func (r balanceResult) String() string {
	return fmt.Sprintf("%s/%s balance: %s", r.Collection, r.ID, r.Balance)
}
