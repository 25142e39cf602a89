// Package ledger recomputes running balances for balance-bearing entities
// from their full ledger-entry history.
//
// Recomputation is eager and total: every call reloads all entries for the
// entity and rebuilds current_balance from opening_balance. That makes it
// idempotent and self-healing (a missed update is repaired by the next
// call), at O(entries) cost per call. That is acceptable while per-entity ledger
// histories stay small, which is the expected shape for this application.
//
// The engine does not subscribe to writes. Workflows that insert, update,
// or delete a ledger entry are responsible for invoking Recalculate on the
// owning entity afterwards. Entries themselves are append-only by
// convention: corrections are posted as new offsetting entries, never by
// mutating history.
package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/craftbooks/recordstore/internal/store"
)

// Entity maps a balance-bearing collection to its ledger collection and
// the owner-id index used to load the entry history.
type Entity struct {
	Collection string
	Ledger     string
	OwnerIndex string
}

// entities is the declarative table of balance-bearing entity kinds. Each
// index name must be declared on the ledger collection in the schema
// registry.
var entities = map[string]Entity{
	"customers": {Collection: "customers", Ledger: "customer_ledger", OwnerIndex: "by_customer"},
	"vendors":   {Collection: "vendors", Ledger: "vendor_ledger", OwnerIndex: "by_vendor"},
	"labours":   {Collection: "labours", Ledger: "labour_ledger", OwnerIndex: "by_labour"},
	"suppliers": {Collection: "suppliers", Ledger: "supplier_ledger", OwnerIndex: "by_supplier"},
}

// Kinds returns the balance-bearing entity collection names, sorted.
func Kinds() []string {
	kinds := make([]string, 0, len(entities))
	for k := range entities {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// EntityFor returns the ledger mapping for an entity collection.
func EntityFor(collection string) (Entity, bool) {
	e, ok := entities[collection]
	return e, ok
}

// Recalculate rebuilds an entity's current_balance as
// opening_balance + Σ(debit − credit) over all of its ledger entries and
// writes it back. Missing debit/credit fields count as zero. The
// read-sum-write runs as one read-write transaction over the entity and
// its ledger, so a concurrent delete lands before or after the recompute:
// a vanished entity is a no-op, not an error. Returns the persisted
// balance.
func Recalculate(ctx context.Context, st *store.Store, entityCollection, entityID string) (decimal.Decimal, error) {
	ent, ok := entities[entityCollection]
	if !ok {
		return decimal.Zero, fmt.Errorf("recalculate balance: %q is not a balance-bearing collection", entityCollection)
	}

	var balance decimal.Decimal
	found := false
	err := st.RunTxn(ctx, []string{ent.Collection, ent.Ledger}, store.ReadWrite, func(t *store.Txn) error {
		rec, err := t.GetByID(ctx, ent.Collection, entityID)
		if err != nil {
			return err
		}
		if rec == nil {
			return nil
		}
		found = true

		entries, err := t.GetByIndex(ctx, ent.Ledger, ent.OwnerIndex, entityID)
		if err != nil {
			return err
		}

		sum := decimal.Zero
		for _, e := range entries {
			sum = sum.Add(Amount(e, "debit")).Sub(Amount(e, "credit"))
		}
		balance = Amount(rec, "opening_balance").Add(sum)

		// json.Number keeps the balance a JSON number (not a quoted string)
		// in the stored payload.
		_, err = t.Update(ctx, ent.Collection, entityID, store.Record{
			"current_balance": json.Number(balance.String()),
		})
		return err
	})
	if err != nil {
		return decimal.Zero, err
	}
	if !found {
		return decimal.Zero, nil
	}
	return balance, nil
}

// Amount reads a monetary field off a record. Absent, null, or malformed
// values count as zero; numbers may arrive as json.Number (decoded
// records), string, or native Go numerics (caller-built records).
func Amount(rec store.Record, field string) decimal.Decimal {
	switch v := rec[field].(type) {
	case json.Number:
		d, err := decimal.NewFromString(v.String())
		if err != nil {
			return decimal.Zero
		}
		return d
	case string:
		d, err := decimal.NewFromString(v)
		if err != nil {
			return decimal.Zero
		}
		return d
	case float64:
		return decimal.NewFromFloat(v)
	case float32:
		return decimal.NewFromFloat32(v)
	case int:
		return decimal.NewFromInt(int64(v))
	case int64:
		return decimal.NewFromInt(v)
	default:
		return decimal.Zero
	}
}
