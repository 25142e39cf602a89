package ledger

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/craftbooks/recordstore/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()

	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err, "failed to open store")
	t.Cleanup(func() { s.Close() })
	return s
}

func seedEntries(t *testing.T, s *store.Store, ledger, ownerField, ownerID string, entries []store.Record) {
	t.Helper()

	ctx := context.Background()
	for _, e := range entries {
		e[ownerField] = ownerID
		_, err := s.Insert(ctx, ledger, e)
		require.NoError(t, err, "failed to seed ledger entry")
	}
}

func TestRecalculate_SumsDebitsMinusCredits(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	cust, err := s.Insert(ctx, "customers", store.Record{
		"name":            "Acme",
		"opening_balance": 1000,
	})
	require.NoError(t, err)
	custID := cust["id"].(string)

	seedEntries(t, s, "customer_ledger", "customer_id", custID, []store.Record{
		{"debit": 500, "description": "invoice INV-001"},
		{"credit": 200, "description": "receipt RCPT-001"},
	})

	balance, err := Recalculate(ctx, s, "customers", custID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(1300).Equal(balance),
		"balance = %s, want 1300", balance)

	// The balance is persisted on the entity as a JSON number.
	got, err := s.GetByID(ctx, "customers", custID)
	require.NoError(t, err)
	n, ok := got["current_balance"].(json.Number)
	require.True(t, ok, "current_balance stored as %T", got["current_balance"])
	assert.Equal(t, "1300", n.String())
}

func TestRecalculate_Idempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	vendor, err := s.Insert(ctx, "vendors", store.Record{
		"name":            "Steel Traders",
		"opening_balance": "250.50",
	})
	require.NoError(t, err)
	vendorID := vendor["id"].(string)

	seedEntries(t, s, "vendor_ledger", "vendor_id", vendorID, []store.Record{
		{"debit": "100.25"},
	})

	first, err := Recalculate(ctx, s, "vendors", vendorID)
	require.NoError(t, err)
	second, err := Recalculate(ctx, s, "vendors", vendorID)
	require.NoError(t, err)

	assert.True(t, first.Equal(second), "recalculation drifted: %s then %s", first, second)
	assert.Equal(t, "350.75", first.String())
}

func TestRecalculate_NoEntries(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	labour, err := s.Insert(ctx, "labours", store.Record{
		"name":            "R. Kumar",
		"opening_balance": 75,
	})
	require.NoError(t, err)

	balance, err := Recalculate(ctx, s, "labours", labour["id"].(string))
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(75).Equal(balance),
		"balance with no entries = %s, want opening balance", balance)
}

func TestRecalculate_MissingEntityIsNoOp(t *testing.T) {
	s := newTestStore(t)

	balance, err := Recalculate(context.Background(), s, "suppliers", "missing")
	require.NoError(t, err, "vanished entity must not be an error")
	assert.True(t, balance.IsZero())
}

func TestRecalculate_ConcurrentDeletionNeverFails(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// The recompute and the delete race; whichever transaction runs second
	// must still succeed, with the vanished-entity case a quiet no-op.
	for i := 0; i < 10; i++ {
		cust, err := s.Insert(ctx, "customers", store.Record{
			"name":            "Acme",
			"opening_balance": 10,
		})
		require.NoError(t, err)
		custID := cust["id"].(string)
		seedEntries(t, s, "customer_ledger", "customer_id", custID, []store.Record{
			{"debit": 5},
		})

		done := make(chan error, 1)
		go func() {
			_, err := Recalculate(ctx, s, "customers", custID)
			done <- err
		}()
		require.NoError(t, s.Delete(ctx, "customers", custID))
		require.NoError(t, <-done, "recalculation raced with deletion")
	}
}

func TestRecalculate_UnknownEntityKind(t *testing.T) {
	s := newTestStore(t)

	_, err := Recalculate(context.Background(), s, "invoices", "x")
	assert.Error(t, err, "invoices are not balance-bearing")
}

func TestRecalculate_OnlyOwnEntriesCounted(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a, err := s.Insert(ctx, "customers", store.Record{"name": "A"})
	require.NoError(t, err)
	b, err := s.Insert(ctx, "customers", store.Record{"name": "B"})
	require.NoError(t, err)

	seedEntries(t, s, "customer_ledger", "customer_id", a["id"].(string), []store.Record{
		{"debit": 100},
	})
	seedEntries(t, s, "customer_ledger", "customer_id", b["id"].(string), []store.Record{
		{"debit": 9999},
	})

	balance, err := Recalculate(ctx, s, "customers", a["id"].(string))
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(100).Equal(balance),
		"balance = %s, want 100 (entries of other customers leaked in)", balance)
}

func TestRecalculate_RepairsStaleBalance(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	cust, err := s.Insert(ctx, "customers", store.Record{
		"name":            "Acme",
		"current_balance": 123456, // stale, must be overwritten
	})
	require.NoError(t, err)
	custID := cust["id"].(string)

	seedEntries(t, s, "customer_ledger", "customer_id", custID, []store.Record{
		{"debit": 10},
	})

	balance, err := Recalculate(ctx, s, "customers", custID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(10).Equal(balance),
		"stale balance not repaired: %s", balance)
}

func TestAmount_ToleratesValueShapes(t *testing.T) {
	tests := []struct {
		name string
		rec  store.Record
		want string
	}{
		{"json number", store.Record{"debit": json.Number("12.34")}, "12.34"},
		{"string", store.Record{"debit": "5.5"}, "5.5"},
		{"int", store.Record{"debit": 7}, "7"},
		{"float", store.Record{"debit": 2.5}, "2.5"},
		{"absent", store.Record{}, "0"},
		{"null", store.Record{"debit": nil}, "0"},
		{"malformed", store.Record{"debit": "not a number"}, "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Amount(tt.rec, "debit").String())
		})
	}
}

func TestKinds(t *testing.T) {
	kinds := Kinds()
	assert.Equal(t, []string{"customers", "labours", "suppliers", "vendors"}, kinds)

	for _, kind := range kinds {
		ent, ok := EntityFor(kind)
		require.True(t, ok)
		assert.Equal(t, kind, ent.Collection)
		assert.NotEmpty(t, ent.Ledger)
		assert.NotEmpty(t, ent.OwnerIndex)
	}
}
