package schema

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_NamesAreUnique(t *testing.T) {
	seen := make(map[string]bool)
	for _, c := range Registry() {
		assert.False(t, seen[c.Name], "duplicate collection %q", c.Name)
		seen[c.Name] = true
	}
}

func TestRegistry_IndexNamesAreUniquePerCollection(t *testing.T) {
	for _, c := range Registry() {
		seen := make(map[string]bool)
		for _, ix := range c.Indexes {
			assert.False(t, seen[ix.Name], "collection %q: duplicate index %q", c.Name, ix.Name)
			seen[ix.Name] = true
			assert.NotEmpty(t, ix.Field, "collection %q: index %q has no field", c.Name, ix.Name)
		}
	}
}

func TestRegistry_VersionsWithinRange(t *testing.T) {
	for _, c := range Registry() {
		require.GreaterOrEqual(t, c.Since, 1, "collection %q", c.Name)
		require.LessOrEqual(t, c.Since, TargetVersion, "collection %q", c.Name)
		for _, ix := range c.Indexes {
			assert.LessOrEqual(t, ix.Since, TargetVersion, "collection %q index %q", c.Name, ix.Name)
		}
	}
}

func TestRegistry_LedgerCollectionsHaveOwnerIndex(t *testing.T) {
	// Balance recomputation loads entries through the owner-id index, so
	// every ledger collection must declare one.
	for _, c := range Registry() {
		if !strings.HasSuffix(c.Name, "_ledger") {
			continue
		}
		found := false
		for _, ix := range c.Indexes {
			if strings.HasSuffix(ix.Field, "_id") {
				found = true
			}
		}
		assert.True(t, found, "ledger collection %q has no owner-id index", c.Name)
	}
}

func TestRegistry_SequenceCollectionIsKeyValue(t *testing.T) {
	c, ok := Lookup(SequenceCollection)
	require.True(t, ok)
	assert.Equal(t, KeyLookup, c.Key)
	assert.Equal(t, "key", c.KeyField())
}

func TestLookup(t *testing.T) {
	c, ok := Lookup("customers")
	require.True(t, ok)
	assert.Equal(t, "id", c.KeyField())

	ix, ok := c.Index("by_code")
	require.True(t, ok)
	assert.True(t, ix.Unique)
	assert.Equal(t, "code", ix.Field)

	_, ok = Lookup("no_such_collection")
	assert.False(t, ok)
}

func TestNames_MatchesRegistryOrder(t *testing.T) {
	names := Names()
	reg := Registry()
	require.Len(t, names, len(reg))
	for i, c := range reg {
		assert.Equal(t, c.Name, names[i])
	}
}

func TestDeltas_VersionGating(t *testing.T) {
	joined := func(stmts []string) string { return strings.Join(stmts, "\n") }

	v1 := joined(Deltas(0, 1))
	assert.Contains(t, v1, "CREATE TABLE IF NOT EXISTS customers")
	assert.NotContains(t, v1, "quotations", "v2 collection must not appear in a v1 delta")
	assert.NotContains(t, v1, "idx_invoices_by_status", "v2 index must not appear in a v1 delta")

	v1to2 := joined(Deltas(1, 2))
	assert.Contains(t, v1to2, "CREATE TABLE IF NOT EXISTS quotations")
	assert.Contains(t, v1to2, "idx_invoices_by_status",
		"index introduced at v2 on a v1 collection must be in the v1->v2 delta")
	assert.NotContains(t, v1to2, "CREATE TABLE IF NOT EXISTS customers")
	assert.NotContains(t, v1to2, "journal_batches")

	v2to3 := joined(Deltas(2, 3))
	assert.Contains(t, v2to3, "CREATE TABLE IF NOT EXISTS journal_batches")
	assert.Contains(t, v2to3, "CREATE TABLE IF NOT EXISTS attachments")

	assert.Empty(t, Deltas(TargetVersion, TargetVersion),
		"up-to-date store must produce no schema changes")
}

func TestDeltas_FullBuildCoversEveryCollection(t *testing.T) {
	stmts := Deltas(0, TargetVersion)
	for _, c := range Registry() {
		assert.Contains(t, stmts, c.CreateTableSQL(), "missing table for %q", c.Name)
		for _, ix := range c.Indexes {
			assert.Contains(t, stmts, c.CreateIndexSQL(ix),
				"missing index %q for %q", ix.Name, c.Name)
		}
	}
}
