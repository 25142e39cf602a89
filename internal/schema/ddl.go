package schema

import "fmt"

// CreateTableSQL returns the idempotent DDL creating the collection's table.
// Every collection is a primary-key column plus a JSON field-bag column;
// secondary lookups go through expression indexes, never extra columns.
func (c Collection) CreateTableSQL() string {
	return fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (%s TEXT PRIMARY KEY, data TEXT NOT NULL)",
		c.Name, c.KeyField(),
	)
}

// CreateIndexSQL returns the idempotent DDL creating one secondary index.
// Indexes are expression indexes over json_extract so the record payload
// stays a single untyped JSON document.
func (c Collection) CreateIndexSQL(ix Index) string {
	unique := ""
	if ix.Unique {
		unique = "UNIQUE "
	}
	return fmt.Sprintf(
		"CREATE %sINDEX IF NOT EXISTS %s ON %s (json_extract(data, '$.%s'))",
		unique, ix.SQLName(c), c.Name, ix.Field,
	)
}

// SQLName returns the persisted index name, namespaced by collection.
func (ix Index) SQLName(c Collection) string {
	return fmt.Sprintf("idx_%s_%s", c.Name, ix.Name)
}

// effectiveSince resolves an index's introduction version: an index with no
// explicit Since exists since its collection was introduced.
func (c Collection) effectiveSince(ix Index) int {
	if ix.Since > c.Since {
		return ix.Since
	}
	return c.Since
}

// Deltas returns the DDL statements that upgrade a store persisted at
// version from to version to. Only additive statements are ever produced:
// tables for collections introduced in the range, then indexes introduced
// in the range (including late indexes on pre-existing collections).
// Statement order follows registry declaration order, so output is
// deterministic for a given (from, to) pair.
func Deltas(from, to int) []string {
	var stmts []string
	for _, c := range registry {
		if c.Since > from && c.Since <= to {
			stmts = append(stmts, c.CreateTableSQL())
		}
		for _, ix := range c.Indexes {
			since := c.effectiveSince(ix)
			if since > from && since <= to {
				stmts = append(stmts, c.CreateIndexSQL(ix))
			}
		}
	}
	return stmts
}
