package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/craftbooks/recordstore/internal/schema"
)

// The functions below are the single implementation of every CRUD
// operation; Store methods and Txn methods both dispatch here. Collection
// names are always resolved through the schema registry before they are
// interpolated into SQL, so no caller-controlled string reaches a query.

func insertRecord(ctx context.Context, q querier, now time.Time, col schema.Collection, rec Record) (Record, error) {
	stored := rec.Clone()
	kf := col.KeyField()

	if col.Key == schema.KeyID {
		if stored.primaryKey(kf) == "" {
			stored[kf] = newID()
		}
	} else if stored.primaryKey(kf) == "" {
		return nil, constraint(col.Name, "", fmt.Sprintf("missing primary key %q", kf))
	}
	key := stored.primaryKey(kf)
	stored.stamp(now)

	data, err := encodeRecord(stored)
	if err != nil {
		return nil, fmt.Errorf("insert %s: %w", col.Name, err)
	}

	_, err = q.ExecContext(ctx,
		"INSERT INTO "+col.Name+" ("+kf+", data) VALUES (?, ?)",
		key, data,
	)
	if err != nil {
		return nil, classify(col.Name, key, err)
	}

	return stored, nil
}

func updateRecord(ctx context.Context, q querier, now time.Time, col schema.Collection, id string, patch Record) (Record, error) {
	existing, err := getByID(ctx, q, col, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, notFound(col.Name, id)
	}

	// Merge-patch: patch fields win, the primary key is never overwritten,
	// updated_at is always refreshed.
	kf := col.KeyField()
	merged := existing.Clone()
	for k, v := range patch {
		if k == kf {
			continue
		}
		merged[k] = v
	}
	merged["updated_at"] = now.UTC().Format(timeLayout)

	data, err := encodeRecord(merged)
	if err != nil {
		return nil, fmt.Errorf("update %s: %w", col.Name, err)
	}

	if _, err := q.ExecContext(ctx,
		"UPDATE "+col.Name+" SET data = ? WHERE "+kf+" = ?",
		data, id,
	); err != nil {
		return nil, classify(col.Name, id, err)
	}

	return merged, nil
}

func deleteRecord(ctx context.Context, q querier, col schema.Collection, id string) error {
	// Hard delete; removing a missing key succeeds.
	if _, err := q.ExecContext(ctx,
		"DELETE FROM "+col.Name+" WHERE "+col.KeyField()+" = ?", id,
	); err != nil {
		return classify(col.Name, id, err)
	}
	return nil
}

func getByID(ctx context.Context, q querier, col schema.Collection, id string) (Record, error) {
	var data string
	err := q.QueryRowContext(ctx,
		"SELECT data FROM "+col.Name+" WHERE "+col.KeyField()+" = ?", id,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, classify(col.Name, id, err)
	}
	return decodeRecord(data)
}

func getAll(ctx context.Context, q querier, col schema.Collection) ([]Record, error) {
	rows, err := q.QueryContext(ctx,
		"SELECT data FROM "+col.Name+" ORDER BY "+col.KeyField(),
	)
	if err != nil {
		return nil, classify(col.Name, "", err)
	}
	defer rows.Close()

	return scanRecords(col, rows)
}

func queryRecords(ctx context.Context, q querier, col schema.Collection, filters Record) ([]Record, error) {
	// Intentionally a linear scan: equality filtering over the decoded
	// field bags. Indexed lookups go through getByIndex.
	all, err := getAll(ctx, q, col)
	if err != nil {
		return nil, err
	}

	matched := make([]Record, 0, len(all))
	for _, rec := range all {
		if matchesFilters(rec, filters) {
			matched = append(matched, rec)
		}
	}
	return matched, nil
}

// matchesFilters reports whether every non-nil (field, value) pair in
// filters equals the record's field. Nil filter values match everything.
func matchesFilters(rec Record, filters Record) bool {
	for field, want := range filters {
		if want == nil {
			continue
		}
		got, ok := rec[field]
		if !ok || !valueEqual(got, want) {
			return false
		}
	}
	return true
}

func getByIndex(ctx context.Context, q querier, col schema.Collection, index string, value any) ([]Record, error) {
	ix, ok := col.Index(index)
	if !ok {
		return nil, fmt.Errorf("unknown index %q on collection %q", index, col.Name)
	}

	rows, err := q.QueryContext(ctx,
		"SELECT data FROM "+col.Name+
			" WHERE json_extract(data, '$."+ix.Field+"') = ? ORDER BY "+col.KeyField(),
		bindValue(value),
	)
	if err != nil {
		return nil, classify(col.Name, "", err)
	}
	defer rows.Close()

	return scanRecords(col, rows)
}

func countRecords(ctx context.Context, q querier, col schema.Collection) (int64, error) {
	var count int64
	if err := q.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM "+col.Name,
	).Scan(&count); err != nil {
		return 0, classify(col.Name, "", err)
	}
	return count, nil
}

func clearRecords(ctx context.Context, q querier, col schema.Collection) error {
	if _, err := q.ExecContext(ctx, "DELETE FROM "+col.Name); err != nil {
		return classify(col.Name, "", err)
	}
	return nil
}

func bulkPut(ctx context.Context, q querier, now time.Time, col schema.Collection, recs []Record) ([]Record, error) {
	kf := col.KeyField()
	stored := make([]Record, 0, len(recs))

	for _, rec := range recs {
		put := rec.Clone()
		if col.Key == schema.KeyID {
			if put.primaryKey(kf) == "" {
				put[kf] = newID()
			}
		} else if put.primaryKey(kf) == "" {
			return nil, constraint(col.Name, "", fmt.Sprintf("missing primary key %q", kf))
		}
		key := put.primaryKey(kf)
		put.stamp(now)

		data, err := encodeRecord(put)
		if err != nil {
			return nil, fmt.Errorf("bulk put %s: %w", col.Name, err)
		}

		// Put semantics: insert or replace by primary key. A unique
		// secondary-index collision still fails the whole batch.
		_, err = q.ExecContext(ctx,
			"INSERT INTO "+col.Name+" ("+kf+", data) VALUES (?, ?)"+
				" ON CONFLICT("+kf+") DO UPDATE SET data = excluded.data",
			key, data,
		)
		if err != nil {
			return nil, classify(col.Name, key, err)
		}
		stored = append(stored, put)
	}

	return stored, nil
}

func bulkGet(ctx context.Context, q querier, col schema.Collection, ids []string) ([]Record, error) {
	if len(ids) == 0 {
		return []Record{}, nil
	}

	// Build placeholder string for IN clause
	placeholders := make([]byte, 0, len(ids)*2-1)
	args := make([]any, len(ids))
	for i, id := range ids {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
		args[i] = id
	}

	rows, err := q.QueryContext(ctx,
		"SELECT data FROM "+col.Name+
			" WHERE "+col.KeyField()+" IN ("+string(placeholders)+")",
		args...,
	)
	if err != nil {
		return nil, classify(col.Name, "", err)
	}
	defer rows.Close()

	return scanRecords(col, rows)
}

func scanRecords(col schema.Collection, rows *sql.Rows) ([]Record, error) {
	var recs []Record
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scan %s: %w", col.Name, err)
		}
		rec, err := decodeRecord(data)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", col.Name, err)
	}

	// Return empty slice instead of nil
	if recs == nil {
		recs = []Record{}
	}

	return recs, nil
}

// ---- Store-level convenience API ----
//
// Reads run directly against the connection; each mutation runs in its own
// read-write transaction through the coordinator, so single-call writes get
// the same atomicity and error taxonomy as multi-operation scopes.

// lookup resolves a collection name for the direct-read paths.
func (s *Store) lookup(name string) (schema.Collection, error) {
	col, ok := schema.Lookup(name)
	if !ok {
		return schema.Collection{}, fmt.Errorf("unknown collection %q", name)
	}
	return col, nil
}

// Insert writes a new record: a UUIDv7 id is generated when absent (id-keyed
// collections), created_at/updated_at are stamped when absent, and the
// stored record is returned. A unique-index or key collision fails with a
// CONSTRAINT_VIOLATION error.
func (s *Store) Insert(ctx context.Context, collection string, rec Record) (Record, error) {
	var out Record
	err := s.RunTxn(ctx, []string{collection}, ReadWrite, func(t *Txn) error {
		var err error
		out, err = t.Insert(ctx, collection, rec)
		return err
	})
	return out, err
}

// Update merge-patches the record with the given id and refreshes
// updated_at. Fails with a NOT_FOUND error when the id does not exist.
func (s *Store) Update(ctx context.Context, collection, id string, patch Record) (Record, error) {
	var out Record
	err := s.RunTxn(ctx, []string{collection}, ReadWrite, func(t *Txn) error {
		var err error
		out, err = t.Update(ctx, collection, id, patch)
		return err
	})
	return out, err
}

// Delete removes the record with the given id. Deleting a missing id is a
// successful no-op.
func (s *Store) Delete(ctx context.Context, collection, id string) error {
	return s.RunTxn(ctx, []string{collection}, ReadWrite, func(t *Txn) error {
		return t.Delete(ctx, collection, id)
	})
}

// GetByID returns the record with the given id, or (nil, nil) when absent.
func (s *Store) GetByID(ctx context.Context, collection, id string) (Record, error) {
	col, err := s.lookup(collection)
	if err != nil {
		return nil, err
	}
	return getByID(ctx, s.db, col, id)
}

// GetAll returns every record in the collection.
func (s *Store) GetAll(ctx context.Context, collection string) ([]Record, error) {
	col, err := s.lookup(collection)
	if err != nil {
		return nil, err
	}
	return getAll(ctx, s.db, col)
}

// Query returns the records matching every (field, value) equality pair in
// filters; nil filter values are ignored. Full scan by design.
func (s *Store) Query(ctx context.Context, collection string, filters Record) ([]Record, error) {
	col, err := s.lookup(collection)
	if err != nil {
		return nil, err
	}
	return queryRecords(ctx, s.db, col, filters)
}

// GetByIndex returns all records whose indexed field equals value, via the
// declared secondary index.
func (s *Store) GetByIndex(ctx context.Context, collection, index string, value any) ([]Record, error) {
	col, err := s.lookup(collection)
	if err != nil {
		return nil, err
	}
	return getByIndex(ctx, s.db, col, index, value)
}

// Count returns the number of records in the collection.
func (s *Store) Count(ctx context.Context, collection string) (int64, error) {
	col, err := s.lookup(collection)
	if err != nil {
		return 0, err
	}
	return countRecords(ctx, s.db, col)
}

// Clear removes all records in the collection.
func (s *Store) Clear(ctx context.Context, collection string) error {
	return s.RunTxn(ctx, []string{collection}, ReadWrite, func(t *Txn) error {
		return t.Clear(ctx, collection)
	})
}

// BulkPut upserts many records in one transaction; either all writes land
// or none do.
func (s *Store) BulkPut(ctx context.Context, collection string, recs []Record) ([]Record, error) {
	var out []Record
	err := s.RunTxn(ctx, []string{collection}, ReadWrite, func(t *Txn) error {
		var err error
		out, err = t.BulkPut(ctx, collection, recs)
		return err
	})
	return out, err
}

// BulkGet returns the subset of the requested ids that exist, each found
// record exactly once, in no particular order.
func (s *Store) BulkGet(ctx context.Context, collection string, ids []string) ([]Record, error) {
	col, err := s.lookup(collection)
	if err != nil {
		return nil, err
	}
	return bulkGet(ctx, s.db, col, ids)
}
