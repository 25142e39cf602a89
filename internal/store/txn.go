package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/craftbooks/recordstore/internal/schema"
)

// Mode selects what a transaction scope is allowed to do.
type Mode int

const (
	// ReadOnly scopes reject every write operation before it reaches the
	// engine. The driver has no native read-only transactions, so the
	// coordinator enforces the mode itself.
	ReadOnly Mode = iota

	// ReadWrite scopes may mutate the collections they name.
	ReadWrite
)

// querier is the subset of database/sql shared by *sql.DB and *sql.Tx, so
// the CRUD engine runs unchanged inside and outside a transaction.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Txn is a scoped handle over the collections named when the transaction
// was opened. All operations issued through it commit together or not at
// all. A Txn must not outlive its RunTxn body.
type Txn struct {
	q     querier
	clock Clock
	mode  Mode
	scope map[string]schema.Collection
}

// RunTxn opens an all-or-nothing scope over exactly the named collections
// and executes fn against it. Any error returned by fn, or any engine
// failure, rolls the whole transaction back with none of its writes
// visible; a nil return means every operation has been durably committed.
//
// The coordinator adds no locking of its own: overlapping read-write
// transactions are serialized by SQLite (single writer, busy timeout).
// Inside fn, use the Txn handle, not the Store: the store's own methods
// would wait on the connection the transaction holds.
func (s *Store) RunTxn(ctx context.Context, collections []string, mode Mode, fn func(*Txn) error) error {
	scope := make(map[string]schema.Collection, len(collections))
	for _, name := range collections {
		col, ok := schema.Lookup(name)
		if !ok {
			return fmt.Errorf("run txn: unknown collection %q", name)
		}
		scope[name] = col
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &Error{Kind: KindTxnAborted, Message: "begin", Err: err}
	}
	defer tx.Rollback() // No-op if committed

	t := &Txn{q: tx, clock: s.clock, mode: mode, scope: scope}
	if err := fn(t); err != nil {
		var se *Error
		if errors.As(err, &se) {
			return err
		}
		return &Error{Kind: KindTxnAborted, Message: "transaction body failed", Err: err}
	}

	if err := tx.Commit(); err != nil {
		return classify("", "", err)
	}

	return nil
}

// collection resolves a name against the transaction's declared scope.
func (t *Txn) collection(name string) (schema.Collection, error) {
	col, ok := t.scope[name]
	if !ok {
		return schema.Collection{}, fmt.Errorf("collection %q is not part of this transaction", name)
	}
	return col, nil
}

// writable guards mutation paths against read-only scopes.
func (t *Txn) writable(name string) (schema.Collection, error) {
	col, err := t.collection(name)
	if err != nil {
		return schema.Collection{}, err
	}
	if t.mode != ReadWrite {
		return schema.Collection{}, fmt.Errorf("collection %q: transaction is read-only", name)
	}
	return col, nil
}

// Insert writes a new record. See Store.Insert for semantics.
func (t *Txn) Insert(ctx context.Context, collection string, rec Record) (Record, error) {
	col, err := t.writable(collection)
	if err != nil {
		return nil, err
	}
	return insertRecord(ctx, t.q, t.clock.Now(), col, rec)
}

// Update merge-patches an existing record. See Store.Update for semantics.
func (t *Txn) Update(ctx context.Context, collection, id string, patch Record) (Record, error) {
	col, err := t.writable(collection)
	if err != nil {
		return nil, err
	}
	return updateRecord(ctx, t.q, t.clock.Now(), col, id, patch)
}

// Delete removes a record; deleting a missing key is a no-op.
func (t *Txn) Delete(ctx context.Context, collection, id string) error {
	col, err := t.writable(collection)
	if err != nil {
		return err
	}
	return deleteRecord(ctx, t.q, col, id)
}

// GetByID returns the record, or (nil, nil) when absent.
func (t *Txn) GetByID(ctx context.Context, collection, id string) (Record, error) {
	col, err := t.collection(collection)
	if err != nil {
		return nil, err
	}
	return getByID(ctx, t.q, col, id)
}

// GetAll returns every record in the collection.
func (t *Txn) GetAll(ctx context.Context, collection string) ([]Record, error) {
	col, err := t.collection(collection)
	if err != nil {
		return nil, err
	}
	return getAll(ctx, t.q, col)
}

// Query full-scans the collection for records matching every filter pair.
func (t *Txn) Query(ctx context.Context, collection string, filters Record) ([]Record, error) {
	col, err := t.collection(collection)
	if err != nil {
		return nil, err
	}
	return queryRecords(ctx, t.q, col, filters)
}

// GetByIndex returns all records whose indexed field equals value.
func (t *Txn) GetByIndex(ctx context.Context, collection, index string, value any) ([]Record, error) {
	col, err := t.collection(collection)
	if err != nil {
		return nil, err
	}
	return getByIndex(ctx, t.q, col, index, value)
}

// Count returns the number of records in the collection.
func (t *Txn) Count(ctx context.Context, collection string) (int64, error) {
	col, err := t.collection(collection)
	if err != nil {
		return 0, err
	}
	return countRecords(ctx, t.q, col)
}

// Clear removes every record in the collection.
func (t *Txn) Clear(ctx context.Context, collection string) error {
	col, err := t.writable(collection)
	if err != nil {
		return err
	}
	return clearRecords(ctx, t.q, col)
}

// BulkPut upserts many records. See Store.BulkPut for semantics.
func (t *Txn) BulkPut(ctx context.Context, collection string, recs []Record) ([]Record, error) {
	col, err := t.writable(collection)
	if err != nil {
		return nil, err
	}
	return bulkPut(ctx, t.q, t.clock.Now(), col, recs)
}

// BulkGet returns the subset of the requested ids that exist.
func (t *Txn) BulkGet(ctx context.Context, collection string, ids []string) ([]Record, error) {
	col, err := t.collection(collection)
	if err != nil {
		return nil, err
	}
	return bulkGet(ctx, t.q, col, ids)
}
