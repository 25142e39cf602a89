// Package store provides SQLite-backed durable storage for schema-registered
// record collections.
//
// The store is the sole persistence API of the application: a versioned set
// of collections (declared in internal/schema), each holding untyped JSON
// field-bag records keyed by "id" (engine-generated) or "key"
// (caller-supplied). On open, the persisted schema version is reconciled
// with the registry by applying only additive deltas inside one
// transaction.
//
// # Contracts
//
//   - Primary keys are unique and immutable; created_at/updated_at are
//     maintained by the engine, never by callers.
//   - Unique secondary indexes fail violating writes with a
//     CONSTRAINT_VIOLATION error; this is the only payload validation.
//   - RunTxn scopes are all-or-nothing; serialization of overlapping
//     read-write scopes is delegated to SQLite's single-writer model.
//   - NextSequence issues strictly increasing per-prefix values with no
//     gaps on success and no value issued on failure.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Record ids are time-sortable UUIDv7 values generated when the caller
// omits them.
package store
