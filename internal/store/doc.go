// Package store records generation runs in a SQLite ledger.
//
// Each run of the dispatcher becomes one row in generations, with the files it
// wrote in generated_files. Rows are append-only.
//
// Ordering: every query orders by seq ASC, id ASC COLLATE BINARY. seq is
// assigned by the store inside the insert transaction, so two ledgers built
// from the same runs list them identically.
//
// Database configuration:
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL
//   - busy_timeout=5000
//   - foreign_keys=ON
//
// Document and file hashes come from internal/canonical.
package store
