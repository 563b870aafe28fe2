// Package store persists stakegov state in SQLite.
//
// Every mutation happens inside a Tx obtained from Store.Update. The engine
// opens one Tx per invocation, so a rejected invocation rolls back every
// write it made. Reads outside an invocation use Store.View.
//
// Amounts are uint64 and stored as decimal TEXT because SQLite integers are
// signed. Logical times are capped at ir.MaxTime and stored as INTEGER.
//
// Listing queries order by primary key so results are identical across
// replays.
//
// # Database Configuration
//
//   - WAL mode for concurrent readers
//   - synchronous=NORMAL
//   - busy_timeout=5000
//   - foreign_keys=ON
package store
