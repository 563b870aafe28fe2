// Package engine is the host for the staking and governance core.
//
// The engine accepts invocations (an operation, a sender, a logical time
// and arguments), runs each one to completion inside a single store
// transaction, and appends it to the audit log only if it commits.
//
// Processing model:
//
//  1. The invocation is validated: known operation, non-module sender,
//     time within range.
//  2. A transaction opens and the logical time is checked against the
//     last committed time. Time never moves backwards.
//  3. The ledger, proposal manager, dispatcher and reward engine are
//     built on the transaction and the operation runs.
//  4. Optionally the ledger invariants are checked; a violation halts.
//  5. The audit record and the updated counters are written and the
//     transaction commits.
//
// Any error in steps 2-5 rolls the whole invocation back. A failed
// execute therefore leaves its proposal Passed, retryable until expiry.
//
// There is no wall clock and no background work. Tally, expire, snapshot
// and schedule maintenance happen only when an invocation asks for them.
//
// Replay re-applies an audit log to a fresh store and verifies that every
// digest and result comes out the same.
package engine
