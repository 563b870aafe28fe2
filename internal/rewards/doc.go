// Package rewards streams reward tokens to share holders.
//
// A schedule pays rate tokens per unit of time between start_time and
// start_time+duration, split pro rata by share. Each schedule keeps a
// reward-per-share accumulator; each account keeps a checkpoint per
// schedule recording the accumulator it was last paid up to and the
// amount accrued but not yet claimed.
//
// Accrual is lazy. Accumulators only move when an invocation advances
// them, and any change to an account's share must first settle that
// account (see BeforeShareChange) so the elapsed interval is credited at
// the share that was actually held.
//
// Unfinished schedules sit on a maintenance queue whose length is capped
// by max_active_schedules; a sweep advances at most max_update_batch of
// them and rotates the rest to the back. A finished schedule leaves the
// queue with the next retirement sequence number. Each account carries a
// cursor into that sequence and settles at most max_update_batch retired
// schedules per call, so a claim after a long absence pays out over
// several calls. A stake or unstake is refused with SETTLEMENT_PENDING
// until the account has caught up.
package rewards
