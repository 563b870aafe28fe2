// Package ir provides the canonical domain types for stakegov.
//
// This package contains type definitions, checked arithmetic and the error
// taxonomy. All other internal packages import ir; ir imports nothing
// internal. This keeps ir the foundational layer with no circular
// dependencies.
//
// Key design constraints:
//   - Token amounts and shares are uint64; every add, sub, mul and mul-div
//     is overflow-checked and reports ARITHMETIC_OVERFLOW
//   - Reward accumulators are fixed-point decimals with 18 fractional
//     digits, always truncated toward zero
//   - Time is a logical height supplied by the caller, never the wall clock
//   - Action payloads use the sealed IRValue types (no floats) so their
//     canonical JSON, and therefore their content hash, is stable
//   - All JSON tags use snake_case
package ir
