// Package harness runs YAML scenarios against a fresh in-memory engine.
//
// A scenario names a governance config, a list of setup invocations that
// must commit, and a flow of invocations whose outcomes are checked. After
// the flow, assertions inspect the trace and the final store contents.
//
// # Scenario Format
//
//	name: over-unstake
//	description: "Unstaking more shares than held is rejected"
//	config:
//	  voting_period: 100
//	  quorum: 0.4
//	setup:
//	  - op: mint
//	    sender: admin
//	    args: { to: alice, amount: 1000 }
//	flow:
//	  - op: stake
//	    sender: alice
//	    args: { amount: 1000 }
//	    expect:
//	      case: ok
//	      result: { minted_shares: 1000 }
//	  - op: unstake
//	    sender: alice
//	    advance: 5
//	    args: { shares: 2000 }
//	    expect:
//	      case: INSUFFICIENT_UNLOCKED_SHARE
//	assertions:
//	  - type: trace_contains
//	    op: stake
//	    args: { amount: 1000 }
//	  - type: final_state
//	    table: accounts
//	    where: { address: alice }
//	    expect: { share: 1000 }
//	  - type: invariants
//
// Logical time starts at zero. A step may set now explicitly or advance
// the clock; otherwise it runs at the current time. The expected case is
// "ok" for a committed invocation or the rejection code otherwise.
//
// Traces are deterministic: invocation ids come from a sequential
// generator seeded with the scenario name, so golden files compare
// byte for byte.
package harness
