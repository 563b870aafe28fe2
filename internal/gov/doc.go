// Package gov implements the proposal lifecycle and the quorum snapshot.
//
// A proposal moves through
//
//	InProgress --tally--> Passed | Rejected
//	Passed --execute--> Executed
//	Passed --expire--> Expired
//
// Every transition is an explicit, externally triggered operation; nothing
// happens on a timer. A vote locks the voter's shares until the proposal
// leaves InProgress.
package gov
