// Package token is the fungible-token collaborator. It moves balances
// between holders inside the current store transaction.
package token

import (
	"context"

	"github.com/roach88/stakegov/internal/ir"
	"github.com/roach88/stakegov/internal/store"
)

// Bank moves tokens between addresses.
type Bank struct {
	tx *store.Tx
}

// NewBank returns a bank bound to tx.
func NewBank(tx *store.Tx) *Bank {
	return &Bank{tx: tx}
}

// BalanceOf returns the balance of addr in denom.
func (b *Bank) BalanceOf(ctx context.Context, addr ir.Address, denom string) (uint64, error) {
	return b.tx.Balance(ctx, addr, denom)
}

// Balances returns every nonzero balance held by addr.
func (b *Bank) Balances(ctx context.Context, addr ir.Address) (map[string]uint64, error) {
	return b.tx.Balances(ctx, addr)
}

// TotalSupply returns the minted amount of denom.
func (b *Bank) TotalSupply(ctx context.Context, denom string) (uint64, error) {
	return b.tx.Supply(ctx, denom)
}

// Transfer moves amount of denom from one address to another. A zero
// amount is a no-op.
func (b *Bank) Transfer(ctx context.Context, from, to ir.Address, denom string, amount uint64) error {
	if amount == 0 || from == to {
		return nil
	}
	fromBal, err := b.tx.Balance(ctx, from, denom)
	if err != nil {
		return err
	}
	if fromBal < amount {
		return ir.Errorf(ir.CodeInsufficientFunds, "%s has %d%s, needs %d%s", from, fromBal, denom, amount, denom)
	}
	toBal, err := b.tx.Balance(ctx, to, denom)
	if err != nil {
		return err
	}
	newTo, err := ir.Add(toBal, amount)
	if err != nil {
		return err
	}
	if err := b.tx.PutBalance(ctx, from, denom, fromBal-amount); err != nil {
		return err
	}
	return b.tx.PutBalance(ctx, to, denom, newTo)
}

// Mint creates amount of denom at addr.
func (b *Bank) Mint(ctx context.Context, to ir.Address, denom string, amount uint64) error {
	if amount == 0 {
		return ir.Errorf(ir.CodeZeroAmount, "mint of 0%s", denom)
	}
	if denom == "" {
		return ir.Errorf(ir.CodeInvalidArgument, "denom is required")
	}
	supply, err := b.tx.Supply(ctx, denom)
	if err != nil {
		return err
	}
	newSupply, err := ir.Add(supply, amount)
	if err != nil {
		return err
	}
	bal, err := b.tx.Balance(ctx, to, denom)
	if err != nil {
		return err
	}
	newBal, err := ir.Add(bal, amount)
	if err != nil {
		return err
	}
	if err := b.tx.PutSupply(ctx, denom, newSupply); err != nil {
		return err
	}
	return b.tx.PutBalance(ctx, to, denom, newBal)
}
