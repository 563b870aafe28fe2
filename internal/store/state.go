package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/roach88/stakegov/internal/ir"
)

// ErrNotInitialized is returned when genesis has not been written.
var ErrNotInitialized = errors.New("store not initialized")

// Initialized reports whether genesis has been written.
func (t *Tx) Initialized(ctx context.Context) (bool, error) {
	var n int
	if err := t.queryRow(ctx, `SELECT COUNT(*) FROM config`).Scan(&n); err != nil {
		return false, fmt.Errorf("check config: %w", err)
	}
	return n > 0, nil
}

// Genesis writes the config and a zero state. It fails if the store is
// already initialized.
func (t *Tx) Genesis(ctx context.Context, cfg ir.Config) error {
	body, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := t.exec(ctx, `INSERT INTO config (id, body) VALUES (1, ?)`, string(body)); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return t.PutState(ctx, ir.State{})
}

// Config returns the governance config written at genesis.
func (t *Tx) Config(ctx context.Context) (ir.Config, error) {
	var body string
	err := t.queryRow(ctx, `SELECT body FROM config WHERE id = 1`).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return ir.Config{}, ErrNotInitialized
	}
	if err != nil {
		return ir.Config{}, fmt.Errorf("read config: %w", err)
	}
	var cfg ir.Config
	if err := json.Unmarshal([]byte(body), &cfg); err != nil {
		return ir.Config{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

// State returns the singleton ledger state.
func (t *Tx) State(ctx context.Context) (ir.State, error) {
	var (
		st                       ir.State
		totalShare, totalBalance string
		lastTime                 int64
	)
	err := t.queryRow(ctx, `
		SELECT total_share, total_balance, proposal_count, schedule_count, last_time, invocation_seq, retired_count
		FROM ledger_state WHERE id = 1
	`).Scan(&totalShare, &totalBalance, &st.ProposalCount, &st.ScheduleCount, &lastTime, &st.InvocationSeq, &st.RetiredCount)
	if errors.Is(err, sql.ErrNoRows) {
		return ir.State{}, ErrNotInitialized
	}
	if err != nil {
		return ir.State{}, fmt.Errorf("read state: %w", err)
	}
	if st.TotalShare, err = parseAmount(totalShare); err != nil {
		return ir.State{}, err
	}
	if st.TotalBalance, err = parseAmount(totalBalance); err != nil {
		return ir.State{}, err
	}
	st.LastTime = uint64(lastTime)
	return st, nil
}

// PutState overwrites the singleton ledger state.
func (t *Tx) PutState(ctx context.Context, st ir.State) error {
	lastTime, err := sqlTime(st.LastTime)
	if err != nil {
		return err
	}
	err = t.exec(ctx, `
		INSERT INTO ledger_state (id, total_share, total_balance, proposal_count, schedule_count, last_time,
			invocation_seq, retired_count)
		VALUES (1, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			total_share = excluded.total_share,
			total_balance = excluded.total_balance,
			proposal_count = excluded.proposal_count,
			schedule_count = excluded.schedule_count,
			last_time = excluded.last_time,
			invocation_seq = excluded.invocation_seq,
			retired_count = excluded.retired_count
	`,
		formatAmount(st.TotalShare),
		formatAmount(st.TotalBalance),
		st.ProposalCount,
		st.ScheduleCount,
		lastTime,
		st.InvocationSeq,
		st.RetiredCount,
	)
	if err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	return nil
}
