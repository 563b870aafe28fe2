package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/stakegov/internal/ir"
)

const scheduleColumns = `id, funder, start_time, duration, reward_token, rate,
	accumulator, last_update_time, created_at, retired_seq`

// Schedule returns the reward schedule with the given id.
func (t *Tx) Schedule(ctx context.Context, id uint64) (ir.RewardSchedule, bool, error) {
	s, err := scanSchedule(t.queryRow(ctx, `SELECT `+scheduleColumns+` FROM schedules WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return ir.RewardSchedule{}, false, nil
	}
	if err != nil {
		return ir.RewardSchedule{}, false, fmt.Errorf("read schedule %d: %w", id, err)
	}
	return s, true, nil
}

// PutSchedule upserts a reward schedule. Only the accumulator, the last
// update time and the retirement sequence change after creation.
func (t *Tx) PutSchedule(ctx context.Context, s ir.RewardSchedule) error {
	start, err := sqlTime(s.StartTime)
	if err != nil {
		return err
	}
	duration, err := sqlTime(s.Duration)
	if err != nil {
		return err
	}
	end, err := sqlTime(s.End())
	if err != nil {
		return err
	}
	lastUpdate, err := sqlTime(s.LastUpdateTime)
	if err != nil {
		return err
	}
	createdAt, err := sqlTime(s.CreatedAt)
	if err != nil {
		return err
	}

	err = t.exec(ctx, `
		INSERT INTO schedules (id, funder, start_time, duration, end_time, reward_token, rate,
			accumulator, last_update_time, created_at, retired_seq)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			accumulator = excluded.accumulator,
			last_update_time = excluded.last_update_time,
			retired_seq = excluded.retired_seq
	`,
		s.ID,
		string(s.Funder),
		start,
		duration,
		end,
		s.RewardToken,
		formatAmount(s.Rate),
		ir.FormatDecimal(s.Accumulator),
		lastUpdate,
		createdAt,
		s.RetiredSeq,
	)
	if err != nil {
		return fmt.Errorf("write schedule %d: %w", s.ID, err)
	}
	return nil
}

// ListSchedules returns schedules ordered by id after the cursor.
// limit <= 0 means no limit.
func (t *Tx) ListSchedules(ctx context.Context, after uint64, limit int) ([]ir.RewardSchedule, error) {
	if limit <= 0 {
		limit = -1
	}
	return t.schedules(ctx, `
		SELECT `+scheduleColumns+` FROM schedules
		WHERE id > ?
		ORDER BY id ASC
		LIMIT ?
	`, after, limit)
}

// RetiredSchedules returns up to limit retired schedules whose retirement
// sequence is after the cursor, in retirement order.
func (t *Tx) RetiredSchedules(ctx context.Context, after uint64, limit int) ([]ir.RewardSchedule, error) {
	if limit <= 0 {
		limit = -1
	}
	return t.schedules(ctx, `
		SELECT `+scheduleColumns+` FROM schedules
		WHERE retired_seq > ?
		ORDER BY retired_seq ASC
		LIMIT ?
	`, after, limit)
}

func (t *Tx) schedules(ctx context.Context, query string, args ...any) ([]ir.RewardSchedule, error) {
	rows, err := t.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query schedules: %w", err)
	}
	defer rows.Close()

	schedules := []ir.RewardSchedule{}
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			return nil, fmt.Errorf("scan schedule: %w", err)
		}
		schedules = append(schedules, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate schedules: %w", err)
	}
	return schedules, nil
}

func scanSchedule(row scanner) (ir.RewardSchedule, error) {
	var (
		s                                      ir.RewardSchedule
		funder, rate, acc                      string
		start, duration, lastUpdate, createdAt int64
	)
	err := row.Scan(&s.ID, &funder, &start, &duration, &s.RewardToken, &rate, &acc, &lastUpdate, &createdAt, &s.RetiredSeq)
	if err != nil {
		return ir.RewardSchedule{}, err
	}
	s.Funder = ir.Address(funder)
	s.StartTime, s.Duration = uint64(start), uint64(duration)
	s.LastUpdateTime, s.CreatedAt = uint64(lastUpdate), uint64(createdAt)
	if s.Rate, err = parseAmount(rate); err != nil {
		return ir.RewardSchedule{}, err
	}
	if s.Accumulator, err = parseDecimal(acc); err != nil {
		return ir.RewardSchedule{}, err
	}
	return s, nil
}

// Checkpoint returns an account's position in a schedule.
func (t *Tx) Checkpoint(ctx context.Context, scheduleID uint64, acct ir.Address) (ir.RewardCheckpoint, bool, error) {
	cp, err := scanCheckpoint(t.queryRow(ctx, `
		SELECT schedule_id, account, accumulator_paid, accrued_unclaimed FROM checkpoints
		WHERE schedule_id = ? AND account = ?
	`, scheduleID, string(acct)))
	if errors.Is(err, sql.ErrNoRows) {
		return ir.RewardCheckpoint{}, false, nil
	}
	if err != nil {
		return ir.RewardCheckpoint{}, false, fmt.Errorf("read checkpoint: %w", err)
	}
	return cp, true, nil
}

// PutCheckpoint upserts a checkpoint.
func (t *Tx) PutCheckpoint(ctx context.Context, cp ir.RewardCheckpoint) error {
	err := t.exec(ctx, `
		INSERT INTO checkpoints (schedule_id, account, accumulator_paid, accrued_unclaimed)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(schedule_id, account) DO UPDATE SET
			accumulator_paid = excluded.accumulator_paid,
			accrued_unclaimed = excluded.accrued_unclaimed
	`, cp.ScheduleID, string(cp.Account), ir.FormatDecimal(cp.AccumulatorPaid), formatAmount(cp.AccruedUnclaimed))
	if err != nil {
		return fmt.Errorf("write checkpoint: %w", err)
	}
	return nil
}

// DeleteCheckpoint removes a checkpoint.
func (t *Tx) DeleteCheckpoint(ctx context.Context, scheduleID uint64, acct ir.Address) error {
	if err := t.exec(ctx, `DELETE FROM checkpoints WHERE schedule_id = ? AND account = ?`,
		scheduleID, string(acct)); err != nil {
		return fmt.Errorf("delete checkpoint: %w", err)
	}
	return nil
}

// Checkpoints returns every checkpoint held by an account, ordered by
// schedule id.
func (t *Tx) Checkpoints(ctx context.Context, acct ir.Address) ([]ir.RewardCheckpoint, error) {
	return t.checkpoints(ctx, `
		SELECT schedule_id, account, accumulator_paid, accrued_unclaimed FROM checkpoints
		WHERE account = ?
		ORDER BY schedule_id ASC
	`, string(acct))
}

// ClaimableCheckpoints returns up to limit checkpoints of an account with
// a nonzero unclaimed amount, ordered by schedule id.
func (t *Tx) ClaimableCheckpoints(ctx context.Context, acct ir.Address, limit int) ([]ir.RewardCheckpoint, error) {
	if limit <= 0 {
		limit = -1
	}
	return t.checkpoints(ctx, `
		SELECT schedule_id, account, accumulator_paid, accrued_unclaimed FROM checkpoints
		WHERE account = ? AND accrued_unclaimed <> ?
		ORDER BY schedule_id ASC
		LIMIT ?
	`, string(acct), formatAmount(0), limit)
}

func (t *Tx) checkpoints(ctx context.Context, query string, args ...any) ([]ir.RewardCheckpoint, error) {
	rows, err := t.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query checkpoints: %w", err)
	}
	defer rows.Close()

	cps := []ir.RewardCheckpoint{}
	for rows.Next() {
		cp, err := scanCheckpoint(rows)
		if err != nil {
			return nil, fmt.Errorf("scan checkpoint: %w", err)
		}
		cps = append(cps, cp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate checkpoints: %w", err)
	}
	return cps, nil
}

func scanCheckpoint(row scanner) (ir.RewardCheckpoint, error) {
	var (
		cp                    ir.RewardCheckpoint
		acct, paid, unclaimed string
	)
	if err := row.Scan(&cp.ScheduleID, &acct, &paid, &unclaimed); err != nil {
		return ir.RewardCheckpoint{}, err
	}
	cp.Account = ir.Address(acct)
	var err error
	if cp.AccumulatorPaid, err = parseDecimal(paid); err != nil {
		return ir.RewardCheckpoint{}, err
	}
	if cp.AccruedUnclaimed, err = parseAmount(unclaimed); err != nil {
		return ir.RewardCheckpoint{}, err
	}
	return cp, nil
}

// QueueLen returns the number of queued schedules.
func (t *Tx) QueueLen(ctx context.Context) (int, error) {
	var n int
	if err := t.queryRow(ctx, `SELECT COUNT(*) FROM schedule_queue`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count queue: %w", err)
	}
	return n, nil
}

// QueueFront returns up to n schedule ids from the front of the queue.
// n <= 0 returns the whole queue.
func (t *Tx) QueueFront(ctx context.Context, n int) ([]uint64, error) {
	if n <= 0 {
		n = -1
	}
	rows, err := t.query(ctx, `SELECT schedule_id FROM schedule_queue ORDER BY pos ASC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("query queue: %w", err)
	}
	defer rows.Close()

	ids := []uint64{}
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan queue: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Enqueue appends a schedule to the back of the queue. A schedule already
// queued is moved to the back.
func (t *Tx) Enqueue(ctx context.Context, scheduleID uint64) error {
	if err := t.Dequeue(ctx, scheduleID); err != nil {
		return err
	}
	if err := t.exec(ctx, `INSERT INTO schedule_queue (schedule_id) VALUES (?)`, scheduleID); err != nil {
		return fmt.Errorf("enqueue schedule %d: %w", scheduleID, err)
	}
	return nil
}

// Dequeue removes a schedule from the queue. Absent ids are ignored.
func (t *Tx) Dequeue(ctx context.Context, scheduleID uint64) error {
	if err := t.exec(ctx, `DELETE FROM schedule_queue WHERE schedule_id = ?`, scheduleID); err != nil {
		return fmt.Errorf("dequeue schedule %d: %w", scheduleID, err)
	}
	return nil
}
