package store

import (
	"context"
	"fmt"

	"github.com/roach88/stakegov/internal/ir"
)

// InvocationRecord is an audit log entry for a committed invocation.
type InvocationRecord struct {
	Seq    int64       `json:"seq"`
	ID     string      `json:"id"`
	Op     ir.Op       `json:"op"`
	Sender ir.Address  `json:"sender"`
	Now    uint64      `json:"now"`
	Args   ir.IRObject `json:"args"`
	Digest string      `json:"digest"`
	Result ir.IRObject `json:"result"`
}

// WriteInvocation appends a record to the audit log.
func (t *Tx) WriteInvocation(ctx context.Context, rec InvocationRecord) error {
	args, err := marshalObject(rec.Args)
	if err != nil {
		return fmt.Errorf("write invocation: %w", err)
	}
	result, err := marshalObject(rec.Result)
	if err != nil {
		return fmt.Errorf("write invocation: %w", err)
	}
	now, err := sqlTime(rec.Now)
	if err != nil {
		return err
	}
	err = t.exec(ctx, `
		INSERT INTO invocations (seq, id, op, sender, now, args, digest, result)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.Seq, rec.ID, string(rec.Op), string(rec.Sender), now, args, rec.Digest, result)
	if err != nil {
		return fmt.Errorf("write invocation: %w", err)
	}
	return nil
}

// ReadInvocations returns audit records with seq > after, ordered by seq.
// limit <= 0 means no limit.
func (t *Tx) ReadInvocations(ctx context.Context, after int64, limit int) ([]InvocationRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := t.query(ctx, `
		SELECT seq, id, op, sender, now, args, digest, result FROM invocations
		WHERE seq > ?
		ORDER BY seq ASC
		LIMIT ?
	`, after, limit)
	if err != nil {
		return nil, fmt.Errorf("query invocations: %w", err)
	}
	defer rows.Close()

	records := []InvocationRecord{}
	for rows.Next() {
		var (
			rec                   InvocationRecord
			op, sender, args, res string
			now                   int64
		)
		if err := rows.Scan(&rec.Seq, &rec.ID, &op, &sender, &now, &args, &rec.Digest, &res); err != nil {
			return nil, fmt.Errorf("scan invocation: %w", err)
		}
		rec.Op = ir.Op(op)
		rec.Sender = ir.Address(sender)
		rec.Now = uint64(now)
		if rec.Args, err = unmarshalObject(args); err != nil {
			return nil, err
		}
		if rec.Result, err = unmarshalObject(res); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate invocations: %w", err)
	}
	return records, nil
}
