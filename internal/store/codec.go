package store

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/roach88/stakegov/internal/ir"
)

func formatAmount(v uint64) string {
	return strconv.FormatUint(v, 10)
}

func parseAmount(s string) (uint64, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("corrupt amount %q: %w", s, err)
	}
	return v, nil
}

// sqlTime converts a logical time for storage. Callers keep times within
// ir.MaxTime; anything larger is a programming error surfaced as overflow.
func sqlTime(v uint64) (int64, error) {
	if v > ir.MaxTime {
		return 0, ir.Errorf(ir.CodeArithmeticOverflow, "time %d exceeds %d", v, ir.MaxTime)
	}
	return int64(v), nil
}

func parseDecimal(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("corrupt decimal %q: %w", s, err)
	}
	return d, nil
}

// marshalActions stores an action list as canonical JSON.
func marshalActions(actions []ir.Action) (string, error) {
	data, err := ir.MarshalCanonical(ir.ActionsValue(actions))
	if err != nil {
		return "", fmt.Errorf("marshal actions: %w", err)
	}
	return string(data), nil
}

func unmarshalActions(data string) ([]ir.Action, error) {
	v, err := ir.UnmarshalIRValue([]byte(data))
	if err != nil {
		return nil, fmt.Errorf("unmarshal actions: %w", err)
	}
	actions, err := ir.ParseActions(v)
	if err != nil {
		return nil, fmt.Errorf("unmarshal actions: %w", err)
	}
	return actions, nil
}

// marshalObject stores an IRObject as canonical JSON TEXT.
func marshalObject(obj ir.IRObject) (string, error) {
	if obj == nil {
		obj = ir.IRObject{}
	}
	data, err := ir.MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("marshal object: %w", err)
	}
	return string(data), nil
}

func unmarshalObject(data string) (ir.IRObject, error) {
	if data == "" || data == "{}" {
		return ir.IRObject{}, nil
	}
	var obj ir.IRObject
	if err := json.Unmarshal([]byte(data), &obj); err != nil {
		return nil, fmt.Errorf("unmarshal object: %w", err)
	}
	return obj, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}
