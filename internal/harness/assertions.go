package harness

import (
	"context"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/roach88/stakegov/internal/engine"
	"github.com/roach88/stakegov/internal/ir"
	"github.com/roach88/stakegov/internal/store"
)

// validIdentifier guards table and column names interpolated into SQL.
var validIdentifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// AssertionError is a failed assertion with enough context to debug it.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Trace    []TraceEvent
}

func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for i, event := range e.Trace {
			if event.Type == "invocation" {
				fmt.Fprintf(&buf, "  [%d] %s by %s at %d %s\n", i+1, event.Op, event.Sender, event.Now, describe(event.Args))
			}
		}
	}
	return buf.String()
}

// committed returns the invocation events whose completion was ok.
func committed(trace []TraceEvent) []TraceEvent {
	var out []TraceEvent
	for i := 0; i+1 < len(trace); i++ {
		if trace[i].Type == "invocation" && trace[i+1].OutputCase == CaseOK {
			out = append(out, trace[i])
		}
	}
	return out
}

// assertTraceContains checks for an invocation of the op whose args
// include the expected ones.
func assertTraceContains(trace []TraceEvent, a Assertion) error {
	want, err := convertArgsToIRObject(a.Args)
	if err != nil {
		return fmt.Errorf("trace_contains args: %w", err)
	}
	for _, event := range trace {
		if event.Type == "invocation" && event.Op == a.Op && matchObject(event.Args, want) {
			return nil
		}
	}
	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: fmt.Sprintf("%s with args %s", a.Op, describe(want)),
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertTraceOrder checks that the first committed occurrence of each op
// follows the previous one. Other invocations may come in between.
func assertTraceOrder(trace []TraceEvent, a Assertion) error {
	positions := make(map[ir.Op]int)
	for i, event := range committed(trace) {
		if _, seen := positions[event.Op]; !seen {
			positions[event.Op] = i + 1
		}
	}

	for _, op := range a.Ops {
		if positions[op] == 0 {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("all ops committed: %v", a.Ops),
				Actual:   fmt.Sprintf("missing op: %s", op),
				Trace:    trace,
			}
		}
	}
	for i := 1; i < len(a.Ops); i++ {
		prev, curr := a.Ops[i-1], a.Ops[i]
		if positions[prev] >= positions[curr] {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("ops in order: %v", a.Ops),
				Actual: fmt.Sprintf("%s (pos %d) should be before %s (pos %d)",
					prev, positions[prev], curr, positions[curr]),
				Trace: trace,
			}
		}
	}
	return nil
}

// assertTraceCount checks how many invocations of the op committed.
func assertTraceCount(trace []TraceEvent, a Assertion) error {
	count := 0
	for _, event := range committed(trace) {
		if event.Op == a.Op {
			count++
		}
	}
	if count != a.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d committed %s", a.Count, a.Op),
			Actual:   fmt.Sprintf("%d committed", count),
			Trace:    trace,
		}
	}
	return nil
}

// assertFinalState queries one row and checks the expected columns.
func assertFinalState(ctx context.Context, st *store.Store, a Assertion) error {
	if !validIdentifier.MatchString(a.Table) {
		return fmt.Errorf("invalid table name %q: must match pattern %s", a.Table, validIdentifier.String())
	}
	whereSQL, whereArgs, err := buildWhereClause(a.Where)
	if err != nil {
		return err
	}

	query := fmt.Sprintf("SELECT * FROM %s", a.Table)
	if whereSQL != "" {
		query += " WHERE " + whereSQL
	}

	rows, err := st.Query(ctx, query, whereArgs...)
	if err != nil {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("query table %s", a.Table),
			Actual:   fmt.Sprintf("query error: %v", err),
		}
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return fmt.Errorf("get columns: %w", err)
	}
	if !rows.Next() {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("row in %s where %s", a.Table, formatWhereClause(a.Where)),
			Actual:   "row not found",
		}
	}

	values := make([]any, len(columns))
	ptrs := make([]any, len(columns))
	for i := range values {
		ptrs[i] = &values[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return fmt.Errorf("scan row: %w", err)
	}
	if rows.Next() {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("exactly one row in %s where %s", a.Table, formatWhereClause(a.Where)),
			Actual:   "multiple rows matched",
		}
	}

	row := make(map[string]any, len(columns))
	for i, col := range columns {
		row[col] = values[i]
	}

	keys := sortedKeys(a.Expect)
	for _, key := range keys {
		actual, ok := row[key]
		if !ok {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("column %q", key),
				Actual:   fmt.Sprintf("columns are %v", columns),
			}
		}
		if !stateValuesEqual(a.Expect[key], actual) {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("%s.%s = %v", a.Table, key, a.Expect[key]),
				Actual:   fmt.Sprintf("%s.%s = %v", a.Table, key, sqlText(actual)),
			}
		}
	}
	return nil
}

// buildWhereClause renders a parameterized WHERE clause with keys in
// sorted order.
func buildWhereClause(where map[string]any) (string, []any, error) {
	if len(where) == 0 {
		return "", nil, nil
	}
	keys := sortedKeys(where)
	clauses := make([]string, 0, len(keys))
	args := make([]any, 0, len(keys))
	for _, key := range keys {
		if !validIdentifier.MatchString(key) {
			return "", nil, fmt.Errorf("invalid column name %q in where clause", key)
		}
		clauses = append(clauses, fmt.Sprintf("%s = ?", key))
		args = append(args, toSQLValue(where[key]))
	}
	return strings.Join(clauses, " AND "), args, nil
}

// toSQLValue maps YAML scalars to driver values. Amount columns are TEXT,
// so integers in a where clause are compared in SQLite's loose affinity.
func toSQLValue(v any) any {
	switch val := v.(type) {
	case string, int, int64, uint64, bool:
		return val
	default:
		return fmt.Sprintf("%v", val)
	}
}

func formatWhereClause(where map[string]any) string {
	if len(where) == 0 {
		return "(no conditions)"
	}
	parts := make([]string, 0, len(where))
	for _, k := range sortedKeys(where) {
		parts = append(parts, fmt.Sprintf("%s=%v", k, where[k]))
	}
	return strings.Join(parts, " AND ")
}

// sqlText renders a scanned SQLite value as text.
func sqlText(v any) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(val)
	case string:
		return val
	case int64:
		return strconv.FormatInt(val, 10)
	case bool:
		if val {
			return "1"
		}
		return "0"
	default:
		return fmt.Sprintf("%v", val)
	}
}

// stateValuesEqual compares a YAML scalar with a scanned column. Amounts
// are stored as decimal TEXT, so comparison is on the textual form.
func stateValuesEqual(expected, actual any) bool {
	switch exp := expected.(type) {
	case nil:
		return actual == nil
	case bool:
		if exp {
			return sqlText(actual) == "1" || sqlText(actual) == "true"
		}
		return sqlText(actual) == "0" || sqlText(actual) == "false"
	case string:
		return exp == sqlText(actual)
	case int:
		return strconv.Itoa(exp) == sqlText(actual)
	case int64:
		return strconv.FormatInt(exp, 10) == sqlText(actual)
	case uint64:
		return strconv.FormatUint(exp, 10) == sqlText(actual)
	}
	return reflect.DeepEqual(expected, actual)
}

// matchObject reports whether actual contains every key of want with an
// equal value.
func matchObject(actual, want ir.IRObject) bool {
	for key, w := range want {
		a, ok := actual[key]
		if !ok || !reflect.DeepEqual(a, w) {
			return false
		}
	}
	return true
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// AssertionContext gives assertions access to the scenario's store.
type AssertionContext struct {
	Ctx    context.Context
	Store  *store.Store
	Engine *engine.Engine
}

// EvaluateAssertions evaluates every assertion and returns the failures.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errs []string
	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertTraceContains:
			err = assertTraceContains(result.Trace, a)
		case AssertTraceOrder:
			err = assertTraceOrder(result.Trace, a)
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, a)
		case AssertFinalState:
			if actx == nil || actx.Store == nil {
				err = fmt.Errorf("assertion[%d]: final_state requires a store", i)
			} else {
				err = assertFinalState(actx.Ctx, actx.Store, a)
			}
		case AssertInvariants:
			if actx == nil || actx.Engine == nil {
				err = fmt.Errorf("assertion[%d]: invariants requires an engine", i)
			} else if ierr := actx.Engine.CheckInvariants(actx.Ctx); ierr != nil {
				err = &AssertionError{Type: AssertInvariants, Expected: "ledger invariants hold", Actual: ierr.Error()}
			}
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, a.Type)
		}
		if err != nil {
			errs = append(errs, err.Error())
		}
	}
	return errs
}
