package ir

import (
	"fmt"
	"math"
	"strconv"
)

// Action is one executable message carried by a proposal. Kind selects the
// handler in the dispatcher's registry; Msg is the kind-specific payload.
type Action struct {
	Kind string   `json:"kind"`
	Msg  IRObject `json:"msg"`
}

func (a Action) irObject() IRObject {
	msg := a.Msg
	if msg == nil {
		msg = IRObject{}
	}
	return IRObject{"kind": IRString(a.Kind), "msg": msg}
}

// ParseActions decodes an action list from an invocation argument.
func ParseActions(v IRValue) ([]Action, error) {
	if v == nil {
		return nil, nil
	}
	arr, ok := v.(IRArray)
	if !ok {
		return nil, Errorf(CodeInvalidAction, "actions must be a list, got %T", v)
	}
	out := make([]Action, 0, len(arr))
	for i, elem := range arr {
		obj, ok := elem.(IRObject)
		if !ok {
			return nil, Errorf(CodeInvalidAction, "actions[%d] must be an object", i)
		}
		kind, ok := obj["kind"].(IRString)
		if !ok || kind == "" {
			return nil, Errorf(CodeInvalidAction, "actions[%d].kind is required", i)
		}
		var msg IRObject
		switch m := obj["msg"].(type) {
		case nil:
			msg = IRObject{}
		case IRObject:
			msg = m
		default:
			return nil, Errorf(CodeInvalidAction, "actions[%d].msg must be an object", i)
		}
		out = append(out, Action{Kind: string(kind), Msg: msg})
	}
	return out, nil
}

// ActionsValue encodes actions back into an IRArray.
func ActionsValue(actions []Action) IRArray {
	arr := make(IRArray, len(actions))
	for i, a := range actions {
		arr[i] = a.irObject()
	}
	return arr
}

// Op names an operation accepted at the invocation boundary.
type Op string

const (
	OpMint             Op = "mint"
	OpStake            Op = "stake"
	OpUnstake          Op = "unstake"
	OpCreateProposal   Op = "create_proposal"
	OpCastVote         Op = "cast_vote"
	OpTakeSnapshot     Op = "take_snapshot"
	OpTally            Op = "tally"
	OpExecute          Op = "execute"
	OpExpire           Op = "expire"
	OpInstantiate      Op = "instantiate_schedule"
	OpUpdateSchedules  Op = "update_schedules"
	OpClaimRewards     Op = "claim_rewards"
	OpAllocateRewards  Op = "allocate_rewards"
	OpDeallocateReward Op = "deallocate_rewards"
)

// Ops lists every mutating operation in a stable order.
var Ops = []Op{
	OpMint, OpStake, OpUnstake,
	OpCreateProposal, OpCastVote, OpTakeSnapshot, OpTally, OpExecute, OpExpire,
	OpInstantiate, OpUpdateSchedules, OpClaimRewards, OpAllocateRewards, OpDeallocateReward,
}

// Invocation is one call into the core.
type Invocation struct {
	// ID is assigned by the engine when the invocation commits.
	ID     string   `json:"id,omitempty"`
	Op     Op       `json:"op"`
	Sender Address  `json:"sender"`
	Now    uint64   `json:"now"`
	Args   IRObject `json:"args"`
}

// Env returns the caller context of the invocation.
func (inv Invocation) Env() Env {
	return Env{Sender: inv.Sender, Now: inv.Now}
}

// Has reports whether key is present and not null.
func (obj IRObject) Has(key string) bool {
	v, ok := obj[key]
	if !ok {
		return false
	}
	_, isNull := v.(IRNull)
	return !isNull
}

// Uint reads a non-negative integer argument. Both integers and decimal
// strings are accepted so amounts above MaxInt64 survive JSON and YAML.
func (obj IRObject) Uint(key string) (uint64, error) {
	v, ok := obj[key]
	if !ok {
		return 0, Errorf(CodeInvalidArgument, "missing argument %q", key)
	}
	switch val := v.(type) {
	case IRInt:
		if val < 0 {
			return 0, Errorf(CodeInvalidArgument, "argument %q must be non-negative", key)
		}
		return uint64(val), nil
	case IRString:
		n, err := strconv.ParseUint(string(val), 10, 64)
		if err != nil {
			return 0, Errorf(CodeInvalidArgument, "argument %q: %v", key, err)
		}
		return n, nil
	default:
		return 0, Errorf(CodeInvalidArgument, "argument %q must be an integer, got %T", key, v)
	}
}

// OptUint reads an optional integer argument.
func (obj IRObject) OptUint(key string) (*uint64, error) {
	if !obj.Has(key) {
		return nil, nil
	}
	n, err := obj.Uint(key)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// Int reads an integer argument that must fit an int.
func (obj IRObject) Int(key string) (int, error) {
	n, err := obj.Uint(key)
	if err != nil {
		return 0, err
	}
	if n > math.MaxInt32 {
		return 0, Errorf(CodeInvalidArgument, "argument %q too large", key)
	}
	return int(n), nil
}

// Str reads a string argument.
func (obj IRObject) Str(key string) (string, error) {
	v, ok := obj[key].(IRString)
	if !ok {
		return "", Errorf(CodeInvalidArgument, "argument %q must be a string", key)
	}
	return string(v), nil
}

// OptStr reads an optional string argument, returning "" when absent.
func (obj IRObject) OptStr(key string) (string, error) {
	if !obj.Has(key) {
		return "", nil
	}
	return obj.Str(key)
}

// Args is a typed builder for invocation arguments.
func Args(kv ...any) IRObject {
	if len(kv)%2 != 0 {
		panic(fmt.Sprintf("Args: odd number of values (%d)", len(kv)))
	}
	obj := make(IRObject, len(kv)/2)
	for i := 0; i < len(kv); i += 2 {
		key := kv[i].(string)
		v, err := ToIRValue(kv[i+1])
		if err != nil {
			panic(fmt.Sprintf("Args: key %q: %v", key, err))
		}
		obj[key] = v
	}
	return obj
}
