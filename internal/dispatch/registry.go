package dispatch

import (
	"sort"

	"github.com/roach88/stakegov/internal/ir"
)

// Validator checks the payload of one action kind.
type Validator func(msg ir.IRObject) error

// Action kinds understood by the default registry.
const (
	KindTransfer       = "transfer"
	KindUpdateMetadata = "update_metadata"
	KindCustom         = "custom"
)

// Registry is the closed set of action kinds a proposal may carry.
type Registry struct {
	validators map[string]Validator
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{validators: make(map[string]Validator)}
}

// DefaultRegistry returns a registry with the built-in kinds.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(KindTransfer, validateTransfer)
	r.Register(KindUpdateMetadata, validateUpdateMetadata)
	r.Register(KindCustom, validateCustom)
	return r
}

// Register adds or replaces the validator for kind.
func (r *Registry) Register(kind string, v Validator) {
	r.validators[kind] = v
}

// Kinds returns the registered kinds in sorted order.
func (r *Registry) Kinds() []string {
	kinds := make([]string, 0, len(r.validators))
	for k := range r.validators {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// Validate checks every action. The first failure is returned as
// INVALID_ACTION with the offending index.
func (r *Registry) Validate(actions []ir.Action) error {
	for i, a := range actions {
		v, ok := r.validators[a.Kind]
		if !ok {
			return ir.Errorf(ir.CodeInvalidAction, "actions[%d]: unknown kind %q", i, a.Kind)
		}
		if err := v(a.Msg); err != nil {
			return ir.Errorf(ir.CodeInvalidAction, "actions[%d] (%s): %v", i, a.Kind, err).
				WithDetail("index", itoa(i))
		}
	}
	return nil
}

func validateTransfer(msg ir.IRObject) error {
	if _, err := msg.Str("to"); err != nil {
		return err
	}
	if _, err := msg.Str("denom"); err != nil {
		return err
	}
	amount, err := msg.Uint("amount")
	if err != nil {
		return err
	}
	if amount == 0 {
		return ir.Errorf(ir.CodeZeroAmount, "transfer amount must be positive")
	}
	return nil
}

func validateUpdateMetadata(msg ir.IRObject) error {
	key, err := msg.Str("key")
	if err != nil {
		return err
	}
	if key == "" {
		return ir.Errorf(ir.CodeInvalidArgument, "key must not be empty")
	}
	_, err = msg.Str("value")
	return err
}

func validateCustom(msg ir.IRObject) error {
	typ, err := msg.Str("type")
	if err != nil {
		return err
	}
	if typ == "" {
		return ir.Errorf(ir.CodeInvalidArgument, "type must not be empty")
	}
	return nil
}
