// Package config loads the governance parameters written at genesis and
// the runtime settings of the stakegov binary.
//
// Governance parameters come from a CUE (or JSON) file unified with an
// embedded schema, so missing fields take their defaults and unknown
// fields are rejected. Bounds are checked afterwards by ir.Config.Validate.
//
// Runtime settings come from the environment with the STAKEGOV_ prefix;
// command-line flags override them.
package config

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"

	"github.com/roach88/stakegov/internal/ir"
)

//go:embed schema.cue
var schemaSource []byte

// Error is a structural problem in a config file, with the CUE position
// when one is known.
type Error struct {
	Path    string
	Line    int
	Column  int
	Message string
}

func (e *Error) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s", e.Path, e.Line, e.Column, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// LoadFile reads and decodes a governance config file.
func LoadFile(path string) (ir.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ir.Config{}, fmt.Errorf("read config: %w", err)
	}
	return Parse(path, data)
}

// Parse unifies src with the schema and decodes the result. The returned
// config has passed Validate.
func Parse(filename string, src []byte) (ir.Config, error) {
	ctx := cuecontext.New()
	schema := ctx.CompileBytes(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return ir.Config{}, fmt.Errorf("compile config schema: %w", err)
	}

	file := ctx.CompileBytes(src, cue.Filename(filename))
	if err := file.Err(); err != nil {
		return ir.Config{}, cueError(filename, err)
	}

	v := schema.LookupPath(cue.ParsePath("#Config")).Unify(file)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return ir.Config{}, cueError(filename, err)
	}

	data, err := v.MarshalJSON()
	if err != nil {
		return ir.Config{}, cueError(filename, err)
	}
	var cfg ir.Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return ir.Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return ir.Config{}, err
	}
	return cfg, nil
}

// Default returns the configuration used when no file is given: the
// schema defaults with admin as the administrator.
func Default(admin ir.Address) (ir.Config, error) {
	return Parse("default", fmt.Appendf(nil, "admin: %q\n", admin))
}

// cueError reports the first CUE error with its position.
func cueError(filename string, err error) error {
	list := errors.Errors(err)
	if len(list) == 0 {
		return &Error{Path: filename, Message: err.Error()}
	}
	first := list[0]
	out := &Error{Path: filename, Message: first.Error()}
	if pos := first.Position(); pos.IsValid() {
		out.Line = pos.Line()
		out.Column = pos.Column()
	}
	return out
}
