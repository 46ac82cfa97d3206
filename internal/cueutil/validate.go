// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// Validate compiles data as CUE, unifies it with the definition of schema
// (for example "#Config") and returns the result decoded into a map.
func Validate(schema, definition string, data []byte, opts ...Option) (map[string]any, error) {
	o := newOptions(opts)
	if err := CheckFileSize(data, o.maxFileSize, o.filename); err != nil {
		return nil, err
	}

	ctx := cuecontext.New()
	user := ctx.CompileBytes(data, cue.Filename(o.filename))
	if user.Err() != nil {
		return nil, FormatError(user.Err(), o.filename)
	}
	return unify(ctx, schema, definition, user, o)
}

// ValidateValues checks values decoded from another format, such as TOML,
// against the same schema.
func ValidateValues(schema, definition string, values map[string]any, opts ...Option) (map[string]any, error) {
	o := newOptions(opts)

	ctx := cuecontext.New()
	user := ctx.Encode(values)
	if user.Err() != nil {
		return nil, FormatError(user.Err(), o.filename)
	}
	return unify(ctx, schema, definition, user, o)
}

func unify(ctx *cue.Context, schema, definition string, user cue.Value, o options) (map[string]any, error) {
	schemaValue := ctx.CompileString(schema)
	if schemaValue.Err() != nil {
		return nil, fmt.Errorf("internal error: compile schema: %w", schemaValue.Err())
	}
	root := schemaValue.LookupPath(cue.ParsePath(definition))
	if root.Err() != nil {
		return nil, fmt.Errorf("internal error: schema has no %s: %w", definition, root.Err())
	}

	unified := root.Unify(user)
	if err := unified.Validate(cue.Concrete(o.concrete)); err != nil {
		return nil, FormatError(err, o.filename)
	}

	var out map[string]any
	if err := unified.Decode(&out); err != nil {
		return nil, FormatError(err, o.filename)
	}
	return out, nil
}
