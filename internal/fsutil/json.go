// SPDX-License-Identifier: MPL-2.0

package fsutil

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/tailscale/hujson"
)

type (
	// ReadError reports a JSON file that could not be read.
	ReadError struct {
		Path string
		Err  error
	}

	// ParseError reports a JSON file whose content is not valid JSON.
	ParseError struct {
		Path string
		Err  error
	}

	// LoadOption tweaks how LoadJSON decodes a file.
	LoadOption func(*loadOptions)

	loadOptions struct {
		lenient bool
	}
)

// Error implements the error interface.
func (e *ReadError) Error() string {
	return fmt.Sprintf("read %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying I/O error.
func (e *ReadError) Unwrap() error { return e.Err }

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying decode error.
func (e *ParseError) Unwrap() error { return e.Err }

// Lenient accepts JSON with comments and trailing commas (the dialect tsc
// accepts for tsconfig.json).
func Lenient() LoadOption {
	return func(o *loadOptions) { o.lenient = true }
}

// LoadJSON reads path and decodes it into a T.
func LoadJSON[T any](path string, opts ...LoadOption) (T, error) {
	var zero T

	var o loadOptions
	for _, opt := range opts {
		opt(&o)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return zero, &ReadError{Path: path, Err: err}
	}

	if o.lenient {
		data, err = hujson.Standardize(data)
		if err != nil {
			return zero, &ParseError{Path: path, Err: err}
		}
	}

	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return zero, &ParseError{Path: path, Err: err}
	}
	return v, nil
}

// LoadJSONMap decodes path into a generic object.
func LoadJSONMap(path string, opts ...LoadOption) (map[string]any, error) {
	return LoadJSON[map[string]any](path, opts...)
}
