// SPDX-License-Identifier: MPL-2.0

package cueutil

// DefaultMaxFileSize bounds the size of a configuration file (1 MiB).
const DefaultMaxFileSize int64 = 1 << 20

type (
	options struct {
		maxFileSize int64
		concrete    bool
		filename    string
	}

	// Option configures validation.
	Option func(*options)
)

func newOptions(opts []Option) options {
	o := options{maxFileSize: DefaultMaxFileSize, filename: "<input>"}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithMaxFileSize overrides DefaultMaxFileSize.
func WithMaxFileSize(size int64) Option {
	return func(o *options) { o.maxFileSize = size }
}

// WithConcrete requires every field of the result to have a concrete value.
// Configuration files leave most fields unset, so this is off by default.
func WithConcrete(concrete bool) Option {
	return func(o *options) { o.concrete = concrete }
}

// WithFilename names the input in error messages.
func WithFilename(name string) Option {
	return func(o *options) { o.filename = name }
}
