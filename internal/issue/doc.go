// SPDX-License-Identifier: MPL-2.0

// Package issue holds fxkit's user-facing errors: ActionableError, which
// carries an operation, a resource and suggestions, and a catalog of
// Markdown issue pages rendered with glamour.
package issue
