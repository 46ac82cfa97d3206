// SPDX-License-Identifier: MPL-2.0

// Package tsprogram builds a lightweight, type-aware view over a set of
// TypeScript source files.
//
// Files are parsed with the tree-sitter TypeScript grammar. A Program knows
// its files in program order (imported files before their importers), can
// resolve an identifier to the declaration it refers to, follow import and
// re-export aliases across files, and render the parameter and return type
// text of function-like declarations.
//
// It is not a type checker. Declared annotations are reported verbatim
// (whitespace-normalized); unannotated return types get a small literal
// inference and otherwise fall back to "any".
package tsprogram
