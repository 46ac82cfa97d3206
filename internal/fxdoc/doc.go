// SPDX-License-Identifier: MPL-2.0

// Package fxdoc generates documentation for the functions a FiveM resource
// registers with `exports("name", fn)`.
//
// A run is a Pipeline: it lists the sources under the scan root, builds a
// tsprogram.Program from them, discovers export call sites in program order
// (Discover), resolves each function reference to a signature (Resolve) and
// finally writes one Markdown page per export plus the shared exports.d.ts
// and exports.d.lua declaration files (Render).
package fxdoc
