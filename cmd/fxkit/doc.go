// SPDX-License-Identifier: MPL-2.0

// Package cmd contains the fxkit command tree.
//
// The commands are thin: each loads the project configuration through the
// App, converts the relevant section and hands it to the internal package
// doing the work (fxdoc, builder, manifest, config).
package cmd
