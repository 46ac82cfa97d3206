// SPDX-License-Identifier: MPL-2.0

// Package cueutil validates configuration data against an embedded CUE
// schema and reports failures with the path of the offending field.
package cueutil
