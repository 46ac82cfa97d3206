// SPDX-License-Identifier: MPL-2.0

// Package fsutil provides the filesystem helpers shared by the fxkit tools:
// a concurrent recursive file lister and a JSON file loader.
//
// ListFiles treats an unreadable or missing scan root as empty. This is a
// deliberate policy: scan roots are frequently optional (a resource may have
// no server/ directory), and callers rely on "nothing there" being a normal
// outcome rather than an error.
package fsutil
