// SPDX-License-Identifier: MPL-2.0

// Package config loads the fxkit project configuration using Viper, with CUE
// or TOML as the file format.
//
// The file is fxkit.cue, or fxkit.toml when no CUE file exists, in the
// project root. Both formats are validated against the embedded CUE schema
// (config_schema.cue) before their values are merged over the defaults.
// FXKIT_* environment variables override individual keys, for example
// FXKIT_BUILD_OUT_DIR for build.out_dir.
package config
