// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"

	"github.com/fxkit/fxkit/internal/builder"
	"github.com/fxkit/fxkit/internal/fxdoc"
	"github.com/fxkit/fxkit/internal/manifest"
	"github.com/fxkit/fxkit/internal/pkgjson"
	"github.com/fxkit/fxkit/internal/tsprogram"
)

const (
	// ColorSchemeAuto detects the terminal background.
	ColorSchemeAuto ColorScheme = "auto"
	// ColorSchemeDark forces the dark palette.
	ColorSchemeDark ColorScheme = "dark"
	// ColorSchemeLight forces the light palette.
	ColorSchemeLight ColorScheme = "light"

	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

var (
	// ErrInvalidColorScheme is wrapped by InvalidColorSchemeError.
	ErrInvalidColorScheme = errors.New("invalid color scheme")
	// ErrInvalidLogLevel is wrapped by InvalidLogLevelError.
	ErrInvalidLogLevel = errors.New("invalid log level")
	// ErrDuplicateEnvironment is wrapped by DuplicateEnvironmentError.
	ErrDuplicateEnvironment = errors.New("duplicate build environment")
	// ErrInvalidConfig is wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// ColorScheme selects the terminal palette.
	ColorScheme string

	// LogLevel is the minimum level of log messages that are printed.
	LogLevel string

	// InvalidColorSchemeError reports an unknown ColorScheme.
	InvalidColorSchemeError struct {
		Value ColorScheme
	}

	// InvalidLogLevelError reports an unknown LogLevel.
	InvalidLogLevelError struct {
		Value LogLevel
	}

	// DuplicateEnvironmentError reports two build environments with the
	// same name. Both would write the same bundle.
	DuplicateEnvironmentError struct {
		Name string
	}

	// InvalidConfigError collects the field errors of a Config.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config is the project configuration, read from fxkit.cue or
	// fxkit.toml in the project root.
	Config struct {
		Doc      DocConfig      `json:"doc" mapstructure:"doc"`
		Build    BuildConfig    `json:"build" mapstructure:"build"`
		Manifest ManifestConfig `json:"manifest" mapstructure:"manifest"`
		UI       UIConfig       `json:"ui" mapstructure:"ui"`

		// Source is the file the configuration came from. Empty when only
		// defaults and environment variables apply.
		Source string `json:"-" mapstructure:"-"`
	}

	// DocConfig locates the inputs and output of fxkit doc.
	DocConfig struct {
		Dir      string `json:"dir" mapstructure:"dir"`
		Out      string `json:"out" mapstructure:"out"`
		TSConfig string `json:"tsconfig" mapstructure:"tsconfig"`
		Package  string `json:"package" mapstructure:"package"`
	}

	// BuildConfig configures fxkit build.
	BuildConfig struct {
		OutDir    string `json:"out_dir" mapstructure:"out_dir"`
		StampFile string `json:"stamp_file" mapstructure:"stamp_file"`
		// TypeCheck is the shell command gating each build. An empty string
		// disables type checking.
		TypeCheck string   `json:"type_check" mapstructure:"type_check"`
		EnvFiles  []string `json:"env_files" mapstructure:"env_files"`
		// Manifest regenerates fxmanifest.lua after every build.
		Manifest     bool                `json:"manifest" mapstructure:"manifest"`
		Base         BundleConfig        `json:"base" mapstructure:"base"`
		Environments []EnvironmentConfig `json:"environments" mapstructure:"environments"`
	}

	// BundleConfig holds the esbuild settings shared by the base and each
	// environment.
	BundleConfig struct {
		Platform  string            `json:"platform,omitempty" mapstructure:"platform"`
		Format    string            `json:"format,omitempty" mapstructure:"format"`
		Target    string            `json:"target,omitempty" mapstructure:"target"`
		Minify    bool              `json:"minify,omitempty" mapstructure:"minify"`
		Sourcemap bool              `json:"sourcemap,omitempty" mapstructure:"sourcemap"`
		External  []string          `json:"external,omitempty" mapstructure:"external"`
		Define    map[string]string `json:"define,omitempty" mapstructure:"define"`
	}

	// EnvironmentConfig is one bundle, built from <name>/index.ts.
	EnvironmentConfig struct {
		Name    string       `json:"name" mapstructure:"name"`
		Options BundleConfig `json:"options" mapstructure:"options"`
	}

	// ManifestConfig adds entries to the generated fxmanifest.lua.
	ManifestConfig struct {
		Path          string            `json:"path" mapstructure:"path"`
		Files         []string          `json:"files" mapstructure:"files"`
		Dependencies  []string          `json:"dependencies" mapstructure:"dependencies"`
		ClientScripts []string          `json:"client_scripts" mapstructure:"client_scripts"`
		ServerScripts []string          `json:"server_scripts" mapstructure:"server_scripts"`
		Metadata      map[string]string `json:"metadata" mapstructure:"metadata"`
	}

	// UIConfig configures terminal output.
	UIConfig struct {
		ColorScheme ColorScheme `json:"color_scheme" mapstructure:"color_scheme"`
		LogLevel    LogLevel    `json:"log_level" mapstructure:"log_level"`
		Verbose     bool        `json:"verbose" mapstructure:"verbose"`
	}
)

// String returns the scheme name.
func (cs ColorScheme) String() string { return string(cs) }

// IsValid reports whether cs is a known scheme.
func (cs ColorScheme) IsValid() (bool, []error) {
	switch cs {
	case ColorSchemeAuto, ColorSchemeDark, ColorSchemeLight:
		return true, nil
	default:
		return false, []error{&InvalidColorSchemeError{Value: cs}}
	}
}

// Error implements the error interface.
func (e *InvalidColorSchemeError) Error() string {
	return fmt.Sprintf("invalid color scheme %q (valid: auto, dark, light)", e.Value)
}

// Unwrap returns ErrInvalidColorScheme.
func (e *InvalidColorSchemeError) Unwrap() error { return ErrInvalidColorScheme }

// String returns the level name.
func (l LogLevel) String() string { return string(l) }

// IsValid reports whether l is a known level.
func (l LogLevel) IsValid() (bool, []error) {
	switch l {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
		return true, nil
	default:
		return false, []error{&InvalidLogLevelError{Value: l}}
	}
}

// Error implements the error interface.
func (e *InvalidLogLevelError) Error() string {
	return fmt.Sprintf("invalid log level %q (valid: debug, info, warn, error)", e.Value)
}

// Unwrap returns ErrInvalidLogLevel.
func (e *InvalidLogLevelError) Unwrap() error { return ErrInvalidLogLevel }

// Error implements the error interface.
func (e *DuplicateEnvironmentError) Error() string {
	return fmt.Sprintf("build.environments: %q is defined more than once", e.Name)
}

// Unwrap returns ErrDuplicateEnvironment.
func (e *DuplicateEnvironmentError) Unwrap() error { return ErrDuplicateEnvironment }

// IsValid checks what the schema cannot: enum-typed UI fields and unique
// environment names.
func (c Config) IsValid() (bool, []error) {
	var errs []error
	if ok, fieldErrs := c.UI.ColorScheme.IsValid(); !ok {
		errs = append(errs, fieldErrs...)
	}
	if ok, fieldErrs := c.UI.LogLevel.IsValid(); !ok {
		errs = append(errs, fieldErrs...)
	}

	seen := make(map[string]bool, len(c.Build.Environments))
	for _, env := range c.Build.Environments {
		if seen[env.Name] {
			errs = append(errs, &DuplicateEnvironmentError{Name: env.Name})
		}
		seen[env.Name] = true
	}

	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface.
func (e *InvalidConfigError) Error() string {
	if len(e.FieldErrors) == 1 {
		return "invalid config: " + e.FieldErrors[0].Error()
	}
	return fmt.Sprintf("invalid config: %d field error(s): %v", len(e.FieldErrors), errors.Join(e.FieldErrors...))
}

// Unwrap returns ErrInvalidConfig together with the field errors.
func (e *InvalidConfigError) Unwrap() []error {
	return append([]error{ErrInvalidConfig}, e.FieldErrors...)
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		Doc: DocConfig{
			Dir:      fxdoc.DefaultDir,
			Out:      fxdoc.DefaultOut,
			TSConfig: tsprogram.DefaultTSConfigPath,
			Package:  pkgjson.DefaultPath,
		},
		Build: BuildConfig{
			OutDir:    builder.DefaultOutDir,
			StampFile: builder.DefaultStampFile,
			TypeCheck: builder.DefaultTypeCheck,
			EnvFiles:  []string{},
			Manifest:  true,
			Environments: []EnvironmentConfig{
				{Name: "client", Options: BundleConfig{Platform: "browser", Target: "es2021"}},
				{Name: "server", Options: BundleConfig{Platform: "node", Target: "node16"}},
			},
		},
		Manifest: ManifestConfig{
			Path:         manifest.DefaultPath,
			Files:        []string{},
			Dependencies: []string{},
			Metadata:     map[string]string{},
		},
		UI: UIConfig{
			ColorScheme: ColorSchemeAuto,
			LogLevel:    LogLevelInfo,
		},
	}
}

// DocOptions converts the doc section into pipeline options.
func (c *Config) DocOptions() fxdoc.Options {
	return fxdoc.Options{
		Dir:      c.Doc.Dir,
		Out:      c.Doc.Out,
		TSConfig: c.Doc.TSConfig,
		Package:  c.Doc.Package,
	}
}

// BuilderEnvironments converts the configured environments.
func (c *Config) BuilderEnvironments() []builder.Environment {
	envs := make([]builder.Environment, len(c.Build.Environments))
	for i, env := range c.Build.Environments {
		envs[i] = builder.Environment{Name: env.Name, Options: env.Options.builderOptions()}
	}
	return envs
}

// BuilderBase converts the base bundle options.
func (c *Config) BuilderBase() builder.Options {
	return c.Build.Base.builderOptions()
}

func (b BundleConfig) builderOptions() builder.Options {
	return builder.Options{
		Platform:  b.Platform,
		Format:    b.Format,
		Target:    b.Target,
		Minify:    b.Minify,
		Sourcemap: b.Sourcemap,
		External:  b.External,
		Define:    b.Define,
	}
}
