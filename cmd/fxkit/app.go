// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"io"
	"os"

	"github.com/charmbracelet/log"

	"github.com/fxkit/fxkit/internal/config"
)

type (
	// App is the composition root of the CLI. Command handlers receive it
	// and reach configuration and output through it.
	App struct {
		Config ConfigProvider
		stdout io.Writer
		stderr io.Writer
		stdin  io.Reader

		// Set by the root command before any subcommand runs.
		flags rootFlagValues
		// ui is the effective UI configuration of the current invocation.
		ui config.UIConfig
	}

	// Dependencies are the injection points of NewApp. Nil fields get
	// production defaults.
	Dependencies struct {
		Config ConfigProvider
		Stdout io.Writer
		Stderr io.Writer
		Stdin  io.Reader
	}

	// ConfigProvider loads configuration using explicit options.
	ConfigProvider interface {
		Load(ctx context.Context, opts config.LoadOptions) (*config.Config, error)
	}

	rootFlagValues struct {
		configPath string
		verbose    bool
	}
)

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) *App {
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Stdin == nil {
		deps.Stdin = os.Stdin
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	return &App{
		Config: deps.Config,
		stdout: deps.Stdout,
		stderr: deps.Stderr,
		stdin:  deps.Stdin,
		ui:     config.DefaultConfig().UI,
	}
}

// loadConfig reads the project configuration from the working directory or
// --config and records its UI settings. --verbose wins over ui.verbose.
func (a *App) loadConfig(ctx context.Context) (*config.Config, error) {
	cfg, err := a.Config.Load(ctx, config.LoadOptions{ConfigFilePath: a.flags.configPath})
	if err != nil {
		return nil, err
	}
	a.ui = cfg.UI
	if a.flags.verbose {
		a.ui.Verbose = true
	}
	return cfg, nil
}

// logger returns a logger writing to stderr with the configured level.
// Verbose output lowers the level to debug.
func (a *App) logger(prefix string) *log.Logger {
	level, err := log.ParseLevel(string(a.ui.LogLevel))
	if err != nil {
		level = log.InfoLevel
	}
	if a.ui.Verbose || a.flags.verbose {
		level = log.DebugLevel
	}
	return log.NewWithOptions(a.stderr, log.Options{Prefix: prefix, Level: level})
}

func (a *App) verbose() bool {
	return a.flags.verbose || a.ui.Verbose
}

// glamourStyle maps the color scheme to a glamour standard style name.
func (a *App) glamourStyle() string {
	switch a.ui.ColorScheme {
	case config.ColorSchemeDark, config.ColorSchemeLight:
		return string(a.ui.ColorScheme)
	default:
		return "auto"
	}
}
