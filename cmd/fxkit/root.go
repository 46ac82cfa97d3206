// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// newRootCommand builds the fxkit command tree around app.
func newRootCommand(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "fxkit",
		Short: "Documentation, bundling and manifests for FiveM resources",
		Long: TitleStyle.Render("fxkit") + SubtitleStyle.Render(" - tooling for TypeScript FiveM resources") + `

fxkit documents the exports of a resource, bundles its client and server
environments with esbuild and writes its fxmanifest.lua.

Settings are read from fxkit.cue or fxkit.toml in the current directory.

` + SubtitleStyle.Render("Examples:") + `
  fxkit doc                 Generate export documentation into ./fxdoc
  fxkit doc dir=./client    Scan another source directory
  fxkit build --watch       Type-check and rebuild on every change
  fxkit manifest            Write fxmanifest.lua from package.json
  fxkit config show         Show the effective configuration`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().BoolVarP(&app.flags.verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&app.flags.configPath, "config", "", "config file (default is ./fxkit.cue, then ./fxkit.toml)")

	rootCmd.AddCommand(
		newDocCommand(app),
		newBuildCommand(app),
		newManifestCommand(app),
		newConfigCommand(app),
	)
	return rootCmd
}

func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the CLI and exits the process with the command's exit code.
func Execute() {
	app := NewApp(Dependencies{})
	if err := fang.Execute(
		context.Background(),
		newRootCommand(app),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
		fang.WithErrorHandler(func(w io.Writer, _ fang.Styles, err error) {
			renderError(w, app, err)
		}),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}
