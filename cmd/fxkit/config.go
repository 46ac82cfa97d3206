// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fxkit/fxkit/internal/config"
)

// newConfigCommand creates the `fxkit config` command tree.
func newConfigCommand(app *App) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and create the project configuration",
		Long: `Inspect and create the project configuration.

fxkit reads fxkit.cue, or fxkit.toml when no CUE file exists, from the
current directory. FXKIT_* environment variables override single keys,
for example FXKIT_BUILD_OUT_DIR=out.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return showConfig(cmd.Context(), app)
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create fxkit.cue with the default configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return initConfig(app)
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show the configuration file in use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := app.loadConfig(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(app.stdout, sourceLabel(cfg))
			return nil
		},
	})

	return cfgCmd
}

// showConfig prints the effective configuration in the fxkit.cue format, so
// the output can be saved as a starting point.
func showConfig(ctx context.Context, app *App) error {
	cfg, err := app.loadConfig(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintln(app.stdout, TitleStyle.Render("Current Configuration"))
	fmt.Fprintf(app.stdout, "%s: %s\n\n", KeyStyle.Render("Config file"), sourceLabel(cfg))
	fmt.Fprint(app.stdout, config.GenerateCUE(cfg))
	return nil
}

func initConfig(app *App) error {
	path, err := config.Init(".")
	if errors.Is(err, config.ErrConfigExists) {
		fmt.Fprintf(app.stdout, "%s %s\n", WarningStyle.Render("! config already exists:"), path)
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(app.stdout, "%s %s\n", SuccessStyle.Render("✓ created"), KeyStyle.Render(path))
	return nil
}

func sourceLabel(cfg *config.Config) string {
	if cfg.Source == "" {
		return SubtitleStyle.Render("(using defaults)")
	}
	return cfg.Source
}
