// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fxkit/fxkit/internal/builder"
	"github.com/fxkit/fxkit/internal/config"
)

type buildFlagValues struct {
	watch bool
}

func newBuildCommand(app *App) *cobra.Command {
	flags := &buildFlagValues{}
	buildCmd := &cobra.Command{
		Use:   "build",
		Short: "Type-check and bundle every build environment",
		Long: `Bundle each configured environment from <name>/index.ts into
<out_dir>/<name>.js with esbuild.

Bundles are built after the type-check command reports a clean compile
("Found 0 errors."). With an empty type_check the bundles are built
directly. After each successful build the stamp file is updated and, unless
build.manifest is false, fxmanifest.lua is regenerated.`,
		Example: `  fxkit build
  fxkit build --watch`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBuild(cmd.Context(), app, flags)
		},
	}

	buildCmd.Flags().BoolVarP(&flags.watch, "watch", "w", false, "keep type checking and rebuilding on changes")
	return buildCmd
}

func runBuild(ctx context.Context, app *App, flags *buildFlagValues) error {
	cfg, err := app.loadConfig(ctx)
	if err != nil {
		return err
	}

	b, err := builder.New(builderConfig(app, cfg, flags.watch))
	if err != nil {
		return err
	}
	if flags.watch {
		fmt.Fprintf(app.stdout, "%s Watching for changes (Ctrl+C to stop)\n", arrow)
	}
	if err := b.Run(ctx); err != nil {
		return buildError(err)
	}
	return nil
}

// builderConfig converts the build section. The manifest hook is attached
// when build.manifest is set.
func builderConfig(app *App, cfg *config.Config, watchMode bool) builder.Config {
	bc := builder.Config{
		Dir:          ".",
		Watch:        watchMode,
		Base:         cfg.BuilderBase(),
		Environments: cfg.BuilderEnvironments(),
		TypeCheck:    cfg.Build.TypeCheck,
		StampFile:    cfg.Build.StampFile,
		OutDir:       cfg.Build.OutDir,
		EnvFiles:     cfg.Build.EnvFiles,
		Stdin:        app.stdin,
		Stdout:       app.stdout,
		Stderr:       app.stderr,
		Logger:       app.logger("build"),
	}
	if cfg.Build.Manifest {
		logger := app.logger("manifest")
		bc.OnBuild = func(_ context.Context, outfiles map[string]string) error {
			path, err := writeManifest(cfg, outfiles)
			if err != nil {
				return err
			}
			logger.Info("manifest written", "path", path)
			return nil
		}
	}
	return bc
}
