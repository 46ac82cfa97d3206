// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/fxkit/fxkit/internal/fsutil"
	"github.com/fxkit/fxkit/internal/fxdoc"
	"github.com/fxkit/fxkit/internal/issue"
	"github.com/fxkit/fxkit/internal/tsprogram"
	"github.com/fxkit/fxkit/internal/watch"
)

const previewWordWrap = 100

type docFlagValues struct {
	watch   bool
	preview string
}

func newDocCommand(app *App) *cobra.Command {
	flags := &docFlagValues{}
	docCmd := &cobra.Command{
		Use:   "doc [key=value...]",
		Short: "Generate documentation for the resource's exports",
		Long: `Generate documentation for every export registered with exports(...).

Writes one Markdown page per export plus exports.d.ts and exports.d.lua into
the output directory. Arguments override the doc section of the config:

  dir=<path>        directory scanned for sources (default ./src)
  out=<path>        output directory (default ./fxdoc)
  tsconfig=<path>   compiler options (default ./tsconfig.json)

Unknown keys and empty values are ignored.`,
		Example: `  fxkit doc
  fxkit doc dir=./client out=./docs
  fxkit doc --watch --preview getPlayerData`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDoc(cmd.Context(), app, flags, args)
		},
	}

	docCmd.Flags().BoolVarP(&flags.watch, "watch", "w", false, "regenerate when a source file changes")
	docCmd.Flags().StringVar(&flags.preview, "preview", "", "render the page of the named export after generating")
	return docCmd
}

func runDoc(ctx context.Context, app *App, flags *docFlagValues, args []string) error {
	cfg, err := app.loadConfig(ctx)
	if err != nil {
		return err
	}
	opts := cfg.DocOptions().WithArgs(args)
	logger := app.logger("fxdoc")

	if !flags.watch {
		if err := fxdoc.NewPipeline(opts, fxdoc.WithLogger(logger)).Run(ctx); err != nil {
			return docError(err, opts)
		}
		return previewDoc(app, opts, flags.preview)
	}

	// Parsed files are kept between runs; only changed files are parsed again.
	cache, err := tsprogram.NewCache(0)
	if err != nil {
		return err
	}
	regenerate := func(ctx context.Context) error {
		if err := fxdoc.NewPipeline(opts, fxdoc.WithLogger(logger), fxdoc.WithParseCache(cache)).Run(ctx); err != nil {
			return docError(err, opts)
		}
		return previewDoc(app, opts, flags.preview)
	}
	if err := regenerate(ctx); err != nil {
		return err
	}

	w, err := watch.New(watch.Config{
		BaseDir:  opts.Dir,
		Patterns: sourcePatterns(opts),
		Ignore:   outputIgnore(opts, logger),
		Logger:   logger,
		OnChange: func(ctx context.Context, changed []string) error {
			fmt.Fprintf(app.stdout, "%s %d file(s) changed, regenerating\n", arrow, len(changed))
			return regenerate(ctx)
		},
	})
	if err != nil {
		return issue.WrapWithContext(err, "start watcher", opts.Dir)
	}
	fmt.Fprintf(app.stdout, "%s Watching %s for changes (Ctrl+C to stop)\n", arrow, opts.Dir)
	return w.Run(ctx)
}

// sourcePatterns matches every file the program view would parse, following
// allowJs in the project's compiler options.
func sourcePatterns(opts fxdoc.Options) []string {
	var compilerOptions tsprogram.Options
	if tsconfig, err := fsutil.LoadJSONMap(opts.TSConfig, fsutil.Lenient()); err == nil {
		compilerOptions = tsprogram.OptionsFromTSConfig(tsconfig, opts.TSConfig)
	}
	exts := compilerOptions.SourceExtensions()
	patterns := make([]string, len(exts))
	for i, ext := range exts {
		patterns[i] = "**/*" + ext
	}
	return patterns
}

// outputIgnore keeps the watcher from reacting to its own output when the
// output directory lies inside the scan root.
func outputIgnore(opts fxdoc.Options, logger *log.Logger) []string {
	dir, err := filepath.Abs(opts.Dir)
	if err != nil {
		return nil
	}
	out, err := filepath.Abs(opts.Out)
	if err != nil {
		return nil
	}
	rel, err := filepath.Rel(dir, out)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return nil
	}
	if rel == "." {
		logger.Warn("output directory is the scan root; generated declarations will trigger rebuilds", "out", opts.Out)
		return nil
	}
	return []string{filepath.ToSlash(rel) + "/**"}
}

// previewDoc renders the generated page of export name to stdout. An empty
// name does nothing.
func previewDoc(app *App, opts fxdoc.Options, name string) error {
	if name == "" {
		return nil
	}
	path := filepath.Join(opts.Out, name+".md")
	page, err := os.ReadFile(path)
	if err != nil {
		return issue.WrapWithContext(err, "preview "+name, path)
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithStylePath(app.glamourStyle()),
		glamour.WithWordWrap(previewWordWrap),
	)
	if err != nil {
		return issue.WrapWithOperation(err, "create markdown renderer")
	}
	out, err := r.Render(string(page))
	if err != nil {
		return issue.WrapWithContext(err, "render preview", path)
	}
	fmt.Fprint(app.stdout, out)
	return nil
}
