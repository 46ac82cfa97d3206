// SPDX-License-Identifier: MPL-2.0

// Package builder bundles a resource's environments with esbuild and keeps
// them in step with the TypeScript compiler.
//
// Each environment (typically "client" and "server") is a directory holding
// an index.ts entry point. A build cycle rebuilds every environment, stamps
// the install marker file and hands the output paths to an OnBuild hook.
// Cycles are triggered by the type-check command reporting a clean compile,
// or by file changes when no type-check command is configured.
package builder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/evanw/esbuild/pkg/api"
)

const (
	// DefaultTypeCheck compiles the project references and rewrites path
	// aliases in the emitted declarations.
	DefaultTypeCheck = "tsc --build && tsc-alias"
	// DefaultStampFile is rewritten with the build time after each cycle.
	DefaultStampFile = ".yarn.installed"
	// DefaultOutDir receives one bundle per environment.
	DefaultOutDir = "dist"
)

type (
	// Environment is one bundle target. Its entry point is <Name>/index.ts
	// and its output <OutDir>/<Name>.js.
	Environment struct {
		Name    string
		Options Options
	}

	// Config controls a Builder.
	Config struct {
		// Dir is the project root. Empty means the working directory.
		Dir   string
		Watch bool
		// Base applies to every environment before the environment's own
		// options.
		Base         Options
		Environments []Environment
		// TypeCheck is a shell command whose clean compile triggers a build
		// cycle. Empty disables type checking.
		TypeCheck string
		StampFile string
		OutDir    string
		// EnvFiles are dotenv files whose variables become process.env
		// defines.
		EnvFiles []string
		// OnBuild runs after every successful cycle with the output file of
		// each environment, keyed by environment name.
		OnBuild func(ctx context.Context, outfiles map[string]string) error

		Stdin  io.Reader
		Stdout io.Writer
		Stderr io.Writer
		Logger *log.Logger
		// Now stamps the marker file. Defaults to time.Now.
		Now func() time.Time
	}

	// Builder runs build cycles over a fixed set of esbuild contexts.
	Builder struct {
		cfg      Config
		dir      string
		logger   *log.Logger
		bundles  []*bundle
		outfiles map[string]string
		// newContext is replaced in tests to avoid running esbuild.
		newContext func(api.BuildOptions) (bundler, error)
		mu         sync.Mutex
	}

	bundle struct {
		name    string
		outfile string
		ctx     bundler
	}

	// bundler is the part of api.BuildContext the builder drives.
	bundler interface {
		Rebuild() api.BuildResult
		Dispose()
	}

	// BuildError reports the esbuild errors of one environment.
	BuildError struct {
		Environment string
		Messages    []string
	}
)

// Error implements the error interface.
func (e *BuildError) Error() string {
	return fmt.Sprintf("build %s failed:\n%s", e.Environment, strings.Join(e.Messages, "\n"))
}

// New validates cfg, fills its defaults and reads the dotenv files.
func New(cfg Config) (*Builder, error) {
	if len(cfg.Environments) == 0 {
		return nil, errors.New("builder: no environments configured")
	}
	seen := make(map[string]bool, len(cfg.Environments))
	for _, env := range cfg.Environments {
		if env.Name == "" {
			return nil, errors.New("builder: environment without a name")
		}
		if seen[env.Name] {
			return nil, fmt.Errorf("builder: duplicate environment %q", env.Name)
		}
		seen[env.Name] = true
	}

	if cfg.StampFile == "" {
		cfg.StampFile = DefaultStampFile
	}
	if cfg.OutDir == "" {
		cfg.OutDir = DefaultOutDir
	}
	if cfg.Stdout == nil {
		cfg.Stdout = os.Stdout
	}
	if cfg.Stderr == nil {
		cfg.Stderr = os.Stderr
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.NewWithOptions(cfg.Stderr, log.Options{Prefix: "build"})
	}

	dir := cfg.Dir
	if dir == "" {
		dir = "."
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("builder: resolve project directory: %w", err)
	}

	defines, err := envDefines(resolvePaths(absDir, cfg.EnvFiles))
	if err != nil {
		return nil, fmt.Errorf("builder: %w", err)
	}
	if len(defines) > 0 {
		cfg.Base = Options{Define: defines}.Merge(cfg.Base)
	}

	outfiles := make(map[string]string, len(cfg.Environments))
	for _, env := range cfg.Environments {
		outfiles[env.Name] = filepath.ToSlash(filepath.Join(cfg.OutDir, env.Name+".js"))
	}

	return &Builder{
		cfg:        cfg,
		dir:        absDir,
		logger:     logger,
		outfiles:   outfiles,
		newContext: esbuildContext,
	}, nil
}

// Outfiles returns the output path of each environment relative to the
// project root.
func (b *Builder) Outfiles() map[string]string {
	return maps.Clone(b.outfiles)
}

// Run creates the esbuild contexts and drives build cycles until the
// type-check command exits, or until ctx is canceled in watch mode. The
// contexts are disposed before Run returns.
func (b *Builder) Run(ctx context.Context) error {
	defer b.dispose()

	if err := b.createContexts(); err != nil {
		return err
	}

	if b.cfg.TypeCheck == "" {
		return b.runUnchecked(ctx)
	}
	return b.runTypeCheck(ctx)
}

// Rebuild runs one build cycle: every environment is rebuilt concurrently,
// then the stamp file is written and OnBuild is called. Any environment
// failing fails the cycle before the stamp is written.
func (b *Builder) Rebuild(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.bundles) == 0 {
		return errors.New("builder: no build contexts; Run has not started")
	}

	// Every environment finishes its build; all failures are reported.
	errs := make([]error, len(b.bundles))
	var wg sync.WaitGroup
	for i, bd := range b.bundles {
		wg.Go(func() {
			result := bd.ctx.Rebuild()
			if len(result.Errors) > 0 {
				errs[i] = &BuildError{Environment: bd.name, Messages: formatMessages(result.Errors)}
			}
		})
	}
	wg.Wait()
	if err := errors.Join(errs...); err != nil {
		return err
	}

	if err := b.writeStamp(); err != nil {
		return err
	}

	if b.cfg.OnBuild != nil {
		if err := b.cfg.OnBuild(ctx, b.Outfiles()); err != nil {
			return fmt.Errorf("on build: %w", err)
		}
	}
	return nil
}

func (b *Builder) createContexts() error {
	for _, env := range b.cfg.Environments {
		outfile := b.outfiles[env.Name]

		opts := api.BuildOptions{
			AbsWorkingDir: b.dir,
			Bundle:        true,
			Write:         true,
			EntryPoints:   []string{filepath.ToSlash(filepath.Join(env.Name, "index.ts"))},
			Outfile:       outfile,
			KeepNames:     true,
			LegalComments: api.LegalCommentsInline,
			LogLevel:      api.LogLevelWarning,
			Plugins:       []api.Plugin{b.reportPlugin()},
		}
		if err := b.cfg.Base.Merge(env.Options).apply(&opts); err != nil {
			return fmt.Errorf("environment %s: %w", env.Name, err)
		}

		bctx, err := b.newContext(opts)
		if err != nil {
			return fmt.Errorf("create build context for %s: %w", env.Name, err)
		}
		b.bundles = append(b.bundles, &bundle{name: env.Name, outfile: outfile, ctx: bctx})
	}
	return nil
}

func (b *Builder) dispose() {
	for _, bd := range b.bundles {
		bd.ctx.Dispose()
	}
	b.bundles = nil
}

// writeStamp records the cycle time as an RFC 3339 UTC timestamp with
// millisecond precision.
func (b *Builder) writeStamp() error {
	stamp := b.cfg.Now().UTC().Format("2006-01-02T15:04:05.000Z07:00")
	path := b.cfg.StampFile
	if !filepath.IsAbs(path) {
		path = filepath.Join(b.dir, path)
	}
	if err := os.WriteFile(path, []byte(stamp), 0o644); err != nil {
		return fmt.Errorf("write stamp file: %w", err)
	}
	return nil
}

// reportPlugin logs each environment whose build finished without errors.
func (b *Builder) reportPlugin() api.Plugin {
	return api.Plugin{
		Name: "fxkit-report",
		Setup: func(build api.PluginBuild) {
			outfile := build.InitialOptions.Outfile
			build.OnEnd(func(result *api.BuildResult) (api.OnEndResult, error) {
				if result == nil || len(result.Errors) == 0 {
					b.logger.Infof("successfully built %s", outfile)
				}
				return api.OnEndResult{}, nil
			})
		},
	}
}

func esbuildContext(opts api.BuildOptions) (bundler, error) {
	ctx, ctxErr := api.Context(opts)
	if ctxErr != nil {
		return nil, errors.New(strings.Join(formatMessages(ctxErr.Errors), "\n"))
	}
	return ctx, nil
}

func formatMessages(msgs []api.Message) []string {
	formatted := api.FormatMessages(msgs, api.FormatMessagesOptions{Kind: api.ErrorMessage})
	for i, m := range formatted {
		formatted[i] = strings.TrimRight(m, "\n")
	}
	return formatted
}

func resolvePaths(dir string, paths []string) []string {
	resolved := make([]string, len(paths))
	for i, p := range paths {
		if filepath.IsAbs(p) {
			resolved[i] = p
		} else {
			resolved[i] = filepath.Join(dir, p)
		}
	}
	return resolved
}
