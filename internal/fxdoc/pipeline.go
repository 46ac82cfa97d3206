// SPDX-License-Identifier: MPL-2.0

package fxdoc

import (
	"context"
	"os"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/fxkit/fxkit/internal/fsutil"
	"github.com/fxkit/fxkit/internal/pkgjson"
	"github.com/fxkit/fxkit/internal/tsprogram"
)

const (
	// DefaultDir is the scan root.
	DefaultDir = "./src"
	// DefaultOut is the output directory.
	DefaultOut = "./fxdoc"
)

type (
	// Options locate a run's inputs and output.
	Options struct {
		// Dir is the directory scanned for sources.
		Dir string `json:"dir"`
		// Out is the directory documentation is written to.
		Out string `json:"out"`
		// TSConfig is the tsconfig.json supplying compiler options.
		TSConfig string `json:"tsconfig"`
		// Package is the package.json supplying the package name.
		Package string `json:"package"`
	}

	// Pipeline is the state of one documentation run.
	Pipeline struct {
		Options     Options
		Records     []ExportRecord
		Diagnostics []Diagnostic
		Package     *pkgjson.Package

		logger *log.Logger
		cache  *tsprogram.Cache
	}

	// PipelineOption configures a Pipeline.
	PipelineOption func(*Pipeline)
)

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		Dir:      DefaultDir,
		Out:      DefaultOut,
		TSConfig: tsprogram.DefaultTSConfigPath,
		Package:  pkgjson.DefaultPath,
	}
}

// WithArgs folds key=value arguments into o. Only dir, out and tsconfig are
// recognized; other keys, arguments without "=" and empty values are
// ignored. Values are trimmed.
func (o Options) WithArgs(args []string) Options {
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		switch key {
		case "dir":
			o.Dir = value
		case "out":
			o.Out = value
		case "tsconfig":
			o.TSConfig = value
		}
	}
	return o
}

// WithLogger sets the logger used for progress and diagnostics.
func WithLogger(l *log.Logger) PipelineOption {
	return func(p *Pipeline) { p.logger = l }
}

// WithParseCache reuses parsed files across runs.
func WithParseCache(c *tsprogram.Cache) PipelineOption {
	return func(p *Pipeline) { p.cache = c }
}

// NewPipeline creates a pipeline for one run.
func NewPipeline(opts Options, options ...PipelineOption) *Pipeline {
	p := &Pipeline{Options: opts}
	for _, o := range options {
		o(p)
	}
	if p.logger == nil {
		p.logger = log.NewWithOptions(os.Stderr, log.Options{Prefix: "fxdoc"})
	}
	return p
}

// Run loads the compiler options, discovers exports under the scan root,
// loads the package metadata and renders the documentation.
//
// A missing or invalid tsconfig.json or package.json fails the run
// (*fsutil.ReadError, *fsutil.ParseError) before anything is written.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("running fxdoc",
		"dir", p.Options.Dir,
		"out", p.Options.Out,
		"tsconfig", p.Options.TSConfig,
	)

	tsconfig, err := fsutil.LoadJSONMap(p.Options.TSConfig, fsutil.Lenient())
	if err != nil {
		return err
	}

	files, err := fsutil.ListFiles(ctx, p.Options.Dir)
	if err != nil {
		return err
	}

	compilerOptions := tsprogram.OptionsFromTSConfig(tsconfig, p.Options.TSConfig)
	prog, err := tsprogram.New(ctx, files, compilerOptions, tsprogram.WithCache(p.cache))
	if err != nil {
		return err
	}
	p.logger.Debug("program built", "files", len(prog.SourceFiles()))

	p.Records, p.Diagnostics = Discover(prog)
	for _, d := range p.Diagnostics {
		p.logger.Warn(d.Message, "code", d.Code, "path", d.Path, "line", d.Line)
	}

	p.Package, err = pkgjson.Load(p.Options.Package)
	if err != nil {
		return err
	}

	if len(p.Records) == 0 {
		p.logger.Info("no exports found")
		return nil
	}

	if err := Render(ctx, p.Records, p.Package, p.Options.Out); err != nil {
		return err
	}
	p.logger.Info("documentation written", "exports", len(p.Records), "out", p.Options.Out)
	return nil
}
