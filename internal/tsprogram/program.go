// SPDX-License-Identifier: MPL-2.0

package tsprogram

import (
	"context"
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

type (
	// SourceFile is one parsed file of a Program.
	SourceFile struct {
		// Path is the absolute, cleaned file path.
		Path string
		// IsDeclarationFile is true for .d.ts files, which are never
		// traversed for export call sites.
		IsDeclarationFile bool

		content []byte
		sum     [sha256.Size]byte
		tree    *sitter.Tree
		imports []string
	}

	// Program is an immutable set of parsed source files.
	Program struct {
		opts   Options
		files  []*SourceFile
		byPath map[string]*SourceFile
		// unreadable lists root files that could not be read.
		unreadable []string
	}

	// Option configures New.
	Option func(*builder)

	builder struct {
		ctx     context.Context
		opts    Options
		cache   *Cache
		parsers map[bool]*sitter.Parser
		prog    *Program
		visited map[string]bool
	}
)

// WithCache reuses parsed files from c and stores newly parsed ones in it.
func WithCache(c *Cache) Option {
	return func(b *builder) { b.cache = c }
}

// New parses rootFiles (and, transitively, the files they import) into a
// Program. Paths without a source extension are ignored. Root files are
// processed in lexical order and every file appears after the files it
// imports, which makes the program order independent of how the root list
// was produced.
func New(ctx context.Context, rootFiles []string, opts Options, options ...Option) (*Program, error) {
	b := &builder{
		ctx:     ctx,
		opts:    opts,
		parsers: make(map[bool]*sitter.Parser),
		prog: &Program{
			opts:   opts,
			byPath: make(map[string]*SourceFile),
		},
		visited: make(map[string]bool),
	}
	for _, o := range options {
		o(b)
	}

	roots := make([]string, 0, len(rootFiles))
	for _, f := range rootFiles {
		if !opts.IsSourceFile(f) {
			continue
		}
		abs, err := filepath.Abs(f)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", f, err)
		}
		roots = append(roots, filepath.Clean(abs))
	}
	slices.Sort(roots)
	roots = slices.Compact(roots)

	for _, root := range roots {
		if err := b.load(root, true); err != nil {
			return nil, err
		}
	}

	return b.prog, nil
}

// SourceFiles returns the program's files in program order.
func (p *Program) SourceFiles() []*SourceFile {
	return slices.Clone(p.files)
}

// File returns the source file at path, if it is part of the program.
func (p *Program) File(path string) (*SourceFile, bool) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, false
	}
	f, ok := p.byPath[filepath.Clean(abs)]
	return f, ok
}

// Unreadable returns the root files that could not be read.
func (p *Program) Unreadable() []string {
	return slices.Clone(p.unreadable)
}

// Options returns the compiler options the program was built with.
func (p *Program) Options() Options { return p.opts }

// Root returns the file's syntax tree root.
func (f *SourceFile) Root() Node {
	return newNode(f, f.tree.RootNode())
}

// HasSyntaxErrors reports whether tree-sitter recovered from errors while
// parsing the file.
func (f *SourceFile) HasSyntaxErrors() bool {
	return f.tree.RootNode().HasError()
}

// Imports returns the module specifiers the file imports or re-exports from.
func (f *SourceFile) Imports() []string {
	return slices.Clone(f.imports)
}

func (b *builder) load(path string, isRoot bool) error {
	if err := b.ctx.Err(); err != nil {
		return err
	}
	if b.visited[path] {
		return nil
	}
	b.visited[path] = true

	content, err := os.ReadFile(path)
	if err != nil {
		if isRoot {
			b.prog.unreadable = append(b.prog.unreadable, path)
		}
		return nil
	}

	file, err := b.parse(path, content)
	if err != nil {
		return err
	}

	// Imported files precede their importer.
	for _, spec := range file.imports {
		target, ok := resolveModule(b.opts, path, spec)
		if !ok {
			continue
		}
		if err := b.load(target, false); err != nil {
			return err
		}
	}

	b.prog.files = append(b.prog.files, file)
	b.prog.byPath[path] = file
	return nil
}

func (b *builder) parse(path string, content []byte) (*SourceFile, error) {
	sum := sha256.Sum256(content)
	if cached, ok := b.cache.get(path, sum); ok {
		return cached, nil
	}

	isTSX := strings.HasSuffix(path, ".tsx") || strings.HasSuffix(path, ".jsx")
	parser, ok := b.parsers[isTSX]
	if !ok {
		parser = sitter.NewParser()
		if isTSX {
			parser.SetLanguage(tsx.GetLanguage())
		} else {
			parser.SetLanguage(typescript.GetLanguage())
		}
		b.parsers[isTSX] = parser
	}

	tree, err := parser.ParseCtx(b.ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	file := &SourceFile{
		Path:              path,
		IsDeclarationFile: IsDeclarationFile(path),
		content:           content,
		sum:               sum,
		tree:              tree,
	}
	file.imports = collectModuleSpecifiers(file)

	b.cache.add(file)
	return file, nil
}

// collectModuleSpecifiers lists the specifiers of top-level import
// statements and re-exports, in source order.
func collectModuleSpecifiers(f *SourceFile) []string {
	var specs []string
	for _, stmt := range f.Root().NamedChildren() {
		switch stmt.Kind() {
		case KindImportStatement, KindExportStatement:
			if spec, ok := stmt.Field("source").StringValue(); ok {
				specs = append(specs, spec)
			}
		}
	}
	return specs
}

// resolveModule maps a module specifier used in fromFile to a file on disk.
// Bare package specifiers only resolve through baseUrl or paths.
func resolveModule(opts Options, fromFile, spec string) (string, bool) {
	if isRelativeSpecifier(spec) {
		return resolveFile(opts, filepath.Join(filepath.Dir(fromFile), filepath.FromSlash(spec)))
	}

	for _, pattern := range sortedPathPatterns(opts.Paths) {
		capture, ok := matchPathPattern(pattern, spec)
		if !ok {
			continue
		}
		for _, target := range opts.Paths[pattern] {
			candidate := strings.Replace(target, "*", capture, 1)
			if resolved, ok := resolveFile(opts, filepath.Join(opts.pathsRoot(), filepath.FromSlash(candidate))); ok {
				return resolved, true
			}
		}
	}

	if opts.BaseURL != "" {
		return resolveFile(opts, filepath.Join(opts.BaseURL, filepath.FromSlash(spec)))
	}

	return "", false
}

func isRelativeSpecifier(spec string) bool {
	return spec == "." || spec == ".." ||
		strings.HasPrefix(spec, "./") || strings.HasPrefix(spec, "../")
}

// sortedPathPatterns orders paths keys so the longest literal prefix is
// tried first, as tsc does.
func sortedPathPatterns(paths map[string][]string) []string {
	patterns := make([]string, 0, len(paths))
	for p := range paths {
		patterns = append(patterns, p)
	}
	slices.SortFunc(patterns, func(a, b string) int {
		pa, _, _ := strings.Cut(a, "*")
		pb, _, _ := strings.Cut(b, "*")
		if len(pa) != len(pb) {
			return len(pb) - len(pa)
		}
		return strings.Compare(a, b)
	})
	return patterns
}

// matchPathPattern matches a compilerOptions.paths key, which may contain a
// single "*" wildcard, returning the wildcard capture.
func matchPathPattern(pattern, spec string) (string, bool) {
	prefix, suffix, hasStar := strings.Cut(pattern, "*")
	if !hasStar {
		return "", pattern == spec
	}
	if len(spec) < len(prefix)+len(suffix) ||
		!strings.HasPrefix(spec, prefix) || !strings.HasSuffix(spec, suffix) {
		return "", false
	}
	return spec[len(prefix) : len(spec)-len(suffix)], true
}

// resolveFile tries base as a file, with each known extension, with a .js
// extension swapped for a TypeScript one, and as a directory index.
func resolveFile(opts Options, base string) (string, bool) {
	base = filepath.Clean(base)

	if opts.IsSourceFile(base) && isFile(base) {
		return base, true
	}

	exts := opts.resolutionExtensions()
	for _, ext := range exts {
		if isFile(base + ext) {
			return base + ext, true
		}
	}

	if stripped, ok := strings.CutSuffix(base, ".js"); ok {
		for _, ext := range []string{".ts", ".tsx", ".d.ts"} {
			if isFile(stripped + ext) {
				return stripped + ext, true
			}
		}
	}

	for _, ext := range exts {
		index := filepath.Join(base, "index"+ext)
		if isFile(index) {
			return index, true
		}
	}

	return "", false
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
