// SPDX-License-Identifier: MPL-2.0

package tsprogram

import (
	"context"
	"path/filepath"
	"slices"
	"testing"

	"github.com/fxkit/fxkit/internal/testutil"
)

// newTestProgram writes files under a temp dir and builds a Program from the
// given roots (relative to that dir).
func newTestProgram(t *testing.T, files map[string]string, opts Options, roots ...string) (*Program, string) {
	t.Helper()

	dir := t.TempDir()
	testutil.WriteTree(t, dir, files)
	if opts.ConfigDir == "" {
		opts.ConfigDir = dir
	}

	abs := make([]string, len(roots))
	for i, r := range roots {
		abs[i] = filepath.Join(dir, r)
	}

	prog, err := New(context.Background(), abs, opts)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return prog, dir
}

func mustFile(t *testing.T, prog *Program, path string) *SourceFile {
	t.Helper()

	f, ok := prog.File(path)
	if !ok {
		t.Fatalf("File(%q) not in program", path)
	}
	return f
}

// exportArg returns the second argument of the `exports("<name>", ...)` call
// in f.
func exportArg(t *testing.T, f *SourceFile, name string) Node {
	t.Helper()

	var found Node
	f.Root().Walk(func(n Node) bool {
		if !found.IsZero() {
			return false
		}
		if n.Kind() != KindCallExpression || n.Field("function").Text() != "exports" {
			return true
		}
		args := n.Field("arguments").NamedChildren()
		if len(args) == 2 {
			if s, ok := args[0].StringValue(); ok && s == name {
				found = args[1]
			}
		}
		return true
	})
	if found.IsZero() {
		t.Fatalf("no exports(%q, ...) call in %s", name, f.Path)
	}
	return found
}

func filePaths(files []*SourceFile) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.Path
	}
	return out
}

func TestNew_ImportsPrecedeImporters(t *testing.T) {
	t.Parallel()

	prog, dir := newTestProgram(t, map[string]string{
		"main.ts": `import { add } from "./util";` + "\n",
		"util.ts": `export const add = (a: number) => a;` + "\n",
		"z.ts":    "",
	}, Options{}, "z.ts", "util.ts", "main.ts")

	want := []string{
		filepath.Join(dir, "util.ts"),
		filepath.Join(dir, "main.ts"),
		filepath.Join(dir, "z.ts"),
	}
	if got := filePaths(prog.SourceFiles()); !slices.Equal(got, want) {
		t.Errorf("SourceFiles() = %v, want %v", got, want)
	}
}

func TestNew_FiltersBySourceExtension(t *testing.T) {
	t.Parallel()

	files := map[string]string{
		"a.ts":       "",
		"b.js":       "",
		"c.lua":      "",
		"types.d.ts": "",
	}

	prog, dir := newTestProgram(t, files, Options{}, "a.ts", "b.js", "c.lua", "types.d.ts")
	want := []string{filepath.Join(dir, "a.ts"), filepath.Join(dir, "types.d.ts")}
	if got := filePaths(prog.SourceFiles()); !slices.Equal(got, want) {
		t.Errorf("SourceFiles() = %v, want %v", got, want)
	}
	if f := mustFile(t, prog, filepath.Join(dir, "types.d.ts")); !f.IsDeclarationFile {
		t.Error("types.d.ts: IsDeclarationFile = false, want true")
	}

	progJS, dirJS := newTestProgram(t, files, Options{AllowJS: true}, "a.ts", "b.js", "c.lua")
	wantJS := []string{filepath.Join(dirJS, "a.ts"), filepath.Join(dirJS, "b.js")}
	if got := filePaths(progJS.SourceFiles()); !slices.Equal(got, wantJS) {
		t.Errorf("SourceFiles() with AllowJS = %v, want %v", got, wantJS)
	}
}

func TestNew_UnreadableRoot(t *testing.T) {
	t.Parallel()

	prog, dir := newTestProgram(t, map[string]string{"a.ts": ""}, Options{}, "a.ts", "missing.ts")

	want := []string{filepath.Join(dir, "missing.ts")}
	if got := prog.Unreadable(); !slices.Equal(got, want) {
		t.Errorf("Unreadable() = %v, want %v", got, want)
	}
	if len(prog.SourceFiles()) != 1 {
		t.Errorf("SourceFiles() len = %d, want 1", len(prog.SourceFiles()))
	}
}

func TestNew_SyntaxErrorsAreRecovered(t *testing.T) {
	t.Parallel()

	prog, dir := newTestProgram(t, map[string]string{"bad.ts": "function (\n"}, Options{}, "bad.ts")

	f := mustFile(t, prog, filepath.Join(dir, "bad.ts"))
	if !f.HasSyntaxErrors() {
		t.Error("HasSyntaxErrors() = false, want true")
	}
}

func TestNew_CanceledContext(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	testutil.MustWriteFile(t, filepath.Join(dir, "a.ts"), "")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := New(ctx, []string{filepath.Join(dir, "a.ts")}, Options{}); err == nil {
		t.Fatal("New() with canceled context: expected error")
	}
}

func TestResolveModule(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	testutil.WriteTree(t, dir, map[string]string{
		"src/main.ts":           "",
		"src/util.ts":           "",
		"src/lib/index.ts":      "",
		"shared/math.ts":        "",
		"shared/exact/entry.ts": "",
		"vendor/pkg.ts":         "",
	})

	opts := Options{
		ConfigDir: dir,
		BaseURL:   dir,
		Paths: map[string][]string{
			"@shared/*":    {"missing/*", "shared/*"},
			"@shared/deep": {"shared/exact/entry"},
		},
	}
	from := filepath.Join(dir, "src", "main.ts")

	tests := []struct {
		spec string
		want string
	}{
		{"./util", filepath.Join(dir, "src", "util.ts")},
		{"./util.js", filepath.Join(dir, "src", "util.ts")},
		{"./util.ts", filepath.Join(dir, "src", "util.ts")},
		{"./lib", filepath.Join(dir, "src", "lib", "index.ts")},
		{"@shared/math", filepath.Join(dir, "shared", "math.ts")},
		{"@shared/deep", filepath.Join(dir, "shared", "exact", "entry.ts")},
		{"vendor/pkg", filepath.Join(dir, "vendor", "pkg.ts")},
		{"./nope", ""},
		{"react", ""},
	}

	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			t.Parallel()

			got, ok := resolveModule(opts, from, tt.spec)
			if tt.want == "" {
				if ok {
					t.Errorf("resolveModule(%q) = %q, want unresolved", tt.spec, got)
				}
				return
			}
			if !ok || got != tt.want {
				t.Errorf("resolveModule(%q) = %q, %v; want %q", tt.spec, got, ok, tt.want)
			}
		})
	}
}

func TestMatchPathPattern(t *testing.T) {
	t.Parallel()

	tests := []struct {
		pattern, spec string
		capture       string
		ok            bool
	}{
		{"@app/*", "@app/x/y", "x/y", true},
		{"@app/*", "@other/x", "", false},
		{"*.json", "data.json", "data", true},
		{"exact", "exact", "", true},
		{"exact", "exactly", "", false},
	}

	for _, tt := range tests {
		capture, ok := matchPathPattern(tt.pattern, tt.spec)
		if ok != tt.ok || capture != tt.capture {
			t.Errorf("matchPathPattern(%q, %q) = %q, %v; want %q, %v",
				tt.pattern, tt.spec, capture, ok, tt.capture, tt.ok)
		}
	}
}

func TestOptionsFromTSConfig(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfg := map[string]any{
		"compilerOptions": map[string]any{
			"baseUrl": "./src",
			"allowJs": true,
			"paths": map[string]any{
				"@/*": []any{"./*", 42},
			},
			"strict": true,
		},
	}

	opts := OptionsFromTSConfig(cfg, filepath.Join(dir, "tsconfig.json"))

	if opts.ConfigDir != dir {
		t.Errorf("ConfigDir = %q, want %q", opts.ConfigDir, dir)
	}
	if want := filepath.Join(dir, "src"); opts.BaseURL != want {
		t.Errorf("BaseURL = %q, want %q", opts.BaseURL, want)
	}
	if !opts.AllowJS {
		t.Error("AllowJS = false, want true")
	}
	if got := opts.Paths["@/*"]; !slices.Equal(got, []string{"./*"}) {
		t.Errorf(`Paths["@/*"] = %v, want [./*]`, got)
	}

	empty := OptionsFromTSConfig(map[string]any{}, filepath.Join(dir, "tsconfig.json"))
	if empty.BaseURL != "" || empty.AllowJS || empty.Paths != nil {
		t.Errorf("OptionsFromTSConfig(empty) = %+v, want zero compiler options", empty)
	}
}

func TestOptions_SourceExtensions(t *testing.T) {
	t.Parallel()

	if got := (Options{}).SourceExtensions(); !slices.Equal(got, []string{".ts", ".tsx", ".mts", ".cts"}) {
		t.Errorf("SourceExtensions() = %v", got)
	}
	withJS := Options{AllowJS: true}
	if got := withJS.SourceExtensions(); !slices.Contains(got, ".jsx") || !slices.Contains(got, ".tsx") {
		t.Errorf("SourceExtensions(allowJs) = %v", got)
	}
	for path, want := range map[string]bool{"a.TSX": true, "a.js": false, "a.d.ts": true, "a.json": false} {
		if got := (Options{}).IsSourceFile(path); got != want {
			t.Errorf("IsSourceFile(%q) = %v, want %v", path, got, want)
		}
	}
	if !withJS.IsSourceFile("a.js") {
		t.Error("IsSourceFile(a.js) with allowJs = false")
	}
}

func TestCache_ReusesUnchangedFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	a := filepath.Join(dir, "a.ts")
	b := filepath.Join(dir, "b.ts")
	testutil.MustWriteFile(t, a, "export const a = 1;\n")
	testutil.MustWriteFile(t, b, "export const b = 2;\n")

	cache, err := NewCache(0)
	if err != nil {
		t.Fatalf("NewCache() error: %v", err)
	}

	first, err := New(context.Background(), []string{a, b}, Options{}, WithCache(cache))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if cache.Len() != 2 {
		t.Fatalf("cache.Len() = %d, want 2", cache.Len())
	}

	testutil.MustWriteFile(t, b, "export const b = 3;\n")

	second, err := New(context.Background(), []string{a, b}, Options{}, WithCache(cache))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	if mustFile(t, first, a) != mustFile(t, second, a) {
		t.Error("unchanged a.ts was re-parsed")
	}
	if mustFile(t, first, b) == mustFile(t, second, b) {
		t.Error("changed b.ts was served from cache")
	}
}
