// SPDX-License-Identifier: MPL-2.0

package fxdoc

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/fxkit/fxkit/internal/fsutil"
	"github.com/fxkit/fxkit/internal/testutil"
	"github.com/fxkit/fxkit/internal/tsprogram"
)

func projectOptions(dir string) Options {
	return Options{
		Dir:      filepath.Join(dir, "src"),
		Out:      filepath.Join(dir, "fxdoc"),
		TSConfig: filepath.Join(dir, "tsconfig.json"),
		Package:  filepath.Join(dir, "package.json"),
	}
}

func TestOptions_WithArgs(t *testing.T) {
	t.Parallel()

	got := DefaultOptions().WithArgs([]string{
		"out=./docs",
		"dir= ./client ",
		"tsconfig=",
		"unknown=1",
		"noequals",
		"out=a=b",
	})

	want := Options{
		Dir:      "./client",
		Out:      "a=b",
		TSConfig: tsprogram.DefaultTSConfigPath,
		Package:  "package.json",
	}
	if got != want {
		t.Errorf("WithArgs() = %+v, want %+v", got, want)
	}
}

func TestPipeline_Run(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	testutil.WriteTree(t, dir, map[string]string{
		"tsconfig.json": `{
	// tsc accepts comments
	"compilerOptions": {
		"baseUrl": ".",
		"paths": { "@shared/*": ["shared/*"] },
	},
}`,
		"package.json": `{"name": "my-resource"}`,
		"shared/math.ts": `/** Sums. */
export const sum = (a: number, b: number): number => a + b;
`,
		"src/server.ts": `import { sum } from "@shared/math";
exports("sum", sum);
exports("broken", notDefined);
`,
	})

	var logs bytes.Buffer
	p := NewPipeline(projectOptions(dir), WithLogger(log.New(&logs)))
	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if len(p.Records) != 1 || p.Records[0].Name != "sum" {
		t.Fatalf("Records = %+v, want one record 'sum'", p.Records)
	}
	if p.Package.Name != "my-resource" {
		t.Errorf("Package.Name = %q", p.Package.Name)
	}
	if len(p.Diagnostics) != 1 || p.Diagnostics[0].Code != CodeExportUnresolved {
		t.Errorf("Diagnostics = %v, want one %s", p.Diagnostics, CodeExportUnresolved)
	}

	dts := testutil.MustReadFile(t, filepath.Join(dir, "fxdoc", DTSFileName))
	if !strings.Contains(dts, "\"my-resource\"") || !strings.Contains(dts, "/** Sums. */") {
		t.Errorf("exports.d.ts =\n%s", dts)
	}

	for _, want := range []string{"running fxdoc", CodeExportUnresolved} {
		if !strings.Contains(logs.String(), want) {
			t.Errorf("logs missing %q:\n%s", want, logs.String())
		}
	}
}

func TestPipeline_MissingTSConfig(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	testutil.WriteTree(t, dir, map[string]string{
		"package.json":  `{"name": "pkg"}`,
		"src/server.ts": `exports("a", () => 1);`,
	})

	p := NewPipeline(projectOptions(dir), WithLogger(log.New(io.Discard)))
	err := p.Run(context.Background())

	var readErr *fsutil.ReadError
	if !errors.As(err, &readErr) {
		t.Fatalf("Run() error = %v, want *fsutil.ReadError", err)
	}
	if p.Records != nil {
		t.Errorf("Records = %v, want discovery not to run", p.Records)
	}
	if _, err := os.Stat(filepath.Join(dir, "fxdoc")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("output directory created despite config error (stat err: %v)", err)
	}
}

func TestPipeline_MissingPackageJSON(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	testutil.WriteTree(t, dir, map[string]string{
		"tsconfig.json": `{}`,
		"src/server.ts": `exports("a", () => 1);`,
	})

	err := NewPipeline(projectOptions(dir), WithLogger(log.New(io.Discard))).Run(context.Background())

	var readErr *fsutil.ReadError
	if !errors.As(err, &readErr) {
		t.Fatalf("Run() error = %v, want *fsutil.ReadError", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "fxdoc")); !errors.Is(err, os.ErrNotExist) {
		t.Error("output directory created despite missing package.json")
	}
}

func TestPipeline_NoExports(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	testutil.WriteTree(t, dir, map[string]string{
		"tsconfig.json": `{}`,
		"package.json":  `{"name": "pkg"}`,
		"src/server.ts": `console.log("nothing exported");`,
	})

	if err := NewPipeline(projectOptions(dir), WithLogger(log.New(io.Discard))).Run(context.Background()); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "fxdoc")); !errors.Is(err, os.ErrNotExist) {
		t.Error("output directory created for a run without exports")
	}
}

func TestPipeline_MissingScanRoot(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	testutil.WriteTree(t, dir, map[string]string{
		"tsconfig.json": `{}`,
		"package.json":  `{"name": "pkg"}`,
	})

	p := NewPipeline(projectOptions(dir), WithLogger(log.New(io.Discard)))
	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if len(p.Records) != 0 {
		t.Errorf("Records = %v, want none", p.Records)
	}
}

func TestPipeline_SharedParseCache(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	testutil.WriteTree(t, dir, map[string]string{
		"tsconfig.json": `{}`,
		"package.json":  `{"name": "pkg"}`,
		"src/a.ts":      `exports("a", () => 1);`,
		"src/b.ts":      `exports("b", () => 2);`,
	})

	cache, err := tsprogram.NewCache(0)
	if err != nil {
		t.Fatalf("NewCache() error: %v", err)
	}

	for range 2 {
		p := NewPipeline(projectOptions(dir), WithLogger(log.New(io.Discard)), WithParseCache(cache))
		if err := p.Run(context.Background()); err != nil {
			t.Fatalf("Run() error: %v", err)
		}
		if len(p.Records) != 2 {
			t.Fatalf("Records = %d, want 2", len(p.Records))
		}
	}
	if cache.Len() != 2 {
		t.Errorf("cache.Len() = %d, want 2", cache.Len())
	}
}
