// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"reflect"
	"slices"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/fxkit/fxkit/internal/builder"
	"github.com/fxkit/fxkit/internal/config"
	"github.com/fxkit/fxkit/internal/fsutil"
	"github.com/fxkit/fxkit/internal/fxdoc"
	"github.com/fxkit/fxkit/internal/issue"
	"github.com/fxkit/fxkit/internal/testutil"
)

func TestDocError(t *testing.T) {
	t.Parallel()

	opts := fxdoc.DefaultOptions()
	tests := []struct {
		name string
		err  error
		want issue.Id
	}{
		{"missing tsconfig", &fsutil.ReadError{Path: opts.TSConfig, Err: fs.ErrNotExist}, issue.TSConfigNotFoundId},
		{"missing package.json", &fsutil.ReadError{Path: opts.Package, Err: fs.ErrNotExist}, issue.PackageJSONNotFoundId},
		{"invalid JSON", &fsutil.ParseError{Path: opts.Package, Err: errors.New("unexpected end")}, issue.JSONParseErrorId},
		{"unwritable output", fmt.Errorf("write fxdoc/a.md: %w", fs.ErrPermission), issue.PermissionDeniedId},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var ae *issue.ActionableError
			got := docError(tt.err, opts)
			if !errors.As(got, &ae) {
				t.Fatalf("docError() = %v, want *issue.ActionableError", got)
			}
			if ae.Issue != tt.want {
				t.Errorf("Issue = %d, want %d", ae.Issue, tt.want)
			}
			if !errors.Is(got, tt.err) {
				t.Error("cause lost")
			}
		})
	}

	other := errors.New("walk canceled")
	if got := docError(other, opts); got != other {
		t.Errorf("docError(other) = %v, want it unchanged", got)
	}
}

func TestBuildError(t *testing.T) {
	t.Parallel()

	typeCheck := buildError(fmt.Errorf("run: %w", &builder.ExitError{Command: "tsc --build", Code: 2}))
	var exitErr *ExitError
	if !errors.As(typeCheck, &exitErr) || exitErr.Code != 2 {
		t.Errorf("buildError(type check) = %v, want exit code 2", typeCheck)
	}

	bundle := buildError(errors.Join(&builder.BuildError{Environment: "server", Messages: []string{"x"}}))
	var ae *issue.ActionableError
	if !errors.As(bundle, &ae) || ae.Issue != issue.BuildFailedId || ae.Resource != "server" {
		t.Errorf("buildError(bundle) = %#v", bundle)
	}
}

func TestRenderError(t *testing.T) {
	t.Parallel()

	app := NewApp(Dependencies{Stdout: &bytes.Buffer{}, Stderr: &bytes.Buffer{}})

	var plain bytes.Buffer
	renderError(&plain, app, errors.New("boom"))
	if got := plain.String(); !strings.Contains(got, "Error:") || !strings.Contains(got, "boom") {
		t.Errorf("renderError(plain) = %q", got)
	}

	var actionable bytes.Buffer
	err := issue.NewErrorContext().
		WithOperation("type check").
		WithIssue(issue.TypeCheckFailedId).
		WithSuggestion("Fix the reported type errors").
		Wrap(errors.New("exit 2")).
		BuildError()
	renderError(&actionable, app, &ExitError{Code: 2, Err: err})
	got := actionable.String()
	for _, want := range []string{"Type check failed", "failed to type check: exit 2", "• Fix the reported type errors"} {
		if !strings.Contains(got, want) {
			t.Errorf("renderError(actionable) missing %q:\n%s", want, got)
		}
	}
}

func TestOutputIgnore(t *testing.T) {
	t.Parallel()

	logger := log.New(&bytes.Buffer{})
	tests := []struct {
		dir, out string
		want     []string
	}{
		{"./src", "./fxdoc", nil},
		{"./src", "./src/generated", []string{"generated/**"}},
		{".", "./fxdoc", []string{"fxdoc/**"}},
		{"./src", "./src", nil},
		{"./src", "../elsewhere", nil},
	}
	for _, tt := range tests {
		got := outputIgnore(fxdoc.Options{Dir: tt.dir, Out: filepath.FromSlash(tt.out)}, logger)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("outputIgnore(%q, %q) = %v, want %v", tt.dir, tt.out, got, tt.want)
		}
	}
}

func TestSourcePatterns(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	testutil.WriteTree(t, dir, map[string]string{
		"ts/tsconfig.json": `{"compilerOptions": {"strict": true}}`,
		"js/tsconfig.json": `{
	// plain scripts too
	"compilerOptions": {"allowJs": true,},
}`,
	})

	tsOnly := []string{"**/*.ts", "**/*.tsx", "**/*.mts", "**/*.cts"}
	tests := []struct {
		name     string
		tsconfig string
		want     []string
	}{
		{"typescript", filepath.Join(dir, "ts", "tsconfig.json"), tsOnly},
		{"allowJs", filepath.Join(dir, "js", "tsconfig.json"), append(slices.Clone(tsOnly), "**/*.js", "**/*.jsx", "**/*.mjs", "**/*.cjs")},
		{"missing tsconfig", filepath.Join(dir, "none.json"), tsOnly},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := sourcePatterns(fxdoc.Options{TSConfig: tt.tsconfig}); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("sourcePatterns() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestManifestResource(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()
	cfg.Manifest.ClientScripts = []string{"@ox_lib/init.lua"}
	cfg.Manifest.ServerScripts = []string{"dist/server.js"}

	res := manifestResource(cfg, map[string]string{"client": "dist/client.js", "server": "dist/server.js", "shared": "dist/shared.js"})
	if want := []string{"dist/client.js", "@ox_lib/init.lua"}; !reflect.DeepEqual(res.ClientScripts, want) {
		t.Errorf("ClientScripts = %v, want %v", res.ClientScripts, want)
	}
	if want := []string{"dist/server.js"}; !reflect.DeepEqual(res.ServerScripts, want) {
		t.Errorf("ServerScripts = %v, want %v", res.ServerScripts, want)
	}

	if got := manifestResource(cfg, nil).ClientScripts; !reflect.DeepEqual(got, cfg.Manifest.ClientScripts) {
		t.Errorf("without bundles ClientScripts = %v", got)
	}
}

func TestApp_Logger(t *testing.T) {
	t.Parallel()

	var stderr bytes.Buffer
	app := NewApp(Dependencies{Stderr: &stderr})
	app.ui.LogLevel = config.LogLevelWarn

	app.logger("build").Info("hidden")
	app.logger("build").Warn("shown")
	if got := stderr.String(); strings.Contains(got, "hidden") || !strings.Contains(got, "shown") {
		t.Errorf("warn level output = %q", got)
	}

	stderr.Reset()
	app.flags.verbose = true
	app.logger("build").Debug("details")
	if !strings.Contains(stderr.String(), "details") {
		t.Errorf("--verbose did not enable debug output: %q", stderr.String())
	}
}

func TestApp_GlamourStyle(t *testing.T) {
	t.Parallel()

	app := NewApp(Dependencies{})
	for scheme, want := range map[config.ColorScheme]string{
		config.ColorSchemeAuto:  "auto",
		config.ColorSchemeDark:  "dark",
		config.ColorSchemeLight: "light",
	} {
		app.ui.ColorScheme = scheme
		if got := app.glamourStyle(); got != want {
			t.Errorf("glamourStyle(%q) = %q, want %q", scheme, got, want)
		}
	}
}
