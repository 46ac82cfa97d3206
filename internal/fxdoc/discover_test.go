// SPDX-License-Identifier: MPL-2.0

package fxdoc

import (
	"context"
	"path/filepath"
	"reflect"
	"slices"
	"testing"

	"github.com/fxkit/fxkit/internal/fsutil"
	"github.com/fxkit/fxkit/internal/testutil"
	"github.com/fxkit/fxkit/internal/tsprogram"
)

// buildProgram writes files into a temp dir and builds a program from every
// file below it, as a run over that directory would.
func buildProgram(t *testing.T, files map[string]string) *tsprogram.Program {
	t.Helper()

	dir := t.TempDir()
	testutil.WriteTree(t, dir, files)

	listed, err := fsutil.ListFiles(context.Background(), dir)
	if err != nil {
		t.Fatalf("ListFiles() error: %v", err)
	}
	prog, err := tsprogram.New(context.Background(), listed, tsprogram.Options{ConfigDir: dir})
	if err != nil {
		t.Fatalf("tsprogram.New() error: %v", err)
	}
	return prog
}

func recordNames(records []ExportRecord) []string {
	names := make([]string, len(records))
	for i, r := range records {
		names[i] = r.Name
	}
	return names
}

func diagnosticCodes(diags []Diagnostic) []string {
	codes := make([]string, len(diags))
	for i, d := range diags {
		codes[i] = d.Code
	}
	return codes
}

func TestDiscover_RegistrationPattern(t *testing.T) {
	t.Parallel()

	prog := buildProgram(t, map[string]string{
		"main.ts": `declare const someObj: any;
exports("foo", function (x: number) { return x; });
someObj.exports("member", (x: number) => x);
global.exports("global", (x: number) => x);
exports(` + "`template`" + `, (x: number) => x);
exports(name, (x: number) => x);
exports("bar", (y: string): string => y);
`,
	})

	records, _ := Discover(prog)
	if got, want := recordNames(records), []string{"foo", "bar"}; !slices.Equal(got, want) {
		t.Fatalf("Discover() names = %v, want %v", got, want)
	}

	foo := records[0]
	if foo.SignatureText() != "foo(x: number) => number" {
		t.Errorf("foo signature = %q", foo.SignatureText())
	}
	wantParams := []ParameterInfo{{Name: "x", TypeText: "number", Text: "x: number"}}
	if !reflect.DeepEqual(foo.Parameters, wantParams) {
		t.Errorf("foo parameters = %+v, want %+v", foo.Parameters, wantParams)
	}
}

func TestDiscover_AliasResolution(t *testing.T) {
	t.Parallel()

	prog := buildProgram(t, map[string]string{
		"mod.ts": `/**
 * Helps out.
 * @param count how many times
 */
export function helper(count: number, label?: string): boolean {
	return count > 0;
}
`,
		"main.ts": `import { helper as h } from "./mod";
exports("bar", h);
`,
	})

	records, diags := Discover(prog)
	if len(diags) != 0 {
		t.Errorf("Discover() diagnostics = %v, want none", diags)
	}
	if len(records) != 1 {
		t.Fatalf("Discover() = %d records, want 1", len(records))
	}

	want := ExportRecord{
		Name:        "bar",
		Description: "Helps out.",
		Parameters: []ParameterInfo{
			{Name: "count", TypeText: "number", Doc: "how many times", Text: "count: number"},
			{Name: "label?", TypeText: "string", Text: "label?: string"},
		},
		ReturnType: "boolean",
	}
	if !reflect.DeepEqual(records[0], want) {
		t.Errorf("record = %+v\nwant     %+v", records[0], want)
	}
}

func TestDiscover_UnresolvableIsDropped(t *testing.T) {
	t.Parallel()

	prog := buildProgram(t, map[string]string{
		"main.ts": `const value = 42;
const api = { run() {} };
exports("literal", 42);
exports("member", api.run);
exports("call", makeHandler());
exports("conditional", flag ? a : b);
exports("value", value);
exports("undeclared", nowhere);
exports("missing");
exports("paren", (helper));
exports("cast", helper as any);
exports("asserted", helper!);
exports("wrappedArrow", (() => 1));
exports("ok", () => {});
function helper(): void {}
`,
	})

	records, diags := Discover(prog)
	if got, want := recordNames(records), []string{"ok"}; !slices.Equal(got, want) {
		t.Errorf("Discover() names = %v, want %v", got, want)
	}

	if len(diags) != 11 {
		t.Fatalf("Discover() diagnostics = %d, want 11: %v", len(diags), diags)
	}
	for _, d := range diags {
		if d.Code != CodeExportUnresolved || d.Severity != SeverityWarning {
			t.Errorf("diagnostic %v: want warning %s", d, CodeExportUnresolved)
		}
	}
	if diags[0].Line != 3 {
		t.Errorf("first diagnostic line = %d, want 3", diags[0].Line)
	}
}

func TestDiscover_SelfReferencingExports(t *testing.T) {
	t.Parallel()

	prog := buildProgram(t, map[string]string{
		"main.ts": `const f = () => f;
const chain = (x: number) => { use(x); return chain; };
const a = () => b;
const b = () => a;
exports("f", f);
exports("chain", chain);
exports("a", a);
exports("b", b);
`,
	})

	records, _ := Discover(prog)
	got := make(map[string]string, len(records))
	for _, r := range records {
		got[r.Name] = r.ReturnType
	}
	want := map[string]string{
		"f":     "() => any",
		"chain": "(x: number) => any",
		"a":     "() => () => any",
		"b":     "() => () => any",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Discover() return types = %v, want %v", got, want)
	}
}

func TestDiscover_OrderAndNesting(t *testing.T) {
	t.Parallel()

	prog := buildProgram(t, map[string]string{
		"b.ts": `exports("b1", () => 1);
function register() {
	exports("b2", () => 2);
}
wrap(exports("b3", () => 3));
`,
		"a.ts": `exports("a1", () => "a");
`,
		"types.d.ts": `declare function exports(name: string, fn: Function): void;
exports("ambient", () => 1);
`,
	})

	want := []string{"a1", "b1", "b2", "b3"}
	for range 3 {
		records, _ := Discover(prog)
		if got := recordNames(records); !slices.Equal(got, want) {
			t.Fatalf("Discover() names = %v, want %v", got, want)
		}
	}
}

func TestDiscover_DeterministicAcrossBuilds(t *testing.T) {
	t.Parallel()

	files := map[string]string{
		"z.ts":         `exports("z", () => 1);`,
		"a/index.ts":   `exports("a", () => 1);`,
		"m/deep/x.ts":  `exports("x", () => 1);`,
		"m/deep/y.tsx": `exports("y", () => <div />);`,
	}

	first, _ := Discover(buildProgram(t, files))
	for range 3 {
		again, _ := Discover(buildProgram(t, files))
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("Discover() not deterministic:\n%v\n%v", recordNames(first), recordNames(again))
		}
	}
}

func TestDiscover_SyntaxErrorDiagnostic(t *testing.T) {
	t.Parallel()

	prog := buildProgram(t, map[string]string{
		"broken.ts": `exports("ok", () => 1);
function (
`,
	})

	_, diags := Discover(prog)
	if !slices.Contains(diagnosticCodes(diags), CodeSourceParseError) {
		t.Errorf("Discover() diagnostics = %v, want %s", diags, CodeSourceParseError)
	}
	if diags[0].Path == "" || filepath.Base(diags[0].Path) != "broken.ts" {
		t.Errorf("diagnostic path = %q, want broken.ts", diags[0].Path)
	}
}

func TestClassify(t *testing.T) {
	t.Parallel()

	prog := buildProgram(t, map[string]string{
		"main.ts": `exports("arrow", (x) => x);
exports("fn", function () {});
exports("paren", (helper));
exports("cast", helper as any);
exports("asserted", helper!);
exports("parenArrow", ((x) => x));
exports("id", helper);
exports("member", a.b);
`,
	})

	want := map[string]ReferenceKind{
		"arrow":      FunctionLikeExpression,
		"fn":         FunctionLikeExpression,
		"paren":      Unsupported,
		"cast":       Unsupported,
		"asserted":   Unsupported,
		"parenArrow": Unsupported,
		"id":         IdentifierReference,
		"member":     Unsupported,
	}

	file := prog.SourceFiles()[0]
	file.Root().Walk(func(n tsprogram.Node) bool {
		name, ref, ok := matchExportCall(n)
		if !ok {
			return true
		}
		if got := Classify(ref); got != want[name] {
			t.Errorf("Classify(%s) = %v, want %v", name, got, want[name])
		}
		delete(want, name)
		return true
	})
	if len(want) != 0 {
		t.Errorf("call sites not visited: %v", want)
	}
}
