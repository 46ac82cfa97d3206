// SPDX-License-Identifier: MPL-2.0

package builder

import (
	"reflect"
	"testing"

	"github.com/evanw/esbuild/pkg/api"
)

func TestOptions_Merge(t *testing.T) {
	t.Parallel()

	base := Options{
		Platform: "browser",
		Target:   "es2020",
		External: []string{"a"},
		Define:   map[string]string{"DEBUG": "false", "NAME": `"base"`},
	}
	override := Options{
		Platform:  "node",
		Sourcemap: true,
		External:  []string{"b"},
		Define:    map[string]string{"NAME": `"env"`},
	}

	got := base.Merge(override)
	want := Options{
		Platform:  "node",
		Target:    "es2020",
		Sourcemap: true,
		External:  []string{"a", "b"},
		Define:    map[string]string{"DEBUG": "false", "NAME": `"env"`},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Merge() = %+v, want %+v", got, want)
	}
	if base.Define["NAME"] != `"base"` {
		t.Error("Merge() modified the receiver's defines")
	}
}

func TestOptions_Apply(t *testing.T) {
	t.Parallel()

	var opts api.BuildOptions
	err := Options{
		Platform:  "node",
		Format:    "CJS",
		Target:    "node16",
		Minify:    true,
		Sourcemap: true,
		External:  []string{"@citizenfx/server"},
	}.apply(&opts)
	if err != nil {
		t.Fatalf("apply() error: %v", err)
	}

	if opts.Platform != api.PlatformNode || opts.Format != api.FormatCommonJS {
		t.Errorf("platform/format = %v/%v", opts.Platform, opts.Format)
	}
	if !reflect.DeepEqual(opts.Engines, []api.Engine{{Name: api.EngineNode, Version: "16"}}) {
		t.Errorf("Engines = %+v", opts.Engines)
	}
	if !opts.MinifyWhitespace || !opts.MinifyIdentifiers || !opts.MinifySyntax {
		t.Error("Minify did not enable all minifiers")
	}
	if opts.Sourcemap != api.SourceMapLinked {
		t.Errorf("Sourcemap = %v", opts.Sourcemap)
	}
}

func TestOptions_ApplyRejectsUnknownValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		opts Options
	}{
		{"platform", Options{Platform: "deno"}},
		{"format", Options{Format: "umd"}},
		{"target", Options{Target: "netscape4"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if err := tt.opts.apply(&api.BuildOptions{}); err == nil {
				t.Errorf("apply(%+v): expected error", tt.opts)
			}
		})
	}
}

func TestParseTarget(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		target  api.Target
		engines []api.Engine
		wantErr bool
	}{
		{in: "es2021", target: api.ES2021},
		{in: "ESNext", target: api.ESNext},
		{in: "node16", engines: []api.Engine{{Name: api.EngineNode, Version: "16"}}},
		{
			in:     "es2020, chrome90, firefox 88",
			target: api.ES2020,
			// "firefox 88" has a space and is rejected below.
			wantErr: true,
		},
		{
			in:     "es2019,chrome90,safari14.1",
			target: api.ES2019,
			engines: []api.Engine{
				{Name: api.EngineChrome, Version: "90"},
				{Name: api.EngineSafari, Version: "14.1"},
			},
		},
		{in: "es2020,es2021", wantErr: true},
		{in: "lynx2", wantErr: true},
		{in: ",,"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()

			target, engs, err := parseTarget(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Errorf("parseTarget(%q): expected error", tt.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseTarget(%q) error: %v", tt.in, err)
			}
			if target != tt.target || !reflect.DeepEqual(engs, tt.engines) {
				t.Errorf("parseTarget(%q) = %v, %+v; want %v, %+v", tt.in, target, engs, tt.target, tt.engines)
			}
		})
	}
}
