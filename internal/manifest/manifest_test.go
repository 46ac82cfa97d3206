// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"path/filepath"
	"testing"

	"github.com/fxkit/fxkit/internal/pkgjson"
	"github.com/fxkit/fxkit/internal/testutil"
)

func TestGenerate(t *testing.T) {
	t.Parallel()

	meta := &pkgjson.Package{
		Name:        "my-resource",
		Author:      "Jane <jane@example.com>",
		Version:     "1.2.0",
		License:     "MIT",
		Repository:  pkgjson.Repository{URL: "https://example.com/my-resource.git"},
		Description: "",
	}
	res := Resource{
		ClientScripts: []string{"dist/client.js"},
		ServerScripts: []string{"dist/server.js", "", "dist/extra.js"},
		Files:         []string{"", "ignored.json"},
		Metadata: map[string]string{
			"node_version": "22",
			"game":         "rdr3",
			"lua54":        "yes",
		},
	}

	want := `name 'my-resource'
author 'Jane <jane@example.com>'
version '1.2.0'
license 'MIT'
repository 'https://example.com/my-resource.git'
fx_version 'cerulean'
game 'rdr3'
lua54 'yes'
node_version '22'

client_scripts {
	'dist/client.js',
}

server_scripts {
	'dist/server.js',
	'dist/extra.js',
}
`

	if got := Generate(meta, res); got != want {
		t.Errorf("Generate() =\n%s\nwant\n%s", got, want)
	}
}

func TestGenerate_Minimal(t *testing.T) {
	t.Parallel()

	want := "fx_version 'cerulean'\ngame 'gta5'\n"
	if got := Generate(nil, Resource{}); got != want {
		t.Errorf("Generate(nil) = %q, want %q", got, want)
	}
}

func TestGenerate_EmptyMetadataRemovesField(t *testing.T) {
	t.Parallel()

	got := Generate(&pkgjson.Package{Name: "x"}, Resource{Metadata: map[string]string{"fx_version": ""}})
	if want := "name 'x'\ngame 'gta5'\n"; got != want {
		t.Errorf("Generate() = %q, want %q", got, want)
	}
}

func TestGenerate_EscapesQuotes(t *testing.T) {
	t.Parallel()

	got := Generate(&pkgjson.Package{Description: `It's a "test"`}, Resource{Dependencies: []string{`o'brien`}})
	want := "description 'It\\'s a \"test\"'\nfx_version 'cerulean'\ngame 'gta5'\n\ndependencies {\n\t'o\\'brien',\n}\n"
	if got != want {
		t.Errorf("Generate() = %q, want %q", got, want)
	}
}

func TestWrite(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), DefaultPath)
	out, err := Write(path, &pkgjson.Package{Name: "res"}, Resource{Files: []string{"data.json"}})
	if err != nil {
		t.Fatalf("Write() error: %v", err)
	}
	if got := testutil.MustReadFile(t, path); got != out {
		t.Errorf("file content = %q, want returned output %q", got, out)
	}

	if _, err := Write(filepath.Join(t.TempDir(), "missing", DefaultPath), nil, Resource{}); err == nil {
		t.Error("Write() into a missing directory: expected error")
	}
}
