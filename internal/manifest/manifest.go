// SPDX-License-Identifier: MPL-2.0

// Package manifest renders a resource's fxmanifest.lua from its package
// metadata.
package manifest

import (
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/fxkit/fxkit/internal/pkgjson"
)

const (
	// DefaultPath is where Write puts the manifest when no path is given.
	DefaultPath = "fxmanifest.lua"
	// DefaultFXVersion is the fx_version written unless metadata overrides it.
	DefaultFXVersion = "cerulean"
	// DefaultGame is the game written unless metadata overrides it.
	DefaultGame = "gta5"
)

var quoteEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`, "\n", `\n`)

type (
	// Resource lists the files and extra manifest fields of a resource.
	Resource struct {
		ClientScripts []string
		ServerScripts []string
		Files         []string
		Dependencies  []string
		// Metadata adds `key 'value'` fields after the built-in ones. A key
		// naming a built-in field replaces its value in place.
		Metadata map[string]string
	}

	field struct {
		key   string
		value string
	}
)

// Generate renders the manifest text.
//
// Fields with an empty value are omitted. A list block is written only when
// its first entry is non-empty, and empty entries inside it are skipped.
func Generate(meta *pkgjson.Package, res Resource) string {
	if meta == nil {
		meta = &pkgjson.Package{}
	}

	fields := []field{
		{"name", meta.Name},
		{"author", meta.Author.String()},
		{"version", meta.Version},
		{"license", meta.License},
		{"repository", meta.Repository.URL},
		{"description", meta.Description},
		{"fx_version", DefaultFXVersion},
		{"game", DefaultGame},
	}

	for _, key := range slices.Sorted(maps.Keys(res.Metadata)) {
		i := slices.IndexFunc(fields, func(f field) bool { return f.key == key })
		if i >= 0 {
			fields[i].value = res.Metadata[key]
			continue
		}
		fields = append(fields, field{key, res.Metadata[key]})
	}

	var b strings.Builder
	for _, f := range fields {
		if f.value != "" {
			fmt.Fprintf(&b, "%s '%s'\n", f.key, quoteEscaper.Replace(f.value))
		}
	}

	writeList(&b, "files", res.Files)
	writeList(&b, "dependencies", res.Dependencies)
	writeList(&b, "client_scripts", res.ClientScripts)
	writeList(&b, "server_scripts", res.ServerScripts)

	return b.String()
}

// Write generates the manifest and writes it to path.
func Write(path string, meta *pkgjson.Package, res Resource) (string, error) {
	output := Generate(meta, res)
	if err := os.WriteFile(path, []byte(output), 0o644); err != nil {
		return "", fmt.Errorf("write manifest %s: %w", path, err)
	}
	return output, nil
}

func writeList(b *strings.Builder, name string, values []string) {
	if len(values) == 0 || values[0] == "" {
		return
	}

	fmt.Fprintf(b, "\n%s {", name)
	for _, v := range values {
		if v != "" {
			fmt.Fprintf(b, "\n\t'%s',", quoteEscaper.Replace(v))
		}
	}
	b.WriteString("\n}\n")
}
