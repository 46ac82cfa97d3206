// SPDX-License-Identifier: MPL-2.0

package fxdoc

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/fxkit/fxkit/internal/pkgjson"
)

const (
	// DTSFileName is the shared TypeScript declaration artifact.
	DTSFileName = "exports.d.ts"
	// LuaFileName is the shared Lua annotation artifact.
	LuaFileName = "exports.d.lua"

	maxConcurrentWrites = 8
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_$][\w$]*$`)

// Artifact is one file produced by Render, relative to the output directory.
type Artifact struct {
	Name    string
	Content string
}

// Render writes the documentation for records into outDir. With no records
// nothing is created. Otherwise all writes are issued as one batch and
// Render returns after every write has finished, with the first error.
func Render(ctx context.Context, records []ExportRecord, meta *pkgjson.Package, outDir string) error {
	if len(records) == 0 {
		return nil
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("create output directory %s: %w", outDir, err)
	}

	var pkgName string
	if meta != nil {
		pkgName = meta.Name
	}

	var g errgroup.Group
	g.SetLimit(maxConcurrentWrites)
	for _, a := range Artifacts(records, pkgName) {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			path := filepath.Join(outDir, a.Name)
			if err := os.WriteFile(path, []byte(a.Content), 0o644); err != nil {
				return fmt.Errorf("write %s: %w", path, err)
			}
			return nil
		})
	}
	return g.Wait()
}

// Artifacts builds the file set for records: one Markdown page per export
// name, then the two shared declaration files. When two records share a
// name, the later record's page is kept; both appear in the shared files.
func Artifacts(records []ExportRecord, pkgName string) []Artifact {
	artifacts := make([]Artifact, 0, len(records)+2)
	index := make(map[string]int, len(records))

	for _, r := range records {
		page := Artifact{Name: r.Name + ".md", Content: Markdown(r)}
		if i, ok := index[page.Name]; ok {
			artifacts[i] = page
			continue
		}
		index[page.Name] = len(artifacts)
		artifacts = append(artifacts, page)
	}

	return append(artifacts,
		Artifact{Name: DTSFileName, Content: DTS(records, pkgName)},
		Artifact{Name: LuaFileName, Content: Lua(records, pkgName)},
	)
}

// Markdown renders the documentation page of one export.
func Markdown(r ExportRecord) string {
	var b strings.Builder

	fmt.Fprintf(&b, "## %s\n%s\n\n", r.Name, r.Description)
	fmt.Fprintf(&b, "```ts\n%s\n```\n\n", r.SignatureText())
	b.WriteString("### Parameters\n\n")

	for i, p := range r.Parameters {
		if i > 0 {
			b.WriteString("\n")
		}
		typeText := p.TypeText
		if typeText == "" {
			typeText = "any"
		}
		fmt.Fprintf(&b, "- %s: `%s`", p.Name, typeText)
		if p.Doc != "" {
			fmt.Fprintf(&b, "\n  - %s", p.Doc)
		}
	}

	fmt.Fprintf(&b, "\n\n### Returns\n- %s\n", r.ReturnType)
	return b.String()
}

// DTS renders the CitizenExports interface declaring every export under
// the package name.
func DTS(records []ExportRecord, pkgName string) string {
	entries := make([]string, len(records))
	for i, r := range records {
		var entry string
		if r.Description != "" {
			entry = "/** " + r.Description + " */\n\t\t"
		}
		entries[i] = entry + propertyName(r.Name) + ": (" + r.paramsText() + ") => " + r.ReturnType + ";"
	}
	return "interface CitizenExports {\n\t\"" + pkgName + "\": {\n\t\t" +
		strings.Join(entries, "\n\t\t") + "\n\t}\n}"
}

// Lua renders the CitizenExports.<pkg> class annotation with one field per
// export.
func Lua(records []ExportRecord, pkgName string) string {
	var b strings.Builder
	b.WriteString("---@class CitizenExports." + pkgName + "\n")

	for i, r := range records {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString("---@field " + r.Name + " fun(self: self")
		if params := r.paramsText(); params != "" {
			b.WriteString(", " + params)
		}
		b.WriteString("): " + r.ReturnType)
		if r.Description != "" {
			b.WriteString(" " + strings.Join(strings.Fields(r.Description), " "))
		}
	}

	b.WriteString("\n")
	return b.String()
}

func propertyName(name string) string {
	if identifierPattern.MatchString(name) {
		return name
	}
	return fmt.Sprintf("%q", name)
}
