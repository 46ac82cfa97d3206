// SPDX-License-Identifier: MPL-2.0

package fxdoc

import (
	"fmt"
	"strings"

	"github.com/fxkit/fxkit/internal/tsprogram"
)

// exportsIdentifier is the callee of the registration pattern.
const exportsIdentifier = "exports"

// Discover finds every `exports("<name>", fn)` call in the program's
// non-declaration files and builds a record for each call whose function
// reference resolves to a signature. Records follow program file order and,
// within a file, a pre-order walk of the syntax tree.
//
// Call sites that do not resolve are skipped and reported as diagnostics.
func Discover(prog *tsprogram.Program) ([]ExportRecord, []Diagnostic) {
	var (
		records     []ExportRecord
		diagnostics []Diagnostic
	)

	for _, path := range prog.Unreadable() {
		diagnostics = append(diagnostics, Diagnostic{
			Severity: SeverityError,
			Code:     CodeSourceUnreadable,
			Message:  "source file could not be read",
			Path:     path,
		})
	}

	for _, file := range prog.SourceFiles() {
		if file.IsDeclarationFile {
			continue
		}
		if file.HasSyntaxErrors() {
			diagnostics = append(diagnostics, Diagnostic{
				Severity: SeverityWarning,
				Code:     CodeSourceParseError,
				Message:  "file contains syntax errors; exports in damaged regions may be missed",
				Path:     file.Path,
			})
		}

		file.Root().Walk(func(n tsprogram.Node) bool {
			name, ref, ok := matchExportCall(n)
			if !ok {
				return true
			}

			sig, ok := Resolve(prog, ref)
			if !ok {
				diagnostics = append(diagnostics, Diagnostic{
					Severity: SeverityWarning,
					Code:     CodeExportUnresolved,
					Message:  fmt.Sprintf("export %q skipped: %s reference has no function signature", name, Classify(ref)),
					Path:     file.Path,
					Line:     n.Line(),
				})
				return true
			}

			records = append(records, newExportRecord(name, sig))
			return true
		})
	}

	return records, diagnostics
}

// matchExportCall reports whether n is a call of the bare identifier
// `exports` whose first argument is a string literal, returning that string
// and the (possibly absent) second argument.
func matchExportCall(n tsprogram.Node) (string, tsprogram.Node, bool) {
	if n.Kind() != tsprogram.KindCallExpression {
		return "", tsprogram.Node{}, false
	}
	callee := n.Field("function")
	if callee.Kind() != tsprogram.KindIdentifier || callee.Text() != exportsIdentifier {
		return "", tsprogram.Node{}, false
	}

	arguments := n.Field("arguments")
	if arguments.Kind() != tsprogram.KindArguments {
		return "", tsprogram.Node{}, false
	}
	var args []tsprogram.Node
	for _, a := range arguments.NamedChildren() {
		if a.Kind() != tsprogram.KindComment {
			args = append(args, a)
		}
	}
	if len(args) == 0 {
		return "", tsprogram.Node{}, false
	}

	name, ok := args[0].StringValue()
	if !ok {
		return "", tsprogram.Node{}, false
	}
	if len(args) < 2 {
		return name, tsprogram.Node{}, true
	}
	return name, args[1], true
}

func newExportRecord(name string, sig *tsprogram.Signature) ExportRecord {
	comments := tsprogram.LeadingComments(sig.Declaration)
	docs := ParamDocs(comments)

	params := make([]ParameterInfo, 0, len(sig.Parameters))
	for _, p := range sig.Parameters {
		params = append(params, newParameterInfo(p.Text, docs[strings.TrimPrefix(p.Name, "...")]))
	}

	return ExportRecord{
		Name:        name,
		Description: Description(comments),
		Parameters:  params,
		ReturnType:  sig.ReturnType,
	}
}
