// SPDX-License-Identifier: MPL-2.0

package fxdoc

import (
	"fmt"
	"strings"
)

const (
	// SeverityWarning indicates a call site or file that was skipped.
	SeverityWarning Severity = "warning"
	// SeverityError indicates a non-fatal failure while reading sources.
	SeverityError Severity = "error"

	// CodeExportUnresolved marks an export call site whose function
	// reference has no signature.
	CodeExportUnresolved = "export_unresolved"
	// CodeSourceParseError marks a program file tree-sitter could only
	// parse with error recovery.
	CodeSourceParseError = "source_parse_error"
	// CodeSourceUnreadable marks a listed file that could not be read.
	CodeSourceUnreadable = "source_unreadable"
)

type (
	// ExportRecord is one documented export.
	ExportRecord struct {
		Name        string
		Description string
		Parameters  []ParameterInfo
		ReturnType  string
	}

	// ParameterInfo describes one parameter of an export.
	ParameterInfo struct {
		// Name is the part of Text before the first ": ".
		Name string
		// TypeText is the part of Text after the first ": ", or empty.
		TypeText string
		// Doc is the first line of the parameter's @param tag, if any.
		Doc string
		// Text is the parameter's declaration text.
		Text string
	}

	// Severity represents diagnostic severity.
	Severity string

	// Diagnostic is a non-fatal finding of a run. Diagnostics never change
	// which records are produced.
	Diagnostic struct {
		Severity Severity
		// Code is a machine-readable identifier (e.g. "export_unresolved").
		Code    string
		Message string
		Path    string
		// Line is 1-based; 0 when the diagnostic concerns a whole file.
		Line int
	}
)

// newParameterInfo splits a declaration text such as "id?: number" into
// name and type.
func newParameterInfo(text, doc string) ParameterInfo {
	name, typeText, _ := strings.Cut(text, ": ")
	return ParameterInfo{Name: name, TypeText: typeText, Doc: doc, Text: text}
}

// String formats the diagnostic as "path:line: message [code]".
func (d Diagnostic) String() string {
	loc := d.Path
	if d.Line > 0 {
		loc = fmt.Sprintf("%s:%d", d.Path, d.Line)
	}
	return fmt.Sprintf("%s: %s [%s]", loc, d.Message, d.Code)
}

// SignatureText renders the record's call signature, e.g.
// "add(a: number, b: number) => number".
func (r ExportRecord) SignatureText() string {
	return r.Name + "(" + r.paramsText() + ") => " + r.ReturnType
}

func (r ExportRecord) paramsText() string {
	texts := make([]string, len(r.Parameters))
	for i, p := range r.Parameters {
		texts[i] = p.Text
	}
	return strings.Join(texts, ", ")
}
