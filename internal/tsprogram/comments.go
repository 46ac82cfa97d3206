// SPDX-License-Identifier: MPL-2.0

package tsprogram

import "slices"

// LeadingComments returns the raw text of the comments directly preceding
// decl, in source order. When decl itself has none, the search moves out to
// the statement that wraps it (an initializer's declarator, a declarator's
// const/let/var statement, an export statement), so that
//
//	/** Adds. */
//	export const add = (a: number, b: number) => a + b;
//
// documents the arrow function. A comment on the same line as the preceding
// code belongs to that code and is not returned.
func LeadingComments(decl Node) []string {
	for target := decl; !target.IsZero(); {
		if comments := precedingComments(target); len(comments) > 0 {
			return comments
		}
		parent := target.Parent()
		if !wrapsForComments(parent, target) {
			return nil
		}
		target = parent
	}
	return nil
}

func precedingComments(n Node) []string {
	var run []Node
	prev := n.PrevSibling()
	for prev.Kind() == KindComment {
		run = append(run, prev)
		prev = prev.PrevSibling()
	}
	if len(run) == 0 {
		return nil
	}
	slices.Reverse(run)

	if !prev.IsZero() {
		for len(run) > 0 && run[0].startRow() == prev.endRow() {
			run = run[1:]
		}
	}

	out := make([]string, len(run))
	for i, c := range run {
		out[i] = c.Text()
	}
	return out
}

// wrapsForComments reports whether a comment attached to parent documents
// child.
func wrapsForComments(parent, child Node) bool {
	switch parent.Kind() {
	case KindExportStatement, "ambient_declaration":
		return true
	case KindLexicalDeclaration, KindVariableDeclaration:
		return child.Kind() == KindVariableDeclarator
	case KindVariableDeclarator:
		return parent.Field("value").Same(child)
	case KindParenthesized, "as_expression", "satisfies_expression":
		return true
	}
	return false
}
