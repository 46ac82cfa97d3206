// SPDX-License-Identifier: MPL-2.0

package tsprogram

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// Tree-sitter node kinds used by the program view.
const (
	KindProgram             = "program"
	KindComment             = "comment"
	KindIdentifier          = "identifier"
	KindString              = "string"
	KindTemplateString      = "template_string"
	KindCallExpression      = "call_expression"
	KindMemberExpression    = "member_expression"
	KindArguments           = "arguments"
	KindParenthesized       = "parenthesized_expression"
	KindArrowFunction       = "arrow_function"
	KindFunctionExpression  = "function_expression"
	KindFunctionLegacy      = "function"
	KindGeneratorFunction   = "generator_function"
	KindFunctionDeclaration = "function_declaration"
	KindGeneratorDecl       = "generator_function_declaration"
	KindMethodDefinition    = "method_definition"
	KindClassDeclaration    = "class_declaration"
	KindStatementBlock      = "statement_block"
	KindReturnStatement     = "return_statement"
	KindLexicalDeclaration  = "lexical_declaration"
	KindVariableDeclaration = "variable_declaration"
	KindVariableDeclarator  = "variable_declarator"
	KindImportStatement     = "import_statement"
	KindImportClause        = "import_clause"
	KindNamedImports        = "named_imports"
	KindImportSpecifier     = "import_specifier"
	KindNamespaceImport     = "namespace_import"
	KindExportStatement     = "export_statement"
	KindExportClause        = "export_clause"
	KindExportSpecifier     = "export_specifier"
	KindRequiredParameter   = "required_parameter"
	KindOptionalParameter   = "optional_parameter"
	KindTypeAnnotation      = "type_annotation"
	KindTypePredicate       = "type_predicate_annotation"
	KindAssertsAnnotation   = "asserts_annotation"
)

// Node is a syntax node together with the file it belongs to.
// The zero Node is "absent"; check with IsZero.
type Node struct {
	file *SourceFile
	n    *sitter.Node
}

func newNode(file *SourceFile, n *sitter.Node) Node {
	if n == nil || n.IsNull() {
		return Node{}
	}
	return Node{file: file, n: n}
}

// IsZero reports whether the node is absent.
func (n Node) IsZero() bool { return n.n == nil }

// File returns the source file containing the node.
func (n Node) File() *SourceFile { return n.file }

// Kind returns the grammar kind, or "" for an absent node.
func (n Node) Kind() string {
	if n.n == nil {
		return ""
	}
	return n.n.Type()
}

// Text returns the node's source text.
func (n Node) Text() string {
	if n.n == nil {
		return ""
	}
	return string(n.file.content[n.n.StartByte():n.n.EndByte()])
}

// Line returns the 1-based line the node starts on.
func (n Node) Line() int {
	if n.n == nil {
		return 0
	}
	return int(n.n.StartPoint().Row) + 1
}

func (n Node) startRow() uint32 {
	if n.n == nil {
		return 0
	}
	return n.n.StartPoint().Row
}

func (n Node) endRow() uint32 {
	if n.n == nil {
		return 0
	}
	return n.n.EndPoint().Row
}

// Parent returns the enclosing node.
func (n Node) Parent() Node {
	if n.n == nil {
		return Node{}
	}
	return newNode(n.file, n.n.Parent())
}

// Field returns the child stored under a grammar field name.
func (n Node) Field(name string) Node {
	if n.n == nil {
		return Node{}
	}
	return newNode(n.file, n.n.ChildByFieldName(name))
}

// Children returns all children, including anonymous tokens.
func (n Node) Children() []Node {
	if n.n == nil {
		return nil
	}
	count := int(n.n.ChildCount())
	out := make([]Node, 0, count)
	for i := range count {
		if c := newNode(n.file, n.n.Child(i)); !c.IsZero() {
			out = append(out, c)
		}
	}
	return out
}

// NamedChildren returns the named children.
func (n Node) NamedChildren() []Node {
	if n.n == nil {
		return nil
	}
	count := int(n.n.NamedChildCount())
	out := make([]Node, 0, count)
	for i := range count {
		if c := newNode(n.file, n.n.NamedChild(i)); !c.IsZero() {
			out = append(out, c)
		}
	}
	return out
}

// HasChildKind reports whether any direct child (named or not) has kind.
func (n Node) HasChildKind(kind string) bool {
	for _, c := range n.Children() {
		if c.Kind() == kind {
			return true
		}
	}
	return false
}

// PrevSibling returns the preceding sibling, including anonymous tokens.
func (n Node) PrevSibling() Node {
	if n.n == nil {
		return Node{}
	}
	return newNode(n.file, n.n.PrevSibling())
}

// Same reports whether both values denote the same syntax node.
func (n Node) Same(other Node) bool {
	if n.n == nil || other.n == nil {
		return n.n == nil && other.n == nil
	}
	return n.file == other.file &&
		n.n.StartByte() == other.n.StartByte() &&
		n.n.EndByte() == other.n.EndByte() &&
		n.n.Type() == other.n.Type()
}

// Walk visits n and its named descendants in pre-order depth-first order.
// Returning false from visit skips the node's children.
func (n Node) Walk(visit func(Node) bool) {
	if n.n == nil {
		return
	}
	if !visit(n) {
		return
	}
	for _, c := range n.NamedChildren() {
		c.Walk(visit)
	}
}

// StringValue returns the value of a string literal node.
func (n Node) StringValue() (string, bool) {
	if n.Kind() != KindString {
		return "", false
	}
	text := n.Text()
	if len(text) < 2 {
		return "", false
	}
	return unescapeJS(text[1 : len(text)-1]), true
}

// Unwrap peels parentheses, non-null assertions and satisfies/as casts.
func (n Node) Unwrap() Node {
	for {
		switch n.Kind() {
		case KindParenthesized, "non_null_expression", "satisfies_expression", "as_expression":
			inner := n.NamedChildren()
			if len(inner) == 0 {
				return n
			}
			n = inner[0]
		default:
			return n
		}
	}
}

var jsEscapes = strings.NewReplacer(
	`\\`, `\`,
	`\"`, `"`,
	`\'`, `'`,
	"\\`", "`",
	`\n`, "\n",
	`\r`, "\r",
	`\t`, "\t",
	`\0`, "\x00",
)

func unescapeJS(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	return jsEscapes.Replace(s)
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
