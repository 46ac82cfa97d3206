// SPDX-License-Identifier: MPL-2.0

package tsprogram

import (
	"slices"
	"strings"
)

// maxInferDepth bounds identifier-to-initializer chasing during return type
// inference.
const maxInferDepth = 8

// inference is the state of one return type inference: how deep it has
// chased expressions and which functions are being inferred.
type inference struct {
	depth  int
	active []Node
}

func (in inference) deeper() inference {
	in.depth++
	return in
}

// enter marks fn as being inferred. It reports false when fn is already on
// the stack, which happens for functions that return themselves directly or
// through other functions.
func (in inference) enter(fn Node) (inference, bool) {
	if slices.ContainsFunc(in.active, fn.Same) {
		return in, false
	}
	in.active = append(slices.Clip(in.active), fn)
	in.depth++
	return in, true
}

const typeAny = "any"

type (
	// Parameter is one declared parameter of a signature.
	Parameter struct {
		// Name is the binding text (an identifier or destructuring pattern).
		Name string
		// Text is the whole declaration, e.g. "id?: number = 1", with
		// whitespace runs collapsed.
		Text string
		Node Node
	}

	// Signature describes a function-like declaration.
	Signature struct {
		Declaration Node
		Parameters  []Parameter
		// ReturnType is the declared return type, or a type inferred from
		// the body's return statements when no annotation is present.
		ReturnType string
	}
)

func isFunctionLikeKind(kind string) bool {
	switch kind {
	case KindArrowFunction, KindFunctionExpression, KindFunctionLegacy, KindGeneratorFunction,
		KindFunctionDeclaration, KindGeneratorDecl, KindMethodDefinition, "function_signature":
		return true
	}
	return false
}

// FunctionLike returns the function node a declaration stands for: the node
// itself when it is function-like, or the initializer of a variable
// declarator when that initializer is function-like.
func FunctionLike(decl Node) (Node, bool) {
	decl = decl.Unwrap()
	if isFunctionLikeKind(decl.Kind()) {
		return decl, true
	}
	if decl.Kind() == KindVariableDeclarator {
		value := decl.Field("value").Unwrap()
		if isFunctionLikeKind(value.Kind()) {
			return value, true
		}
	}
	return Node{}, false
}

// SignatureFromDeclaration builds the signature of a function-like
// declaration (see FunctionLike).
func (p *Program) SignatureFromDeclaration(decl Node) (*Signature, bool) {
	fn, ok := FunctionLike(decl)
	if !ok {
		return nil, false
	}
	return p.signature(fn, inference{}), true
}

func (p *Program) signature(fn Node, in inference) *Signature {
	return &Signature{
		Declaration: fn,
		Parameters:  parameters(fn),
		ReturnType:  p.returnType(fn, in),
	}
}

func parameters(fn Node) []Parameter {
	if single := fn.Field("parameter"); !single.IsZero() {
		return []Parameter{{Name: single.Text(), Text: single.Text(), Node: single}}
	}

	var out []Parameter
	for _, param := range fn.Field("parameters").NamedChildren() {
		if param.Kind() == KindComment {
			continue
		}
		name := param
		if pattern := param.Field("pattern"); !pattern.IsZero() {
			name = pattern
		}
		// A `this` parameter only types the receiver.
		if name.Kind() == "this" || name.Text() == "this" {
			continue
		}
		out = append(out, Parameter{
			Name: normalizeSpace(name.Text()),
			Text: normalizeSpace(param.Text()),
			Node: param,
		})
	}
	return out
}

func (p *Program) returnType(fn Node, in inference) string {
	if annotation := fn.Field("return_type"); !annotation.IsZero() {
		return typeAnnotationText(annotation)
	}

	inferred := typeAny
	if in, ok := in.enter(fn); ok {
		inferred = p.inferBody(fn, in)
	}
	switch {
	case isGenerator(fn):
		return "Generator<any, " + inferred + ", any>"
	case fn.HasChildKind("async"):
		return "Promise<" + inferred + ">"
	default:
		return inferred
	}
}

// typeAnnotationText renders a return or parameter type annotation.
func typeAnnotationText(annotation Node) string {
	switch annotation.Kind() {
	case KindTypePredicate:
		return "boolean"
	case KindAssertsAnnotation:
		return "void"
	case KindTypeAnnotation:
		if inner := annotation.NamedChildren(); len(inner) > 0 {
			return normalizeSpace(inner[len(inner)-1].Text())
		}
	}
	return normalizeSpace(strings.TrimPrefix(strings.TrimSpace(annotation.Text()), ":"))
}

func isGenerator(fn Node) bool {
	switch fn.Kind() {
	case KindGeneratorFunction, KindGeneratorDecl:
		return true
	case KindMethodDefinition:
		return fn.HasChildKind("*")
	}
	return false
}

func (p *Program) inferBody(fn Node, in inference) string {
	body := fn.Field("body")
	if body.IsZero() {
		return typeAny
	}
	if body.Kind() != KindStatementBlock {
		return p.inferExpr(body, in)
	}

	var types []string
	body.Walk(func(n Node) bool {
		if isFunctionLikeKind(n.Kind()) || n.Kind() == "class" || n.Kind() == KindClassDeclaration {
			return false
		}
		if n.Kind() != KindReturnStatement {
			return true
		}
		for _, c := range n.NamedChildren() {
			if c.Kind() != KindComment {
				types = append(types, p.inferExpr(c, in))
				break
			}
		}
		return false
	})

	return unionOf(types)
}

func unionOf(types []string) string {
	if len(types) == 0 {
		return "void"
	}
	var distinct []string
	for _, t := range types {
		if t == typeAny {
			return typeAny
		}
		if !slices.Contains(distinct, t) {
			distinct = append(distinct, t)
		}
	}
	return strings.Join(distinct, " | ")
}

// inferExpr derives a type for the small set of expressions whose type is
// evident from syntax. Everything else is "any".
func (p *Program) inferExpr(e Node, in inference) string {
	if in.depth > maxInferDepth {
		return typeAny
	}

	switch e.Kind() {
	case "number":
		return "number"
	case KindString, KindTemplateString:
		return "string"
	case "true", "false":
		return "boolean"
	case "null":
		return "null"
	case "undefined":
		return "undefined"
	case "array":
		return "any[]"
	case "object":
		return "object"
	case "regex":
		return "RegExp"
	case "as_expression":
		inner := e.NamedChildren()
		if len(inner) == 2 {
			return normalizeSpace(inner[1].Text())
		}
		return typeAny
	case KindParenthesized, "satisfies_expression", "non_null_expression":
		if inner := e.NamedChildren(); len(inner) > 0 {
			return p.inferExpr(inner[0], in.deeper())
		}
		return typeAny
	case "unary_expression":
		switch e.Field("operator").Text() {
		case "!", "delete":
			return "boolean"
		case "typeof":
			return "string"
		case "void":
			return "undefined"
		case "-", "+", "~":
			return "number"
		}
		return typeAny
	case "update_expression":
		return "number"
	case "binary_expression":
		return p.inferBinary(e, in)
	case "new_expression":
		if ctor := e.Field("constructor"); ctor.Kind() == KindIdentifier {
			return ctor.Text()
		}
		return typeAny
	case KindArrowFunction, KindFunctionExpression, KindFunctionLegacy:
		return p.signature(e, in).TypeText()
	case KindIdentifier:
		return p.inferIdentifier(e, in)
	}
	return typeAny
}

func (p *Program) inferBinary(e Node, in inference) string {
	switch e.Field("operator").Text() {
	case "==", "!=", "===", "!==", "<", ">", "<=", ">=", "instanceof", "in":
		return "boolean"
	case "-", "*", "/", "%", "**", "&", "|", "^", "<<", ">>", ">>>":
		return "number"
	case "+":
		left := p.inferExpr(e.Field("left"), in.deeper())
		right := p.inferExpr(e.Field("right"), in.deeper())
		if left == "string" || right == "string" {
			return "string"
		}
		if left == "number" && right == "number" {
			return "number"
		}
	}
	return typeAny
}

func (p *Program) inferIdentifier(id Node, in inference) string {
	if id.Text() == "undefined" {
		return "undefined"
	}
	sym, ok := p.SymbolAtLocation(id)
	if !ok {
		return typeAny
	}
	decl := sym.Declaration
	switch sym.Kind {
	case SymbolParameter:
		if t := decl.Field("type"); !t.IsZero() {
			return typeAnnotationText(t)
		}
	case SymbolVariable:
		if decl.Kind() != KindVariableDeclarator {
			return typeAny
		}
		if t := decl.Field("type"); !t.IsZero() {
			return typeAnnotationText(t)
		}
		if value := decl.Field("value"); !value.IsZero() {
			return p.inferExpr(value, in.deeper())
		}
	}
	return typeAny
}

// TypeText renders the signature as a function type, e.g.
// "(a: number) => string".
func (s *Signature) TypeText() string {
	if s == nil {
		return typeAny
	}
	params := make([]string, len(s.Parameters))
	for i, param := range s.Parameters {
		params[i] = param.Text
	}
	return "(" + strings.Join(params, ", ") + ") => " + s.ReturnType
}
