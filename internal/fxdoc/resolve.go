// SPDX-License-Identifier: MPL-2.0

package fxdoc

import "github.com/fxkit/fxkit/internal/tsprogram"

const (
	// Unsupported covers every reference shape that has no signature:
	// member access, call results, conditionals, literals, a missing
	// argument. Wrapped references such as (fn), fn as T and fn! are
	// unsupported too.
	Unsupported ReferenceKind = iota
	// FunctionLikeExpression is an inline arrow function or function
	// expression.
	FunctionLikeExpression
	// IdentifierReference is a bare identifier naming a binding.
	IdentifierReference
)

// ReferenceKind is the shape of the function reference passed to exports.
type ReferenceKind int

// String returns the kind's name.
func (k ReferenceKind) String() string {
	switch k {
	case FunctionLikeExpression:
		return "function-like expression"
	case IdentifierReference:
		return "identifier"
	default:
		return "unsupported"
	}
}

// Classify determines the shape of ref.
func Classify(ref tsprogram.Node) ReferenceKind {
	switch ref.Kind() {
	case tsprogram.KindArrowFunction, tsprogram.KindFunctionExpression,
		tsprogram.KindFunctionLegacy, tsprogram.KindGeneratorFunction:
		return FunctionLikeExpression
	case tsprogram.KindIdentifier:
		return IdentifierReference
	default:
		return Unsupported
	}
}

// Resolve returns the signature of the function ref refers to.
//
// An identifier resolves through its binding: the binding's own declaration
// when that is function-like, otherwise the declaration at the end of its
// import/export alias chain.
func Resolve(prog *tsprogram.Program, ref tsprogram.Node) (*tsprogram.Signature, bool) {
	switch Classify(ref) {
	case FunctionLikeExpression:
		return prog.SignatureFromDeclaration(ref)

	case IdentifierReference:
		sym, ok := prog.SymbolAtLocation(ref)
		if !ok {
			return nil, false
		}
		if sig, ok := prog.SignatureFromDeclaration(sym.Declaration); ok {
			return sig, true
		}
		target, ok := prog.AliasedSymbol(sym)
		if !ok {
			return nil, false
		}
		return prog.SignatureFromDeclaration(target.Declaration)

	default:
		return nil, false
	}
}
