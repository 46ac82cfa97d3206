// SPDX-License-Identifier: MPL-2.0

package tsprogram

import "fmt"

// maxAliasDepth bounds how many import/re-export hops AliasedSymbol follows.
const maxAliasDepth = 32

const (
	// SymbolFunction is a function declaration.
	SymbolFunction SymbolKind = iota + 1
	// SymbolVariable is a const/let/var binding or a default-exported value.
	SymbolVariable
	// SymbolParameter is a function parameter.
	SymbolParameter
	// SymbolClass is a class declaration.
	SymbolClass
	// SymbolImport aliases an export of another module (imports and
	// `export { x } from "..."` re-exports).
	SymbolImport
	// SymbolLocalExport aliases a binding of the same module
	// (`export { a as b }`, `export default a`).
	SymbolLocalExport
)

type (
	// SymbolKind classifies what a Symbol binds.
	SymbolKind int

	// Symbol is a named binding and the node that declares it.
	Symbol struct {
		Name        string
		Kind        SymbolKind
		Declaration Node

		// module is the specifier of an import or re-export.
		module string
		// target is the imported name ("default" or "*" included) for
		// SymbolImport, and the local binding name for SymbolLocalExport.
		target string
	}
)

// String returns the kind's name.
func (k SymbolKind) String() string {
	switch k {
	case SymbolFunction:
		return "function"
	case SymbolVariable:
		return "variable"
	case SymbolParameter:
		return "parameter"
	case SymbolClass:
		return "class"
	case SymbolImport:
		return "import"
	case SymbolLocalExport:
		return "export alias"
	default:
		return fmt.Sprintf("SymbolKind(%d)", int(k))
	}
}

// IsAlias reports whether the symbol stands for another symbol.
func (s *Symbol) IsAlias() bool {
	return s.Kind == SymbolImport || s.Kind == SymbolLocalExport
}

// File returns the file that declares the symbol.
func (s *Symbol) File() *SourceFile { return s.Declaration.File() }

// SymbolAtLocation resolves an identifier to the binding it refers to,
// searching enclosing scopes from the innermost outwards.
func (p *Program) SymbolAtLocation(id Node) (*Symbol, bool) {
	if id.Kind() != KindIdentifier {
		return nil, false
	}
	name := id.Text()
	for scope := id.Parent(); !scope.IsZero(); scope = scope.Parent() {
		if sym, ok := lookupInScope(scope, name); ok {
			return sym, true
		}
	}
	return nil, false
}

// AliasedSymbol follows import and export aliases until it reaches a
// non-alias symbol. It fails when a hop leaves the program, reaches a
// namespace import, or cycles.
func (p *Program) AliasedSymbol(sym *Symbol) (*Symbol, bool) {
	seen := make(map[string]bool)
	for range maxAliasDepth {
		switch sym.Kind {
		case SymbolImport:
			if sym.target == "*" {
				return nil, false
			}
			target, ok := p.moduleFile(sym.File(), sym.module)
			if !ok {
				return nil, false
			}
			next, ok := p.findExport(target, sym.target, seen)
			if !ok {
				return nil, false
			}
			sym = next
		case SymbolLocalExport:
			next, ok := lookupInScope(sym.File().Root(), sym.target)
			if !ok {
				return nil, false
			}
			sym = next
		default:
			return sym, true
		}
	}
	return nil, false
}

// moduleFile returns the program file a specifier in from refers to.
func (p *Program) moduleFile(from *SourceFile, spec string) (*SourceFile, bool) {
	path, ok := resolveModule(p.opts, from.Path, spec)
	if !ok {
		return nil, false
	}
	f, ok := p.byPath[path]
	return f, ok
}

// findExport looks up the symbol f exports under name.
func (p *Program) findExport(f *SourceFile, name string, seen map[string]bool) (*Symbol, bool) {
	key := f.Path + "\x00" + name
	if seen[key] {
		return nil, false
	}
	seen[key] = true

	var starSources []string
	for _, stmt := range f.Root().NamedChildren() {
		if stmt.Kind() != KindExportStatement {
			continue
		}

		source, hasSource := stmt.Field("source").StringValue()
		isDefault := stmt.HasChildKind("default")

		if decl := stmt.Field("declaration"); !decl.IsZero() {
			if isDefault {
				if name == "default" {
					if sym, ok := declarationSymbol(decl); ok {
						return sym, true
					}
				}
				continue
			}
			if sym, ok := bindStatement(decl, name); ok {
				return sym, true
			}
			continue
		}

		if value := stmt.Field("value"); !value.IsZero() && isDefault {
			if name != "default" {
				continue
			}
			if value.Kind() == KindIdentifier {
				return &Symbol{Name: name, Kind: SymbolLocalExport, Declaration: value, target: value.Text()}, true
			}
			return &Symbol{Name: name, Kind: SymbolVariable, Declaration: value}, true
		}

		var clause Node
		for _, c := range stmt.NamedChildren() {
			if c.Kind() == KindExportClause {
				clause = c
			}
		}

		if clause.IsZero() {
			if hasSource && stmt.HasChildKind("*") && !stmt.HasChildKind("namespace_export") {
				starSources = append(starSources, source)
			}
			continue
		}

		for _, spec := range clause.NamedChildren() {
			if spec.Kind() != KindExportSpecifier {
				continue
			}
			local := moduleExportName(spec.Field("name"))
			exported := local
			if alias := spec.Field("alias"); !alias.IsZero() {
				exported = moduleExportName(alias)
			}
			if exported != name {
				continue
			}
			if hasSource {
				return &Symbol{Name: name, Kind: SymbolImport, Declaration: spec, module: source, target: local}, true
			}
			return &Symbol{Name: name, Kind: SymbolLocalExport, Declaration: spec, target: local}, true
		}
	}

	if name == "default" {
		return nil, false
	}
	for _, source := range starSources {
		target, ok := p.moduleFile(f, source)
		if !ok {
			continue
		}
		if sym, ok := p.findExport(target, name, seen); ok {
			return sym, true
		}
	}
	return nil, false
}

// lookupInScope finds a binding for name declared directly in scope.
func lookupInScope(scope Node, name string) (*Symbol, bool) {
	if isFunctionLikeKind(scope.Kind()) {
		if sym, ok := bindParameter(scope, name); ok {
			return sym, true
		}
		// A named function expression is visible inside its own body.
		if scope.Kind() != KindFunctionDeclaration && scope.Field("name").Text() == name {
			return &Symbol{Name: name, Kind: SymbolFunction, Declaration: scope}, true
		}
		return nil, false
	}

	switch scope.Kind() {
	case KindProgram, KindStatementBlock, "switch_body", "class_static_block":
		for _, stmt := range scope.NamedChildren() {
			if sym, ok := bindStatement(stmt, name); ok {
				return sym, true
			}
		}
	}
	return nil, false
}

// bindStatement returns the symbol stmt declares under name, if any.
func bindStatement(stmt Node, name string) (*Symbol, bool) {
	switch stmt.Kind() {
	case KindFunctionDeclaration, KindGeneratorDecl, "function_signature":
		if stmt.Field("name").Text() == name {
			return &Symbol{Name: name, Kind: SymbolFunction, Declaration: stmt}, true
		}
	case KindClassDeclaration, "abstract_class_declaration":
		if stmt.Field("name").Text() == name {
			return &Symbol{Name: name, Kind: SymbolClass, Declaration: stmt}, true
		}
	case KindLexicalDeclaration, KindVariableDeclaration:
		for _, decl := range stmt.NamedChildren() {
			if decl.Kind() != KindVariableDeclarator {
				continue
			}
			target := decl.Field("name")
			if target.Kind() == KindIdentifier {
				if target.Text() == name {
					return &Symbol{Name: name, Kind: SymbolVariable, Declaration: decl}, true
				}
				continue
			}
			if id, ok := findPatternBinding(target, name); ok {
				return &Symbol{Name: name, Kind: SymbolVariable, Declaration: id}, true
			}
		}
	case KindImportStatement:
		return bindImport(stmt, name)
	case KindExportStatement:
		if decl := stmt.Field("declaration"); !decl.IsZero() {
			return bindStatement(decl, name)
		}
	case "ambient_declaration":
		for _, c := range stmt.NamedChildren() {
			if sym, ok := bindStatement(c, name); ok {
				return sym, true
			}
		}
	}
	return nil, false
}

// declarationSymbol names the symbol of an `export default <declaration>`.
func declarationSymbol(decl Node) (*Symbol, bool) {
	name := decl.Field("name").Text()
	switch decl.Kind() {
	case KindFunctionDeclaration, KindGeneratorDecl, KindFunctionExpression, KindFunctionLegacy, KindGeneratorFunction:
		return &Symbol{Name: name, Kind: SymbolFunction, Declaration: decl}, true
	case KindClassDeclaration, "abstract_class_declaration", "class":
		return &Symbol{Name: name, Kind: SymbolClass, Declaration: decl}, true
	}
	return nil, false
}

func bindImport(stmt Node, name string) (*Symbol, bool) {
	source, ok := stmt.Field("source").StringValue()
	if !ok {
		return nil, false
	}

	for _, clause := range stmt.NamedChildren() {
		if clause.Kind() != KindImportClause {
			continue
		}
		for _, c := range clause.NamedChildren() {
			switch c.Kind() {
			case KindIdentifier:
				if c.Text() == name {
					return &Symbol{Name: name, Kind: SymbolImport, Declaration: c, module: source, target: "default"}, true
				}
			case KindNamespaceImport:
				for _, id := range c.NamedChildren() {
					if id.Kind() == KindIdentifier && id.Text() == name {
						return &Symbol{Name: name, Kind: SymbolImport, Declaration: c, module: source, target: "*"}, true
					}
				}
			case KindNamedImports:
				for _, spec := range c.NamedChildren() {
					if spec.Kind() != KindImportSpecifier {
						continue
					}
					imported := moduleExportName(spec.Field("name"))
					local := imported
					if alias := spec.Field("alias"); !alias.IsZero() {
						local = alias.Text()
					}
					if local == name {
						return &Symbol{Name: name, Kind: SymbolImport, Declaration: spec, module: source, target: imported}, true
					}
				}
			}
		}
	}
	return nil, false
}

func bindParameter(fn Node, name string) (*Symbol, bool) {
	if single := fn.Field("parameter"); single.Kind() == KindIdentifier {
		if single.Text() == name {
			return &Symbol{Name: name, Kind: SymbolParameter, Declaration: single}, true
		}
		return nil, false
	}

	for _, param := range fn.Field("parameters").NamedChildren() {
		pattern := param.Field("pattern")
		if pattern.IsZero() {
			pattern = param
		}
		if pattern.Kind() == KindIdentifier {
			if pattern.Text() == name {
				return &Symbol{Name: name, Kind: SymbolParameter, Declaration: param}, true
			}
			continue
		}
		if id, ok := findPatternBinding(pattern, name); ok {
			return &Symbol{Name: name, Kind: SymbolParameter, Declaration: id}, true
		}
	}
	return nil, false
}

// findPatternBinding searches a destructuring pattern for a bound name.
func findPatternBinding(pattern Node, name string) (Node, bool) {
	var found Node
	pattern.Walk(func(n Node) bool {
		if !found.IsZero() {
			return false
		}
		switch n.Kind() {
		case KindIdentifier, "shorthand_property_identifier_pattern":
			if n.Text() == name {
				found = n
			}
		case "pair_pattern":
			// Only the value side of `key: value` binds.
			if v := n.Field("value"); !v.IsZero() {
				v.Walk(func(inner Node) bool {
					if found.IsZero() && inner.Kind() == KindIdentifier && inner.Text() == name {
						found = inner
					}
					return found.IsZero()
				})
			}
			return false
		}
		return true
	})
	return found, !found.IsZero()
}

// moduleExportName returns the name of an identifier or string-literal
// module export name.
func moduleExportName(n Node) string {
	if s, ok := n.StringValue(); ok {
		return s
	}
	return n.Text()
}
