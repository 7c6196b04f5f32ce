package gen

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"strings"
)

// param is one declared parameter of the annotated function.
type param struct {
	// name is the name the wrapper uses to forward the argument. It equals
	// the declared name except for blank or unnamed parameters, which get a
	// synthetic argN name on the outer signature (the inner function keeps
	// the original parameter list verbatim, so the original stays blank
	// there).
	name string
	// declared is the source-level name, or "" for blank/unnamed parameters.
	declared string
	typ      ast.Expr
	variadic bool
	isCtx    bool
}

// parameters flattens the function's parameter list, one entry per name.
// A receiver is a hard error: methods are not supported.
func parameters(fn *ast.FuncDecl, f *srcFile) ([]param, error) {
	if fn.Recv != nil {
		return nil, configErrorf(f.position(fn), "cannot memoize method %s: methods (functions with a receiver) are not supported", fn.Name.Name)
	}
	var params []param
	idx := 0
	for _, field := range fn.Type.Params.List {
		_, variadic := field.Type.(*ast.Ellipsis)
		isCtx := idx == 0 && f.text(field.Type) == "context.Context"
		if len(field.Names) == 0 {
			params = append(params, param{
				name:     fmt.Sprintf("arg%d", idx),
				typ:      field.Type,
				variadic: variadic,
				isCtx:    isCtx,
			})
			idx++
			continue
		}
		for _, name := range field.Names {
			p := param{
				name:     name.Name,
				declared: name.Name,
				typ:      field.Type,
				variadic: variadic,
				isCtx:    isCtx,
			}
			if name.Name == "_" {
				p.name = fmt.Sprintf("arg%d", idx)
				p.declared = ""
			}
			params = append(params, p)
			idx++
			isCtx = false
		}
	}
	return params, nil
}

// Binding is one leaf value participating in the cache key: a path from a
// parameter down to a comparable leaf, with the number of unwrapping steps
// taken to reach it. Depth 0 is the parameter itself.
type binding struct {
	root  *param
	expr  string // leaf path as written, e.g. "w.V" or "(*p).Host"
	depth int
}

// defaultBindings returns one depth-0 binding per named parameter. Blank
// and unnamed parameters cannot be referenced and are silently excluded; a
// leading context.Context parameter selects context mode and never
// participates in the key.
func defaultBindings(params []param) []binding {
	var out []binding
	for i := range params {
		p := &params[i]
		if p.declared == "" || p.isCtx {
			continue
		}
		out = append(out, binding{root: p, expr: p.declared})
	}
	return out
}

// keyListBindings parses a comma-separated key list ("a, w.V, *p") into
// bindings. Each entry is a path expression over one parameter: an
// identifier, or any nesting of dereference, field selection, and constant
// indexing around one. Unsupported expression shapes inside a path yield
// no binding for it; a path rooted at something that is not a parameter is
// a configuration error, since the leaf type could never be resolved.
func keyListBindings(list string, params []param, pos token.Position) ([]binding, error) {
	var out []binding
	for _, entry := range strings.Split(list, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		expr, err := parser.ParseExpr(entry)
		if err != nil {
			return nil, configErrorf(pos, "invalid key entry %q: %v", entry, err)
		}
		root, depth, ok := walkPath(expr)
		if !ok {
			continue
		}
		p := lookupParam(params, root)
		if p == nil {
			return nil, configErrorf(pos, "key entry %q does not name a parameter", entry)
		}
		if p.isCtx {
			return nil, configErrorf(pos, "key entry %q: a context.Context parameter cannot participate in the key", entry)
		}
		out = append(out, binding{root: p, expr: entry, depth: depth})
	}
	return out, nil
}

// walkPath recurses through a path expression to its root identifier,
// counting one unwrapping level per dereference, selection, or index.
// Parentheses are transparent. Any other shape — and the blank
// identifier — yields no binding.
func walkPath(expr ast.Expr) (root *ast.Ident, depth int, ok bool) {
	switch e := expr.(type) {
	case *ast.Ident:
		if e.Name == "_" {
			return nil, 0, false
		}
		return e, 0, true
	case *ast.StarExpr:
		root, depth, ok = walkPath(e.X)
		return root, depth + 1, ok
	case *ast.SelectorExpr:
		root, depth, ok = walkPath(e.X)
		return root, depth + 1, ok
	case *ast.IndexExpr:
		root, depth, ok = walkPath(e.X)
		return root, depth + 1, ok
	case *ast.ParenExpr:
		return walkPath(e.X)
	default:
		return nil, 0, false
	}
}

func lookupParam(params []param, ident *ast.Ident) *param {
	for i := range params {
		if params[i].declared != "" && params[i].declared == ident.Name {
			return &params[i]
		}
	}
	return nil
}

// fieldName derives a key struct field name from a binding path: the
// identifier characters of the path, so "w.V" becomes wV and "*p" becomes
// p. Callers deduplicate collisions positionally.
func fieldName(b binding) string {
	var sb strings.Builder
	for _, r := range b.expr {
		if isIdentRune(r) {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

func isIdentRune(r rune) bool {
	return r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9'
}
