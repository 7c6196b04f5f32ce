package gen

import (
	"go/ast"
	"go/token"
)

// resolveLeafType walks a declared parameter type down the same number of
// levels the binding path descended, yielding the type of the leaf value.
// One level unwraps one layer: a pointer type to its element, a generic
// instantiation to its first type argument, an array or slice type to its
// element. A depth the type cannot satisfy is a configuration error — the
// binding path and the declared type disagree, and generated code could
// never compile.
func resolveLeafType(declared ast.Expr, depth int, f *srcFile, pos token.Position) (ast.Expr, error) {
	if depth == 0 {
		return declared, nil
	}
	switch t := declared.(type) {
	case *ast.StarExpr:
		return resolveLeafType(t.X, depth-1, f, pos)
	case *ast.IndexExpr:
		// Generic instantiation with one type argument: W[A].
		return resolveLeafType(t.Index, depth-1, f, pos)
	case *ast.IndexListExpr:
		// Generic instantiation with several type arguments: take the first.
		return resolveLeafType(t.Indices[0], depth-1, f, pos)
	case *ast.ArrayType:
		return resolveLeafType(t.Elt, depth-1, f, pos)
	case *ast.MapType:
		return resolveLeafType(t.Value, depth-1, f, pos)
	case *ast.ParenExpr:
		return resolveLeafType(t.X, depth, f, pos)
	default:
		return nil, configErrorf(pos, "type %s has no type argument to descend into", f.text(declared))
	}
}
