package gen

import (
	"go/ast"
	"go/token"
)

// shape classifies how the wrapped function reports its result, which
// selects the cache access pattern.
type shape int

const (
	// shapePlain is a bare value: every computation produces a cacheable
	// result. Includes the no-result case, cached as the unit value.
	shapePlain shape = iota
	// shapeOptional is (T, bool): a false computation is reported to the
	// caller but never cached.
	shapeOptional
	// shapeFallible is (T, error): a non-nil error propagates to the
	// caller and is never cached.
	shapeFallible
)

func (s shape) String() string {
	switch s {
	case shapeOptional:
		return "optional"
	case shapeFallible:
		return "fallible"
	default:
		return "plain"
	}
}

// unitType is the stored type for functions with no results.
const unitType = "struct{}"

// returnShape classifies a function's result list and derives the stored
// type (rendered as source text). The recognized shapes are exactly:
// no results (plain, unit); a single value (plain); a value plus error
// (fallible); a value plus bool (optional). A lone error or bool result
// has nothing to cache, and wider result lists have no single stored
// value; both are configuration errors.
func returnShape(results *ast.FieldList, f *srcFile, pos token.Position) (shape, string, error) {
	types := resultTypes(results)
	switch len(types) {
	case 0:
		return shapePlain, unitType, nil
	case 1:
		switch f.text(types[0]) {
		case "error", "bool":
			return 0, "", configErrorf(pos, "function must return something cacheable, not a bare %s", f.text(types[0]))
		}
		return shapePlain, f.text(types[0]), nil
	case 2:
		switch f.text(types[1]) {
		case "error":
			return shapeFallible, f.text(types[0]), nil
		case "bool":
			return shapeOptional, f.text(types[0]), nil
		}
		return 0, "", configErrorf(pos, "return shape (%s, %s) is too complex: the second result must be error or bool", f.text(types[0]), f.text(types[1]))
	default:
		return 0, "", configErrorf(pos, "return shape with %d results is too complex to cache", len(types))
	}
}

// resultTypes expands the result field list positionally: a field with n
// names contributes n results.
func resultTypes(results *ast.FieldList) []ast.Expr {
	if results == nil {
		return nil
	}
	var types []ast.Expr
	for _, field := range results.List {
		n := max(len(field.Names), 1)
		for j := 0; j < n; j++ {
			types = append(types, field.Type)
		}
	}
	return types
}
