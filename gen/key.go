package gen

import (
	"fmt"
	"go/parser"
	"go/token"
	"strings"
)

// keyPlan is the synthesized cache key: its type and the expression that
// builds a key instance from the current call's arguments.
type keyPlan struct {
	// typeExpr is the key type as source text. Empty when the full cache
	// type is supplied through the type option instead.
	typeExpr string
	// construct is the expression assigned to the key variable.
	construct string
	// typeDecl is the generated key struct declaration, when the default
	// tuple-of-arguments key applies. Empty otherwise.
	typeDecl string
	// unit reports a key with no argument bindings, which caps the default
	// cache capacity at one entry.
	unit bool
}

// buildKeyPlan implements the key/convert/type decision table. Exactly one
// configuration applies:
//
//	key + convert            explicit key type, explicit construction
//	convert + type (no key)  construction only; type supplies the cache type
//	neither                  struct over the (optionally key-filtered) argument bindings
//
// convert without key or type, and type without convert, can never form a
// working cache declaration and fail fast.
func buildKeyPlan(opts Options, params []param, typeName string, f *srcFile, pos token.Position) (keyPlan, error) {
	switch {
	case opts.Convert != nil && opts.Key != nil:
		if _, err := parser.ParseExpr(*opts.Key); err != nil {
			return keyPlan{}, configErrorf(pos, "key is not a valid type expression: %v", err)
		}
		if _, err := parser.ParseExpr(*opts.Convert); err != nil {
			return keyPlan{}, configErrorf(pos, "convert is not a valid expression: %v", err)
		}
		return keyPlan{typeExpr: *opts.Key, construct: *opts.Convert}, nil

	case opts.Convert != nil && opts.CacheType != nil:
		if _, err := parser.ParseExpr(*opts.Convert); err != nil {
			return keyPlan{}, configErrorf(pos, "convert is not a valid expression: %v", err)
		}
		return keyPlan{construct: *opts.Convert}, nil

	case opts.Convert != nil:
		return keyPlan{}, configErrorf(pos, "convert requires key or type to be set")

	case opts.CacheType != nil:
		return keyPlan{}, configErrorf(pos, "type requires convert to be set")
	}

	bindings := defaultBindings(params)
	if opts.Key != nil {
		var err error
		bindings, err = keyListBindings(*opts.Key, params, pos)
		if err != nil {
			return keyPlan{}, err
		}
	}
	if len(bindings) == 0 {
		return keyPlan{typeExpr: unitType, construct: unitType + "{}", unit: true}, nil
	}

	fields := make([]string, len(bindings))
	exprs := make([]string, len(bindings))
	names := make(map[string]bool, len(bindings))
	for i, b := range bindings {
		leaf, err := resolveLeafType(b.root.typ, b.depth, f, pos)
		if err != nil {
			return keyPlan{}, err
		}
		leafText := f.text(leaf)
		// A variadic parameter arrives as a slice.
		if b.depth == 0 && b.root.variadic {
			leafText = "[]" + strings.TrimPrefix(leafText, "...")
		}
		name := fieldName(b)
		if name == "" || names[name] {
			name = fmt.Sprintf("%s%d", name, i)
		}
		names[name] = true
		fields[i] = fmt.Sprintf("\t%s %s", name, leafText)
		exprs[i] = b.expr
	}
	return keyPlan{
		typeExpr:  typeName,
		construct: fmt.Sprintf("%s{%s}", typeName, strings.Join(exprs, ", ")),
		typeDecl:  fmt.Sprintf("type %s struct {\n%s\n}", typeName, strings.Join(fields, "\n")),
	}, nil
}
