package gen

import (
	"fmt"
	"go/ast"
	"strings"
	"unicode"
	"unicode/utf8"
)

// assembly is the generated replacement for one annotated function: the
// package-scope declarations (key struct and cache variable) and the
// wrapper that replaces the original declaration. The original doc
// comment, directive included, stays where it is.
type assembly struct {
	prelude string
	wrapper string
}

// assemble stitches the plans into the final code. Body order inside the
// wrapper is fixed: inner function holding the original body verbatim,
// cache key construction, cache access. The outer signature is the
// original with blank and unnamed parameters renamed so every argument can
// be forwarded; the inner function keeps the original parameter list, so
// a parameter the body never uses stays blank there.
func assemble(fn *ast.FuncDecl, f *srcFile, params []param, key keyPlan, plan cachePlan, sh shape, stored, cacheName string) assembly {
	unit := fn.Type.Results == nil
	innerName := uniqueName("inner", params)
	keyName := uniqueName("key", params)
	ctxName := ""
	ctxMode := len(params) > 0 && params[0].isCtx
	if ctxMode {
		ctxName = params[0].name
	}

	var prelude strings.Builder
	if key.typeDecl != "" {
		prelude.WriteString(key.typeDecl)
		prelude.WriteString("\n\n")
	}
	fmt.Fprintf(&prelude, "var %s = sync.OnceValue(func() %s {\n\treturn %s\n})\n\n", cacheName, plan.typeExpr, plan.construct)

	access := accessStatement(sh, ctxMode, unit, cacheName+"()", keyName, stored, innerCall(innerName, params), ctxName)

	var w strings.Builder
	fmt.Fprintf(&w, "func %s%s %s {\n", fn.Name.Name, outerSignature(fn, f, params), resultsText(fn, f))
	fmt.Fprintf(&w, "\t%s := func%s %s %s\n", innerName, f.text(fn.Type.Params), resultsText(fn, f), f.text(fn.Body))
	fmt.Fprintf(&w, "\t%s := %s\n", keyName, key.construct)
	fmt.Fprintf(&w, "\t%s\n}", access)

	return assembly{prelude: prelude.String(), wrapper: w.String()}
}

// outerSignature renders the wrapper's parameter list: original names and
// types, with blank and unnamed parameters carrying their synthetic names.
func outerSignature(fn *ast.FuncDecl, f *srcFile, params []param) string {
	var parts []string
	i := 0
	for _, field := range fn.Type.Params.List {
		names := make([]string, 0, max(len(field.Names), 1))
		for j := 0; j < max(len(field.Names), 1); j++ {
			names = append(names, params[i].name)
			i++
		}
		parts = append(parts, strings.Join(names, ", ")+" "+f.text(field.Type))
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func resultsText(fn *ast.FuncDecl, f *srcFile) string {
	if fn.Type.Results == nil {
		return ""
	}
	return f.text(fn.Type.Results)
}

// innerCall renders the inner function invocation, forwarding every
// parameter under its outer name.
func innerCall(innerName string, params []param) string {
	args := make([]string, len(params))
	for i, p := range params {
		args[i] = p.name
		if p.variadic {
			args[i] += "..."
		}
	}
	return innerName + "(" + strings.Join(args, ", ") + ")"
}

// uniqueName returns base, suffixed if needed so it collides with no
// parameter name.
func uniqueName(base string, params []param) string {
	name := base
	for n := 1; ; n++ {
		clash := false
		for _, p := range params {
			if p.name == name {
				clash = true
				break
			}
		}
		if !clash {
			return name
		}
		name = fmt.Sprintf("%s%d", base, n)
	}
}

// cacheVarName derives the default cache variable name from the function
// name: lowered first rune plus a Cache suffix.
func cacheVarName(fnName string) string {
	r, size := utf8.DecodeRuneInString(fnName)
	return string(unicode.ToLower(r)) + fnName[size:] + "Cache"
}
