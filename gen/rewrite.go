package gen

import (
	"bytes"
	"fmt"
	"go/ast"
	"go/format"
	"go/parser"
	"go/token"
	"os"

	"golang.org/x/tools/go/ast/astutil"
)

// RewriteFile reads filename and rewrites every annotated function in it.
// See Rewrite.
func RewriteFile(filename string) ([]byte, int, error) {
	src, err := os.ReadFile(filename)
	if err != nil {
		return nil, 0, fmt.Errorf("gen: %w", err)
	}
	return Rewrite(filename, src)
}

// Rewrite parses src and replaces every function carrying the directive
// with its memoized form, returning the formatted result and the number of
// functions rewritten. When no function carries the directive, src is
// returned unchanged.
//
// The rewrite is textual: the annotated declaration's bytes are replaced
// by the wrapper and the supporting package-scope declarations are
// inserted above its doc comment, so everything outside the annotated
// functions — comments included — survives verbatim. The directive stays
// in the doc comment; rewriting an already-rewritten function is detected
// through its cache variable and refused.
func Rewrite(filename string, src []byte) ([]byte, int, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, filename, src, parser.ParseComments|parser.SkipObjectResolution)
	if err != nil {
		return nil, 0, fmt.Errorf("gen: parsing %s: %w", filename, err)
	}
	f := &srcFile{fset: fset, src: src, file: file, name: filename}

	type edit struct {
		insertAt, from, to int
		prelude, wrapper   string
	}
	var edits []edit
	needsTime, needsMemoize := false, false

	for _, decl := range file.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if !ok {
			continue
		}
		args, pos, ok := findDirective(fset, fn.Doc)
		if !ok {
			continue
		}
		a, plan, err := expand(fn, f, args, pos)
		if err != nil {
			return nil, 0, err
		}
		needsTime = needsTime || plan.needsTime
		needsMemoize = needsMemoize || plan.needsMemoize
		edits = append(edits, edit{
			insertAt: f.offset(fn.Doc.Pos()),
			from:     f.offset(fn.Pos()),
			to:       f.offset(fn.End()),
			prelude:  a.prelude,
			wrapper:  a.wrapper,
		})
	}
	if len(edits) == 0 {
		return src, 0, nil
	}

	// Splice back to front so earlier offsets stay valid.
	out := append([]byte(nil), src...)
	for i := len(edits) - 1; i >= 0; i-- {
		e := edits[i]
		var spliced []byte
		spliced = append(spliced, out[:e.insertAt]...)
		spliced = append(spliced, e.prelude...)
		spliced = append(spliced, out[e.insertAt:e.from]...)
		spliced = append(spliced, e.wrapper...)
		spliced = append(spliced, out[e.to:]...)
		out = spliced
	}

	formatted, err := finish(filename, out, needsTime, needsMemoize)
	if err != nil {
		return nil, 0, err
	}
	return formatted, len(edits), nil
}

// finish reparses the spliced source, adds the imports the generated code
// needs, and renders the canonical formatting. User-supplied convert and
// create expressions may reference further packages; importing those is
// the annotation's responsibility.
func finish(filename string, src []byte, needsTime, needsMemoize bool) ([]byte, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, filename, src, parser.ParseComments)
	if err != nil {
		return nil, fmt.Errorf("gen: reparsing rewritten %s: %w", filename, err)
	}
	astutil.AddImport(fset, file, "sync")
	if needsTime {
		astutil.AddImport(fset, file, "time")
	}
	if needsMemoize {
		astutil.AddImport(fset, file, memoizePath)
	}
	var buf bytes.Buffer
	if err := format.Node(&buf, fset, file); err != nil {
		return nil, fmt.Errorf("gen: formatting rewritten %s: %w", filename, err)
	}
	return buf.Bytes(), nil
}

// expand runs the full pipeline for one annotated function.
func expand(fn *ast.FuncDecl, f *srcFile, args string, pos token.Position) (assembly, cachePlan, error) {
	opts, err := parseOptions(args, pos)
	if err != nil {
		return assembly{}, cachePlan{}, err
	}
	if fn.Body == nil {
		return assembly{}, cachePlan{}, configErrorf(pos, "cannot memoize %s: function has no body", fn.Name.Name)
	}
	if fn.Type.TypeParams != nil {
		return assembly{}, cachePlan{}, configErrorf(pos, "cannot memoize %s: generic functions are not supported", fn.Name.Name)
	}
	params, err := parameters(fn, f)
	if err != nil {
		return assembly{}, cachePlan{}, err
	}
	sh, stored, err := returnShape(fn.Type.Results, f, pos)
	if err != nil {
		return assembly{}, cachePlan{}, err
	}

	cacheName := cacheVarName(fn.Name.Name)
	if opts.Name != nil {
		cacheName = *opts.Name
	}
	keyTypeName := cacheName + "Key"
	for _, name := range []string{cacheName, keyTypeName} {
		if f.declares(name) {
			return assembly{}, cachePlan{}, configErrorf(pos, "%s is already declared in this file: %s looks already memoized (or pick a different name)", name, fn.Name.Name)
		}
	}

	key, err := buildKeyPlan(opts, params, keyTypeName, f, pos)
	if err != nil {
		return assembly{}, cachePlan{}, err
	}
	plan, err := buildCachePlan(opts, key, stored, pos)
	if err != nil {
		return assembly{}, cachePlan{}, err
	}
	return assemble(fn, f, params, key, plan, sh, stored, cacheName), plan, nil
}
