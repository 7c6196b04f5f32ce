package gen

import (
	"go/ast"
	"go/parser"
	"go/token"
	"testing"

	"github.com/stretchr/testify/require"
)

// mustParse parses a test source string into a srcFile.
func mustParse(t *testing.T, src string) *srcFile {
	t.Helper()
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "test.go", src, parser.ParseComments|parser.SkipObjectResolution)
	require.NoError(t, err)
	return &srcFile{fset: fset, src: []byte(src), file: file, name: "test.go"}
}

// fnNamed finds a top-level function declaration by name.
func fnNamed(t *testing.T, f *srcFile, name string) *ast.FuncDecl {
	t.Helper()
	for _, decl := range f.file.Decls {
		if fn, ok := decl.(*ast.FuncDecl); ok && fn.Name.Name == name {
			return fn
		}
	}
	t.Fatalf("no function %q in test source", name)
	return nil
}

// typeOfVar finds the declared type of a top-level var by name.
func typeOfVar(t *testing.T, f *srcFile, name string) ast.Expr {
	t.Helper()
	for _, decl := range f.file.Decls {
		gd, ok := decl.(*ast.GenDecl)
		if !ok {
			continue
		}
		for _, spec := range gd.Specs {
			if vs, ok := spec.(*ast.ValueSpec); ok {
				for _, n := range vs.Names {
					if n.Name == name {
						return vs.Type
					}
				}
			}
		}
	}
	t.Fatalf("no var %q in test source", name)
	return nil
}
