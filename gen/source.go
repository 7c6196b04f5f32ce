package gen

import (
	"go/ast"
	"go/token"
)

// srcFile pairs a parsed file with its source bytes so any node can be
// rendered exactly as written. The rewrite works by text surgery on the
// original bytes — node text is never re-printed, which keeps comments,
// line breaks, and formatting inside untouched regions intact.
type srcFile struct {
	fset *token.FileSet
	src  []byte
	file *ast.File
	name string
}

// text returns the original source text of node.
func (f *srcFile) text(node ast.Node) string {
	return string(f.src[f.offset(node.Pos()):f.offset(node.End())])
}

func (f *srcFile) offset(pos token.Pos) int {
	return f.fset.File(pos).Offset(pos)
}

func (f *srcFile) position(node ast.Node) token.Position {
	return f.fset.Position(node.Pos())
}

// declares reports whether name is declared at package scope in the file.
// Used as the idempotence guard: a rewrite whose cache variable already
// exists has already been applied.
func (f *srcFile) declares(name string) bool {
	for _, decl := range f.file.Decls {
		switch d := decl.(type) {
		case *ast.FuncDecl:
			if d.Recv == nil && d.Name.Name == name {
				return true
			}
		case *ast.GenDecl:
			for _, spec := range d.Specs {
				switch s := spec.(type) {
				case *ast.TypeSpec:
					if s.Name.Name == name {
						return true
					}
				case *ast.ValueSpec:
					for _, n := range s.Names {
						if n.Name == name {
							return true
						}
					}
				}
			}
		}
	}
	return false
}
