package sources

import (
	"bufio"
	"bytes"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"strings"

	"github.com/felixgeelhaar/coverkit/internal/infrastructure/coverage"
)

// StubFile builds a zero-hit entry for a source file that no test loaded.
func StubFile(absPath, id string) (*coverage.FileCoverage, error) {
	src, err := os.ReadFile(absPath) // #nosec G304 - path comes from walking the root
	if err != nil {
		return nil, err
	}
	if strings.HasSuffix(id, ".go") {
		return stubGo(src, id)
	}
	return stubLines(src, id)
}

// stubGo counts the statements and functions the cover tool would
// instrument: every statement inside a function body.
func stubGo(src []byte, id string) (*coverage.FileCoverage, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, id, src, parser.SkipObjectResolution)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", id, err)
	}
	fc := coverage.NewFileCoverage(id)
	ast.Inspect(file, func(n ast.Node) bool {
		switch node := n.(type) {
		case *ast.FuncDecl:
			if node.Body == nil {
				return false
			}
			fc.AddFunction(funcName(node), fset.Position(node.Pos()).Line, 0)
		case *ast.BlockStmt, *ast.CaseClause, *ast.CommClause:
		case ast.Stmt:
			pos := fset.Position(node.Pos())
			if _, empty := node.(*ast.EmptyStmt); empty {
				return true
			}
			fc.AddStatement(fmt.Sprintf("%d.%d", pos.Line, pos.Column), 1, 0)
			fc.AddLine(pos.Line, 0)
		}
		return true
	})
	return fc, nil
}

func funcName(fn *ast.FuncDecl) string {
	if fn.Recv == nil || len(fn.Recv.List) == 0 {
		return fn.Name.Name
	}
	recv := fn.Recv.List[0].Type
	if star, ok := recv.(*ast.StarExpr); ok {
		recv = star.X
	}
	if idx, ok := recv.(*ast.IndexExpr); ok {
		recv = idx.X
	}
	if ident, ok := recv.(*ast.Ident); ok {
		return ident.Name + "." + fn.Name.Name
	}
	return fn.Name.Name
}

// stubLines treats every non-blank line that is not a comment as one
// statement.
func stubLines(src []byte, id string) (*coverage.FileCoverage, error) {
	fc := coverage.NewFileCoverage(id)
	scanner := bufio.NewScanner(bytes.NewReader(src))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "//") || strings.HasPrefix(line, "/*") || strings.HasPrefix(line, "*") {
			continue
		}
		fc.AddStatement(fmt.Sprint(lineNo), 1, 0)
		fc.AddLine(lineNo, 0)
	}
	return fc, scanner.Err()
}
