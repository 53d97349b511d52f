package main

import (
	"bytes"
	"go/ast"
	"go/printer"
	"go/token"
	"go/types"
	"strings"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/passes/inspect"
	"golang.org/x/tools/go/ast/inspector"
)

// OsExitAnalyzer forbids calling os.Exit directly from main.main.
var OsExitAnalyzer = &analysis.Analyzer{
	Name:     "osexit",
	Doc:      "reports direct os.Exit calls in the main function of package main",
	Run:      runOsExit,
	Requires: []*analysis.Analyzer{inspect.Analyzer},
}

func runOsExit(pass *analysis.Pass) (any, error) {
	if pass.Pkg.Name() != "main" {
		return nil, nil
	}

	insp := pass.ResultOf[inspect.Analyzer].(*inspector.Inspector)

	insp.Preorder([]ast.Node{(*ast.FuncDecl)(nil)}, func(n ast.Node) {
		fn := n.(*ast.FuncDecl)
		if fn.Recv != nil || fn.Name.Name != "main" || fn.Body == nil {
			return
		}

		// go test generates a main package in the build cache
		if strings.Contains(pass.Fset.File(fn.Pos()).Name(), "go-build") {
			return
		}

		ast.Inspect(fn.Body, func(n ast.Node) bool {
			call, ok := n.(*ast.CallExpr)
			if !ok {
				return true
			}
			if isOsExit(pass, call) {
				pass.Reportf(call.Pos(), "os.Exit call is forbidden in main function: %s", render(pass.Fset, call))
			}
			return true
		})
	})

	return nil, nil
}

func isOsExit(pass *analysis.Pass, call *ast.CallExpr) bool {
	sel, ok := call.Fun.(*ast.SelectorExpr)
	if !ok || sel.Sel.Name != "Exit" {
		return false
	}

	ident, ok := sel.X.(*ast.Ident)
	if !ok {
		return false
	}

	pkg, ok := pass.TypesInfo.Uses[ident].(*types.PkgName)
	return ok && pkg.Imported().Path() == "os"
}

func render(fset *token.FileSet, x any) string {
	var buf bytes.Buffer
	if err := printer.Fprint(&buf, fset, x); err != nil {
		return "os.Exit(...)"
	}
	return buf.String()
}
