// Command syscallcheck is a dev-time lint tool: it loads the syscall
// package's type information via golang.org/x/tools/go/packages
// (SPEC_FULL.md 2.2) and reports any SysXxx constant in
// ekernel/syscall that Dispatch's switch does not reference by name —
// catching a newly added syscall number that forgot its handler before
// it ships. Grounded on the shape of the teacher's misc/depgraph tool
// (a standalone go/packages-based graph walker over the biscuit tree),
// narrowed from whole-module dependency graphing to a single package's
// constant-vs-switch-case cross-check.
package main

import (
	"fmt"
	"go/ast"
	"go/constant"
	"go/types"
	"os"

	"golang.org/x/tools/go/packages"
)

func main() {
	cfg := &packages.Config{
		Mode: packages.NeedName | packages.NeedTypes | packages.NeedTypesInfo | packages.NeedSyntax,
	}
	pkgs, err := packages.Load(cfg, "ekernel/syscall")
	if err != nil {
		fmt.Printf("syscallcheck: load: %v\n", err)
		os.Exit(1)
	}
	if packages.PrintErrors(pkgs) > 0 {
		os.Exit(1)
	}

	var missing []string
	for _, pkg := range pkgs {
		ids := syscallConstants(pkg)
		referenced := referencedNames(pkg)
		for name := range ids {
			if !referenced[name] {
				missing = append(missing, name)
			}
		}
	}

	if len(missing) > 0 {
		fmt.Println("syscallcheck: constants with no Dispatch case:")
		for _, m := range missing {
			fmt.Printf("  %s\n", m)
		}
		os.Exit(1)
	}
	fmt.Println("syscallcheck: ok")
}

// syscallConstants returns every exported integer constant named SysXxx
// in pkg.
func syscallConstants(pkg *packages.Package) map[string]int64 {
	out := make(map[string]int64)
	scope := pkg.Types.Scope()
	for _, name := range scope.Names() {
		if len(name) < 3 || name[:3] != "Sys" {
			continue
		}
		obj, ok := scope.Lookup(name).(*types.Const)
		if !ok {
			continue
		}
		if v, ok := constant.Int64Val(obj.Val()); ok {
			out[name] = v
		}
	}
	return out
}

// referencedNames walks the package syntax for identifiers used inside
// Dispatch's switch statement.
func referencedNames(pkg *packages.Package) map[string]bool {
	out := make(map[string]bool)
	for _, f := range pkg.Syntax {
		ast.Inspect(f, func(n ast.Node) bool {
			if fn, ok := n.(*ast.FuncDecl); ok && fn.Name.Name != "Dispatch" {
				return false
			}
			if cc, ok := n.(*ast.CaseClause); ok {
				for _, e := range cc.List {
					if id, ok := e.(*ast.Ident); ok {
						out[id.Name] = true
					}
				}
			}
			return true
		})
	}
	return out
}
