package noglobalstore

import (
	"go/ast"
	"go/token"
	"go/types"
	"path/filepath"
	"strings"

	"golang.org/x/tools/go/analysis"
)

// Analyzer reports package-level variables whose type comes from one of the
// document store packages. The store is built in app and injected into the services.
var Analyzer = &analysis.Analyzer{
	Name: "noglobalstore",
	Doc:  "prohibits package-level variables holding a document store handle",
	Run:  run,
}

var storePackageSuffixes = []string{
	"/db/storage",
	"/db/jsondb",
	"/db/memorystorage",
	"/db/postgresdb",
}

func isStoreType(t types.Type) bool {
	if ptr, ok := t.(*types.Pointer); ok {
		t = ptr.Elem()
	}

	named, ok := t.(*types.Named)
	if !ok || named.Obj().Pkg() == nil {
		return false
	}

	path := named.Obj().Pkg().Path()
	for _, suffix := range storePackageSuffixes {
		if strings.HasSuffix(path, suffix) {
			return true
		}
	}

	return false
}

func run(pass *analysis.Pass) (interface{}, error) {
	for _, file := range pass.Files {
		// Exclude go-build cache files
		filename := pass.Fset.File(file.Pos()).Name()
		if isGoBuildCacheFile(filename) {
			continue
		}

		for _, decl := range file.Decls {
			gen, ok := decl.(*ast.GenDecl)
			if !ok || gen.Tok != token.VAR {
				continue
			}

			for _, spec := range gen.Specs {
				valueSpec, ok := spec.(*ast.ValueSpec)
				if !ok {
					continue
				}

				for _, name := range valueSpec.Names {
					// Interface assertions like `var _ storage.Storage = ...` are fine.
					if name.Name == "_" {
						continue
					}

					obj := pass.TypesInfo.Defs[name]
					if obj == nil || !isStoreType(obj.Type()) {
						continue
					}

					pass.Reportf(name.Pos(), "package-level variable %s holds a store handle, inject it instead", name.Name)
				}
			}
		}
	}
	return nil, nil
}

func isGoBuildCacheFile(path string) bool {
	path = filepath.ToSlash(path)
	return strings.Contains(path, "/go-build/") || strings.Contains(path, `\go-build\`)
}
