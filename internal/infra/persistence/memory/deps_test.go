package memory

import (
	"go/build"
	"strings"
	"testing"
)

const modulePrefix = "github.com/kuhu42/solar-back-sub001/"

var allowedModuleImports = map[string]struct{}{
	modulePrefix + "pkg/domain": {},
}

func TestImportsAreDomainOrStdlib(t *testing.T) {
	pkg, err := build.Default.ImportDir(".", 0)
	if err != nil {
		t.Fatalf("import dir: %v", err)
	}
	for _, imp := range pkg.Imports {
		if !strings.HasPrefix(imp, modulePrefix) {
			continue
		}
		if _, ok := allowedModuleImports[imp]; ok {
			continue
		}
		t.Fatalf("unexpected dependency: %s", imp)
	}
}
