// Package builtin registers the levels shipped with the binary.
// Import it for its side effects.
package builtin

import (
	"embed"
	"fmt"

	"github.com/vovakirdan/stacker/internal/levels"
	"github.com/vovakirdan/stacker/internal/registry"
	"github.com/vovakirdan/stacker/internal/shapes"
)

//go:embed data/*.yaml
var data embed.FS

func init() {
	lvls, err := levels.NewFSLoader(data, "data", shapes.Standard()).LoadAll()
	if err != nil {
		panic(fmt.Sprintf("builtin: %v", err))
	}
	for _, lvl := range lvls {
		registry.RegisterLevel(lvl)
	}
}
