// Package export writes assembled meshes to interchange formats.
package export

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/Faultbox/ripconv/pkg/mesh"
)

// Export errors.
var (
	ErrEmptyMesh     = errors.New("mesh has no vertices or faces")
	ErrUnknownFormat = errors.New("unknown export format")
)

// Exporter writes a mesh next to base, a path without extension, and
// returns the paths of the files it created.
type Exporter interface {
	Export(m *mesh.Mesh, textures []string, base string) ([]string, error)
}

// exporters maps format names to constructors.
var exporters = map[string]func() Exporter{
	"obj": func() Exporter { return OBJ{} },
	"glb": func() Exporter { return GLB{} },
}

// ForFormat returns the exporter for a format name such as "obj".
func ForFormat(name string) (Exporter, error) {
	newExporter, ok := exporters[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %q (known: %s)", ErrUnknownFormat, name, strings.Join(Formats(), ", "))
	}
	return newExporter(), nil
}

// Formats returns the supported format names, sorted.
func Formats() []string {
	names := make([]string, 0, len(exporters))
	for name := range exporters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// TextureNames returns textures without empty names, which some captures
// store for unbound texture slots.
func TextureNames(textures []string) []string {
	var out []string
	for _, t := range textures {
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}
