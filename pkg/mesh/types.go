// Package mesh assembles renderable meshes from parsed RIP documents.
package mesh

import (
	"go.uber.org/zap"

	"github.com/Faultbox/ripconv/pkg/math"
)

// DefaultDivisor maps integer-encoded normals and texture coordinates
// into a unit range.
const DefaultDivisor = 255

// UVChannel is one texture coordinate set.
type UVChannel struct {
	Index  uint32       // Semantic index of the source attribute
	Coords [][2]float32 // One entry per vertex
}

// Mesh is the canonical mesh built from a RIP document. Every per-vertex
// slice has the document's vertex count; face indices are 0-based.
type Mesh struct {
	Positions [][3]float32
	Normals   [][3]float32 // nil when the document has no normal attribute
	UVs       []UVChannel  // In order of first appearance of each semantic index
	Faces     [][3]uint32
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Positions)
}

// Empty reports whether the mesh has nothing to render.
func (m *Mesh) Empty() bool {
	return len(m.Positions) == 0 || len(m.Faces) == 0
}

// Bounds returns the axis-aligned bounding box of the positions.
func (m *Mesh) Bounds() (math.Box, bool) {
	return math.BoxOf(m.Positions)
}

// Options controls normalization and coordinate fixups during assembly.
type Options struct {
	// NormalDivisor scales integer-encoded normals. Values <= 0 use DefaultDivisor.
	NormalDivisor float32
	// TexCoordDivisor scales integer-encoded texture coordinates. Values <= 0 use DefaultDivisor.
	TexCoordDivisor float32
	// FlipV replaces V with 1-V.
	FlipV bool
	// Logger receives fallback warnings. Nil discards them.
	Logger *zap.Logger
}

// DefaultOptions returns the conversion settings for captures exported to
// formats with a bottom-left texture origin.
func DefaultOptions() Options {
	return Options{
		NormalDivisor:   DefaultDivisor,
		TexCoordDivisor: DefaultDivisor,
		FlipV:           true,
	}
}

func (o Options) normalDivisor() float32 {
	if o.NormalDivisor <= 0 {
		return DefaultDivisor
	}
	return o.NormalDivisor
}

func (o Options) texCoordDivisor() float32 {
	if o.TexCoordDivisor <= 0 {
		return DefaultDivisor
	}
	return o.TexCoordDivisor
}

func (o Options) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}
