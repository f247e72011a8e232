package mesh

import (
	"go.uber.org/zap"

	"github.com/Faultbox/ripconv/pkg/rip"
)

// Assemble builds a mesh from a parsed document. An empty document yields
// an empty mesh; deciding what to do with it is up to the caller.
func Assemble(doc *rip.Document, opts Options) *Mesh {
	log := opts.logger()
	roles := Resolve(&doc.Schema)
	m := &Mesh{}

	if roles.Position == nil {
		if doc.VertexCount() > 0 {
			log.Warn("document has no attributes, producing empty mesh",
				zap.Int("vertices", doc.VertexCount()))
		}
		return m
	}
	if roles.PositionFallback {
		log.Warn("no POSITION attribute, using first attribute as position",
			zap.String("semantic", roles.Position.Semantic),
			zap.Uint32("semantic_index", roles.Position.SemanticIndex))
	}

	// Positions are never normalized.
	m.Positions = vec3s(roles.Position, 1)

	if roles.Normal != nil {
		m.Normals = vec3s(roles.Normal, opts.normalDivisor())
	}

	for _, b := range roles.TexCoords {
		coords := vec2s(b.Attr, opts.texCoordDivisor())
		if opts.FlipV {
			for i := range coords {
				coords[i][1] = 1 - coords[i][1]
			}
		}
		m.UVs = append(m.UVs, UVChannel{Index: b.Index, Coords: coords})
	}

	m.Faces = make([][3]uint32, len(doc.Faces))
	copy(m.Faces, doc.Faces)

	return m
}

// component returns element j of tuple i, scaled by divisor unless the
// attribute is float-encoded. Missing elements read as zero.
func component(a *rip.Attribute, i, j int, isFloat bool, divisor float32) float32 {
	if j >= a.Elements() {
		return 0
	}
	v := a.Float(i, j)
	if !isFloat {
		v /= divisor
	}
	return v
}

func vec3s(a *rip.Attribute, divisor float32) [][3]float32 {
	isFloat := a.IsFloat(3)
	out := make([][3]float32, a.Count())
	for i := range out {
		for j := 0; j < 3; j++ {
			out[i][j] = component(a, i, j, isFloat, divisor)
		}
	}
	return out
}

func vec2s(a *rip.Attribute, divisor float32) [][2]float32 {
	isFloat := a.IsFloat(2)
	out := make([][2]float32, a.Count())
	for i := range out {
		for j := 0; j < 2; j++ {
			out[i][j] = component(a, i, j, isFloat, divisor)
		}
	}
	return out
}
