package export

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/Faultbox/ripconv/pkg/mesh"
)

// GLB writes binary glTF 2.0 containers with every UV channel as TEXCOORD_n.
type GLB struct{}

// Export writes base.glb.
func (GLB) Export(m *mesh.Mesh, textures []string, base string) ([]string, error) {
	if m.Empty() {
		return nil, ErrEmptyMesh
	}

	path := base + ".glb"
	doc := BuildGLTF(m, textures, filepath.Base(base))
	if err := writeFile(path, func(w io.Writer) error {
		return WriteGLB(w, doc)
	}); err != nil {
		return nil, err
	}
	return []string{path}, nil
}

// WriteGLB encodes doc as a binary glTF container.
func WriteGLB(w io.Writer, doc *gltf.Document) error {
	enc := gltf.NewEncoder(w)
	enc.AsBinary = true
	return enc.Encode(doc)
}

// BuildGLTF converts a mesh into a single-node glTF document. Texture names
// become image URIs; the first one is bound as base color.
func BuildGLTF(m *mesh.Mesh, textures []string, name string) *gltf.Document {
	textures = TextureNames(textures)
	doc := gltf.NewDocument()
	if len(doc.Buffers) == 0 {
		doc.Buffers = append(doc.Buffers, new(gltf.Buffer))
	}

	attrs := gltf.PrimitiveAttributes{
		"POSITION": modeler.WritePosition(doc, m.Positions),
	}
	if len(m.Normals) > 0 {
		attrs["NORMAL"] = modeler.WriteNormal(doc, m.Normals)
	}
	for i, ch := range m.UVs {
		// glTF puts the texture origin at the top left.
		coords := make([][2]float32, len(ch.Coords))
		for j, uv := range ch.Coords {
			coords[j] = [2]float32{uv[0], 1 - uv[1]}
		}
		attrs[fmt.Sprintf("TEXCOORD_%d", i)] = modeler.WriteTextureCoord(doc, coords)
	}

	indices := make([]uint32, 0, len(m.Faces)*3)
	for _, f := range m.Faces {
		indices = append(indices, f[0], f[1], f[2])
	}

	prim := &gltf.Primitive{
		Indices:    gltf.Index(modeler.WriteIndices(doc, indices)),
		Attributes: attrs,
	}

	if len(textures) > 0 {
		for _, tex := range textures {
			doc.Images = append(doc.Images, &gltf.Image{Name: tex, URI: tex})
		}
		doc.Textures = append(doc.Textures, &gltf.Texture{Source: gltf.Index(0)})
		doc.Materials = append(doc.Materials, &gltf.Material{
			Name: materialName,
			PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
				BaseColorTexture: &gltf.TextureInfo{Index: 0},
			},
		})
		prim.Material = gltf.Index(0)
	}

	doc.Meshes = append(doc.Meshes, &gltf.Mesh{Name: name, Primitives: []*gltf.Primitive{prim}})
	doc.Nodes = append(doc.Nodes, &gltf.Node{Name: name, Mesh: gltf.Index(len(doc.Meshes) - 1)})
	doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, len(doc.Nodes)-1)

	return doc
}
