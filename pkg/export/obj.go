package export

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/Faultbox/ripconv/pkg/mesh"
)

// materialName is the single material referenced by exported OBJ files.
const materialName = "material0"

// OBJ writes Wavefront OBJ files, plus an MTL file when textures are known.
// Only the first UV channel is written.
type OBJ struct{}

// Export writes base.obj and, if textures is not empty, base.mtl.
func (OBJ) Export(m *mesh.Mesh, textures []string, base string) ([]string, error) {
	if m.Empty() {
		return nil, ErrEmptyMesh
	}

	textures = TextureNames(textures)
	var written []string
	mtlName := ""
	if len(textures) > 0 {
		mtlPath := base + ".mtl"
		if err := writeFile(mtlPath, func(w io.Writer) error {
			return WriteMTL(w, textures)
		}); err != nil {
			return written, err
		}
		written = append(written, mtlPath)
		mtlName = filepath.Base(mtlPath)
	}

	objPath := base + ".obj"
	if err := writeFile(objPath, func(w io.Writer) error {
		return WriteOBJ(w, m, mtlName)
	}); err != nil {
		return written, err
	}
	return append(written, objPath), nil
}

// WriteOBJ writes m in OBJ text format. mtlName, if set, is referenced with
// mtllib/usemtl. Face indices are written 1-based.
func WriteOBJ(w io.Writer, m *mesh.Mesh, mtlName string) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "# %d vertices, %d faces\n", len(m.Positions), len(m.Faces))
	if mtlName != "" {
		fmt.Fprintf(bw, "mtllib %s\n", mtlName)
	}

	for _, v := range m.Positions {
		fmt.Fprintf(bw, "v %.6f %.6f %.6f\n", v[0], v[1], v[2])
	}

	var uvs [][2]float32
	if len(m.UVs) > 0 {
		uvs = m.UVs[0].Coords
	}
	for _, uv := range uvs {
		fmt.Fprintf(bw, "vt %.6f %.6f\n", uv[0], uv[1])
	}
	for _, n := range m.Normals {
		fmt.Fprintf(bw, "vn %.6f %.6f %.6f\n", n[0], n[1], n[2])
	}

	if mtlName != "" {
		fmt.Fprintf(bw, "usemtl %s\n", materialName)
	}

	hasUV, hasNormal := len(uvs) > 0, len(m.Normals) > 0
	for _, f := range m.Faces {
		bw.WriteString("f")
		for _, idx := range f {
			i := idx + 1
			switch {
			case hasUV && hasNormal:
				fmt.Fprintf(bw, " %d/%d/%d", i, i, i)
			case hasUV:
				fmt.Fprintf(bw, " %d/%d", i, i)
			case hasNormal:
				fmt.Fprintf(bw, " %d//%d", i, i)
			default:
				fmt.Fprintf(bw, " %d", i)
			}
		}
		bw.WriteString("\n")
	}

	return bw.Flush()
}

// WriteMTL writes a material file using the first texture as diffuse map.
func WriteMTL(w io.Writer, textures []string) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "newmtl %s\n", materialName)
	bw.WriteString("Ka 1.000000 1.000000 1.000000\n")
	bw.WriteString("Kd 1.000000 1.000000 1.000000\n")
	bw.WriteString("Ks 0.000000 0.000000 0.000000\n")
	bw.WriteString("d 1.000000\n")
	bw.WriteString("illum 1\n")
	if names := TextureNames(textures); len(names) > 0 {
		fmt.Fprintf(bw, "map_Kd %s\n", names[0])
	}
	return bw.Flush()
}

// writeFile creates path and fills it with write. A partially written file
// is removed on error.
func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return fmt.Errorf("closing %s: %w", path, err)
	}
	return nil
}
