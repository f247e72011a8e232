package export

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/qmuntal/gltf"

	"github.com/Faultbox/ripconv/pkg/mesh"
)

func makeTestMesh() *mesh.Mesh {
	return &mesh.Mesh{
		Positions: [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
		Normals:   [][3]float32{{0, 0, 1}, {0, 0, 1}, {0, 0, 1}},
		UVs: []mesh.UVChannel{
			{Index: 0, Coords: [][2]float32{{0, 1}, {1, 1}, {0, 0}}},
			{Index: 1, Coords: [][2]float32{{0.5, 0.5}, {0.5, 0.5}, {0.5, 0.5}}},
		},
		Faces: [][3]uint32{{0, 1, 2}},
	}
}

func TestWriteOBJ_FaceFormats(t *testing.T) {
	full := makeTestMesh()

	noNormals := makeTestMesh()
	noNormals.Normals = nil

	noUVs := makeTestMesh()
	noUVs.UVs = nil

	bare := makeTestMesh()
	bare.Normals, bare.UVs = nil, nil

	tests := []struct {
		name string
		mesh *mesh.Mesh
		face string
	}{
		{"uv and normal", full, "f 1/1/1 2/2/2 3/3/3"},
		{"uv only", noNormals, "f 1/1 2/2 3/3"},
		{"normal only", noUVs, "f 1//1 2//2 3//3"},
		{"positions only", bare, "f 1 2 3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := WriteOBJ(&buf, tt.mesh, ""); err != nil {
				t.Fatalf("WriteOBJ failed: %v", err)
			}
			out := buf.String()
			if !strings.Contains(out, tt.face+"\n") {
				t.Errorf("expected %q in output:\n%s", tt.face, out)
			}
			if strings.Contains(out, "mtllib") {
				t.Error("unexpected mtllib without material")
			}
		})
	}
}

func TestWriteOBJ_Content(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteOBJ(&buf, makeTestMesh(), "model.mtl"); err != nil {
		t.Fatalf("WriteOBJ failed: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"mtllib model.mtl\n",
		"v 1.000000 0.000000 0.000000\n",
		"vt 0.000000 1.000000\n",
		"vn 0.000000 0.000000 1.000000\n",
		"usemtl material0\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output", want)
		}
	}

	// Only the first UV channel is written.
	if n := strings.Count(out, "\nvt "); n != 3 {
		t.Errorf("expected 3 vt lines, got %d", n)
	}
}

func TestOBJ_Export(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "mesh_0001")

	files, err := OBJ{}.Export(makeTestMesh(), []string{"Tex_0001_0.dds"}, base)
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("expected 2 files, got %v", files)
	}

	mtl, err := os.ReadFile(base + ".mtl")
	if err != nil {
		t.Fatalf("reading mtl: %v", err)
	}
	if !strings.Contains(string(mtl), "map_Kd Tex_0001_0.dds") {
		t.Errorf("expected diffuse map in mtl:\n%s", mtl)
	}

	obj, err := os.ReadFile(base + ".obj")
	if err != nil {
		t.Fatalf("reading obj: %v", err)
	}
	if !strings.Contains(string(obj), "mtllib mesh_0001.mtl") {
		t.Error("obj does not reference its mtl by base name")
	}
}

func TestExport_EmptyTextureNames(t *testing.T) {
	dir := t.TempDir()

	files, err := OBJ{}.Export(makeTestMesh(), []string{"", ""}, filepath.Join(dir, "blank"))
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if len(files) != 1 || filepath.Ext(files[0]) != ".obj" {
		t.Errorf("expected only an obj without material, got %v", files)
	}

	var buf bytes.Buffer
	if err := WriteMTL(&buf, []string{"", "Tex_0002_0.dds"}); err != nil {
		t.Fatalf("WriteMTL failed: %v", err)
	}
	if !strings.Contains(buf.String(), "map_Kd Tex_0002_0.dds\n") {
		t.Errorf("expected first non-empty texture as diffuse map:\n%s", buf.String())
	}

	doc := BuildGLTF(makeTestMesh(), []string{"", "a.dds", ""}, "mesh")
	if len(doc.Images) != 1 || doc.Images[0].URI != "a.dds" {
		t.Errorf("expected one image a.dds, got %+v", doc.Images)
	}
}

func TestTextureNames(t *testing.T) {
	if got := TextureNames([]string{"", "a.dds", "", "b.png"}); strings.Join(got, ",") != "a.dds,b.png" {
		t.Errorf("TextureNames() = %v", got)
	}
	if got := TextureNames([]string{""}); got != nil {
		t.Errorf("expected nil for only empty names, got %v", got)
	}
}

func TestExport_EmptyMesh(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "empty")
	empty := &mesh.Mesh{Positions: [][3]float32{{0, 0, 0}}}

	for _, name := range Formats() {
		t.Run(name, func(t *testing.T) {
			e, err := ForFormat(name)
			if err != nil {
				t.Fatalf("ForFormat failed: %v", err)
			}
			files, err := e.Export(empty, nil, base)
			if !errors.Is(err, ErrEmptyMesh) {
				t.Fatalf("expected ErrEmptyMesh, got %v", err)
			}
			if len(files) != 0 {
				t.Errorf("expected no files, got %v", files)
			}
		})
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("expected empty directory, found %d entries", len(entries))
	}
}

func TestForFormat(t *testing.T) {
	if _, err := ForFormat("OBJ"); err != nil {
		t.Errorf("expected case-insensitive lookup, got %v", err)
	}
	if _, err := ForFormat("fbx"); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("expected ErrUnknownFormat, got %v", err)
	}
	if got := strings.Join(Formats(), ","); got != "glb,obj" {
		t.Errorf("got formats %q", got)
	}
}

func TestGLB_RoundTrip(t *testing.T) {
	doc := BuildGLTF(makeTestMesh(), []string{"a.dds", "b.dds"}, "mesh")

	var buf bytes.Buffer
	if err := WriteGLB(&buf, doc); err != nil {
		t.Fatalf("WriteGLB failed: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("glTF")) {
		t.Fatal("output is not a binary glTF container")
	}

	var got gltf.Document
	if err := gltf.NewDecoder(bytes.NewReader(buf.Bytes())).Decode(&got); err != nil {
		t.Fatalf("decoding glb: %v", err)
	}

	if len(got.Meshes) != 1 || len(got.Meshes[0].Primitives) != 1 {
		t.Fatalf("expected one mesh with one primitive, got %+v", got.Meshes)
	}
	prim := got.Meshes[0].Primitives[0]

	for _, name := range []string{"POSITION", "NORMAL", "TEXCOORD_0", "TEXCOORD_1"} {
		idx, ok := prim.Attributes[name]
		if !ok {
			t.Errorf("missing attribute %s", name)
			continue
		}
		if got.Accessors[idx].Count != 3 {
			t.Errorf("%s: expected 3 elements, got %d", name, got.Accessors[idx].Count)
		}
	}

	if prim.Indices == nil || got.Accessors[*prim.Indices].Count != 3 {
		t.Error("expected 3 indices")
	}
	if prim.Material == nil || len(got.Images) != 2 || got.Images[0].URI != "a.dds" {
		t.Errorf("unexpected material binding: images %+v", got.Images)
	}
}

func TestGLB_Export(t *testing.T) {
	base := filepath.Join(t.TempDir(), "mesh")

	files, err := GLB{}.Export(makeTestMesh(), nil, base)
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if len(files) != 1 || files[0] != base+".glb" {
		t.Fatalf("unexpected files %v", files)
	}

	info, err := os.Stat(files[0])
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Size() == 0 {
		t.Error("glb file is empty")
	}
}
