package rip

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math/rand"
	"reflect"
	"testing"
	"testing/quick"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// makeTriangleRIP builds a file with one float3 POSITION attribute in a
// 12-byte block, three vertices and the given faces.
func makeTriangleRIP(faces ...[3]uint32) *Builder {
	b := &Builder{
		BlockSize: 12,
		Attributes: []AttributeSpec{
			{Semantic: "POSITION", Offset: 0, Formats: []uint32{0, 0, 0}},
		},
		Faces: faces,
	}
	for _, p := range [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}} {
		r := b.NewRecord()
		PutFloat32s(r, 0, p[0], p[1], p[2])
		b.AddRecord(r)
	}
	return b
}

func TestParse_Triangle(t *testing.T) {
	doc, err := Parse(makeTriangleRIP([3]uint32{0, 1, 2}).Bytes())
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if doc.VertexCount() != 3 {
		t.Errorf("expected 3 vertices, got %d", doc.VertexCount())
	}
	if len(doc.Faces) != 1 || doc.Faces[0] != [3]uint32{0, 1, 2} {
		t.Errorf("expected face (0,1,2), got %v", doc.Faces)
	}
	if len(doc.Schema.Attributes) != 1 {
		t.Fatalf("expected 1 attribute, got %d", len(doc.Schema.Attributes))
	}

	pos := doc.Schema.Attributes[0]
	if pos.Semantic != "POSITION" || pos.Size != 12 || pos.Elements() != 3 {
		t.Errorf("unexpected attribute: %+v", pos)
	}
	if pos.Count() != 3 {
		t.Fatalf("expected 3 decoded tuples, got %d", pos.Count())
	}
	if pos.Float(1, 0) != 1 || pos.Float(2, 1) != 1 {
		t.Errorf("unexpected decoded values: %v", pos.data)
	}
}

func TestParse_HeaderValidation(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		wantErr error
	}{
		{
			name:    "bad magic",
			data:    (&Builder{Magic: 0x12345678, BlockSize: 4}).Bytes(),
			wantErr: ErrBadMagic,
		},
		{
			name:    "unsupported version",
			data:    (&Builder{Version: 3, BlockSize: 4}).Bytes(),
			wantErr: ErrUnsupportedVersion,
		},
		{
			name:    "empty data",
			data:    []byte{},
			wantErr: ErrUnexpectedEOF,
		},
		{
			name:    "truncated header",
			data:    (&Builder{BlockSize: 4}).Bytes()[:20],
			wantErr: ErrUnexpectedEOF,
		},
		{
			name:    "empty document",
			data:    (&Builder{BlockSize: 4}).Bytes(),
			wantErr: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Parse(tt.data)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if doc != nil {
				t.Error("expected nil document on failure")
			}
		})
	}
}

func TestParse_BadMagicContext(t *testing.T) {
	_, err := Parse((&Builder{Magic: 0xCAFEBABE}).Bytes())

	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *ParseError, got %v", err)
	}
	if pe.Offset != 0 || pe.Expected != uint64(Magic) || pe.Actual != 0xCAFEBABE {
		t.Errorf("unexpected context: %+v", pe)
	}
	if ErrorKind(err) != "BadMagic" {
		t.Errorf("expected kind BadMagic, got %s", ErrorKind(err))
	}
}

func TestParse_DegenerateFaces(t *testing.T) {
	tests := []struct {
		name  string
		faces [][3]uint32
		want  [][3]uint32
	}{
		{"only degenerate", [][3]uint32{{2, 2, 5}}, [][3]uint32{}},
		{"first two equal", [][3]uint32{{1, 1, 2}, {0, 1, 2}}, [][3]uint32{{0, 1, 2}}},
		{"outer equal", [][3]uint32{{2, 1, 2}}, [][3]uint32{}},
		{"all equal", [][3]uint32{{0, 0, 0}}, [][3]uint32{}},
		{"order kept", [][3]uint32{{2, 1, 0}, {0, 0, 1}, {0, 1, 2}}, [][3]uint32{{2, 1, 0}, {0, 1, 2}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Parse(makeTriangleRIP(tt.faces...).Bytes())
			if err != nil {
				t.Fatalf("Parse failed: %v", err)
			}
			if doc.Header.FaceCount != uint32(len(tt.faces)) {
				t.Errorf("expected declared count %d, got %d", len(tt.faces), doc.Header.FaceCount)
			}
			if !reflect.DeepEqual(doc.Faces, tt.want) {
				t.Errorf("got faces %v, want %v", doc.Faces, tt.want)
			}
		})
	}
}

func TestParse_FaceIndexOutOfRange(t *testing.T) {
	_, err := Parse(makeTriangleRIP([3]uint32{0, 1, 3}).Bytes())
	if !errors.Is(err, ErrFaceIndexOutOfRange) {
		t.Fatalf("expected ErrFaceIndexOutOfRange, got %v", err)
	}
}

func TestParse_TruncatedVertexBlock(t *testing.T) {
	b := &Builder{
		BlockSize:  12,
		Attributes: []AttributeSpec{{Semantic: "POSITION", Formats: []uint32{0, 0, 0}}},
	}
	for i := 0; i < 5; i++ {
		r := b.NewRecord()
		PutFloat32s(r, 0, float32(i), 0, 0)
		b.AddRecord(r)
	}
	data := b.Bytes()
	data = data[:len(data)-12] // only 4 full records remain

	doc, err := Parse(data)
	if !errors.Is(err, ErrTruncatedVertexBlock) {
		t.Fatalf("expected ErrTruncatedVertexBlock, got %v", err)
	}
	if doc != nil {
		t.Error("expected nil document")
	}

	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *ParseError, got %T", err)
	}
	if pe.Offset != len(data) {
		t.Errorf("expected failure at offset %d, got %d", len(data), pe.Offset)
	}
	if pe.Expected != 12 || pe.Actual != 0 {
		t.Errorf("expected 12/0 bytes, got %d/%d", pe.Expected, pe.Actual)
	}

	// A partial fifth record is still truncated.
	_, err = Parse(b.Bytes()[:len(b.Bytes())-5])
	if !errors.Is(err, ErrTruncatedVertexBlock) {
		t.Errorf("expected ErrTruncatedVertexBlock for partial record, got %v", err)
	}
}

func TestParse_TruncatedFaces(t *testing.T) {
	b := makeTriangleRIP([3]uint32{0, 1, 2})
	b.Records = nil
	data := b.Bytes()

	_, err := Parse(data[:len(data)-4])
	if !errors.Is(err, ErrUnexpectedEOF) {
		t.Fatalf("expected ErrUnexpectedEOF, got %v", err)
	}
}

func TestParse_SchemaBoundary(t *testing.T) {
	tests := []struct {
		name      string
		blockSize uint32
		offset    uint32
		wantErr   error
	}{
		{"ends at block end", 16, 4, nil},
		{"one past block end", 15, 4, ErrSchemaOverflow},
		{"offset past block", 8, 12, ErrSchemaOverflow},
		{"huge offset", 16, 0xFFFFFFFC, ErrSchemaOverflow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &Builder{
				BlockSize: tt.blockSize,
				Attributes: []AttributeSpec{
					{Semantic: "POSITION", Offset: tt.offset, Formats: []uint32{0, 0, 0}},
				},
			}
			b.AddRecord(b.NewRecord())

			_, err := Parse(b.Bytes())
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if ErrorKind(err) != "SchemaOverflow" {
				t.Errorf("expected kind SchemaOverflow, got %s", ErrorKind(err))
			}
		})
	}
}

func TestParse_AttributeValidation(t *testing.T) {
	tests := []struct {
		name    string
		attr    AttributeSpec
		wantErr error
	}{
		{"size mismatch", AttributeSpec{Semantic: "NORMAL", Size: 8, Formats: []uint32{0, 0, 0}}, ErrAttributeSize},
		{"zero elements", AttributeSpec{Semantic: "NORMAL", Size: 4}, ErrInvalidElementCount},
		{"five elements", AttributeSpec{Semantic: "NORMAL", Formats: []uint32{0, 0, 0, 0, 0}}, ErrInvalidElementCount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &Builder{BlockSize: 32, Attributes: []AttributeSpec{tt.attr}}
			_, err := Parse(b.Bytes())
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestParse_TruncatedSchema(t *testing.T) {
	b := &Builder{
		BlockSize:  12,
		Attributes: []AttributeSpec{{Semantic: "POSITION", Formats: []uint32{0, 0, 0}}},
	}
	data := b.Bytes()

	// Cut inside the format code list.
	_, err := Parse(data[:len(data)-2])
	if !errors.Is(err, ErrUnexpectedEOF) {
		t.Fatalf("expected ErrUnexpectedEOF, got %v", err)
	}
}

func TestParse_TruncatedStringTables(t *testing.T) {
	// header builds a 32-byte file with no attributes and nothing after it.
	header := func(textures, shaders uint32) []byte {
		data := make([]byte, HeaderSize)
		for i, v := range []uint32{Magic, Version, 0, 0, 0, textures, shaders, 0} {
			binary.LittleEndian.PutUint32(data[i*4:], v)
		}
		return data
	}

	tests := []struct {
		name   string
		data   []byte
		detail string
	}{
		{"textures", header(1<<24, 0), "texture 0 of 16777216"},
		{"shaders", header(0, 0xFFFFFFFF), "shader 0 of 4294967295"},
		{"second texture", append(header(2, 0), "Tex_0001_0.dds\x00"...), "texture 1 of 2"},
		{"shader after textures", append(header(1, 3), "Tex_0001_0.dds\x00"...), "shader 0 of 3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Parse(tt.data)
			if !errors.Is(err, ErrUnexpectedEOF) {
				t.Fatalf("expected ErrUnexpectedEOF, got %v", err)
			}
			if doc != nil {
				t.Error("expected no document on failure")
			}
			var pe *ParseError
			if !errors.As(err, &pe) || pe.Offset != len(tt.data) || pe.Detail != tt.detail {
				t.Errorf("unexpected error context: %v", err)
			}
		})
	}
}

func TestParse_UnterminatedFinalTexture(t *testing.T) {
	data := make([]byte, HeaderSize)
	for i, v := range []uint32{Magic, Version, 0, 0, 0, 1, 0, 0} {
		binary.LittleEndian.PutUint32(data[i*4:], v)
	}
	data = append(data, "Tex_0001_0.dds"...)

	doc, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(doc.Textures) != 1 || doc.Textures[0] != "Tex_0001_0.dds" {
		t.Errorf("got textures %q", doc.Textures)
	}
}

func TestParse_UnknownFormatCode(t *testing.T) {
	b := &Builder{
		BlockSize: 8,
		Attributes: []AttributeSpec{
			{Semantic: "TEXCOORD", Formats: []uint32{7, 0}},
		},
	}
	r := b.NewRecord()
	PutUint32s(r, 0, 200)
	PutFloat32s(r, 4, 0.25)
	b.AddRecord(r)
	data := b.Bytes()

	t.Run("fallback warns", func(t *testing.T) {
		core, logs := observer.New(zapcore.WarnLevel)

		doc, err := Parse(data, WithLogger(zap.New(core)))
		if err != nil {
			t.Fatalf("Parse failed: %v", err)
		}

		a := doc.Schema.Attributes[0]
		if a.Formats[0] != FormatUint || a.RawFormats[0] != 7 {
			t.Errorf("expected uint fallback for code 7, got %v (raw %d)", a.Formats[0], a.RawFormats[0])
		}
		if a.Float(0, 0) != 200 || a.Float(0, 1) != 0.25 {
			t.Errorf("unexpected values %v, %v", a.Float(0, 0), a.Float(0, 1))
		}

		warnings := logs.FilterMessageSnippet("unknown attribute format").All()
		if len(warnings) != 1 {
			t.Fatalf("expected 1 warning, got %d", len(warnings))
		}
		if code := warnings[0].ContextMap()["code"]; code != uint32(7) {
			t.Errorf("expected code 7 in warning, got %v", code)
		}
	})

	t.Run("strict fails", func(t *testing.T) {
		_, err := Parse(data, WithStrictFormats(true))
		if !errors.Is(err, ErrUnknownFormatCode) {
			t.Fatalf("expected ErrUnknownFormatCode, got %v", err)
		}
	})
}

func TestParse_TexturesAndShaders(t *testing.T) {
	b := makeTriangleRIP([3]uint32{0, 1, 2})
	b.Textures = []string{"Tex_0001_0.dds", "Tex_0002_1.dds"}
	b.Shaders = []string{"Shader_0001.fx", ""}

	doc, err := Parse(b.Bytes())
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if !reflect.DeepEqual(doc.Textures, b.Textures) {
		t.Errorf("got textures %v, want %v", doc.Textures, b.Textures)
	}
	if doc.Header.ShaderCount != 2 {
		t.Errorf("expected shader count 2, got %d", doc.Header.ShaderCount)
	}
	if len(doc.Faces) != 1 {
		t.Errorf("shader skip misaligned faces: %v", doc.Faces)
	}
}

func TestSchema_Find(t *testing.T) {
	b := &Builder{
		BlockSize: 28,
		Attributes: []AttributeSpec{
			{Semantic: "POSITION", Offset: 0, Formats: []uint32{0, 0, 0}},
			{Semantic: "TEXCOORD", SemanticIndex: 0, Offset: 12, Formats: []uint32{0, 0}},
			{Semantic: "TEXCOORD", SemanticIndex: 1, Offset: 20, Formats: []uint32{0, 0}},
		},
	}
	doc, err := Parse(b.Bytes())
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	uvs := doc.Schema.Find("TEXCOORD")
	if len(uvs) != 2 || uvs[0].SemanticIndex != 0 || uvs[1].SemanticIndex != 1 {
		t.Errorf("expected both TEXCOORD attributes in file order, got %+v", uvs)
	}
	if got := doc.Schema.Find("NORMAL"); len(got) != 0 {
		t.Errorf("expected no NORMAL attributes, got %d", len(got))
	}
}

func TestParse_Idempotent(t *testing.T) {
	data := makeTriangleRIP([3]uint32{0, 1, 2}, [3]uint32{1, 1, 2}).Bytes()

	a, err := Parse(data)
	if err != nil {
		t.Fatalf("first parse failed: %v", err)
	}
	b, err := Parse(data)
	if err != nil {
		t.Fatalf("second parse failed: %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Error("parsing the same buffer twice gave different documents")
	}
}

// randomLayout builds a file with disjoint attribute ranges and random
// record contents, returning the builder used.
func randomLayout(r *rand.Rand) *Builder {
	semantics := []string{"POSITION", "NORMAL", "TEXCOORD", "COLOR", "TANGENT"}
	b := &Builder{}

	var cur uint32
	n := 1 + r.Intn(5)
	for i := 0; i < n; i++ {
		cur += uint32(r.Intn(4)) // arbitrary, possibly unaligned gap
		count := 1 + r.Intn(MaxElements)
		formats := make([]uint32, count)
		for j := range formats {
			formats[j] = uint32(r.Intn(5)) // includes unknown codes 3 and 4
		}
		b.Attributes = append(b.Attributes, AttributeSpec{
			Semantic:      semantics[r.Intn(len(semantics))],
			SemanticIndex: uint32(r.Intn(3)),
			Offset:        cur,
			Formats:       formats,
		})
		cur += uint32(count) * 4
	}
	b.BlockSize = cur + uint32(r.Intn(4))

	verts := r.Intn(8)
	for i := 0; i < verts; i++ {
		rec := b.NewRecord()
		r.Read(rec)
		b.AddRecord(rec)
	}
	return b
}

func TestParse_RoundTrip(t *testing.T) {
	property := func(seed int64) bool {
		b := randomLayout(rand.New(rand.NewSource(seed)))

		doc, err := Parse(b.Bytes())
		if err != nil {
			t.Logf("seed %d: %v", seed, err)
			return false
		}
		if len(doc.Schema.Attributes) != len(b.Attributes) {
			return false
		}

		for i, spec := range b.Attributes {
			a := doc.Schema.Attributes[i]
			if a.Semantic != spec.Semantic || a.SemanticIndex != spec.SemanticIndex ||
				a.Offset != spec.Offset || a.Size != uint32(len(spec.Formats))*4 ||
				!reflect.DeepEqual(a.RawFormats, spec.Formats) {
				t.Logf("seed %d: attribute %d mismatch: %+v vs %+v", seed, i, a, spec)
				return false
			}
			if a.Count() != len(b.Records) {
				return false
			}
			for v, rec := range b.Records {
				for j := range spec.Formats {
					want := binary.LittleEndian.Uint32(rec[int(spec.Offset)+j*4:])
					if a.Uint(v, j) != want {
						t.Logf("seed %d: attr %d vertex %d elem %d: got %08x want %08x",
							seed, i, v, j, a.Uint(v, j), want)
						return false
					}
				}
			}
		}
		return true
	}

	if err := quick.Check(property, &quick.Config{MaxCount: 300}); err != nil {
		t.Error(err)
	}
}

func TestParse_RoundTripSignedAndFloat(t *testing.T) {
	b := &Builder{
		BlockSize: 12,
		Attributes: []AttributeSpec{
			{Semantic: "BLENDINDICES", Offset: 0, Formats: []uint32{2}},
			{Semantic: "PSIZE", Offset: 4, Formats: []uint32{0}},
			{Semantic: "COLOR", Offset: 8, Formats: []uint32{1}},
		},
	}
	r := b.NewRecord()
	PutUint32s(r, 0, uint32(0xFFFFFFFE)) // -2
	PutFloat32s(r, 4, -3.25)
	PutUint32s(r, 8, 4000000000)
	b.AddRecord(r)

	doc, err := Parse(b.Bytes())
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	attrs := doc.Schema.Attributes
	if got := attrs[0].Int(0, 0); got != -2 {
		t.Errorf("int: got %d, want -2", got)
	}
	if got := attrs[0].Float(0, 0); got != -2 {
		t.Errorf("int as float: got %f, want -2", got)
	}
	if got := attrs[1].Float(0, 0); got != -3.25 {
		t.Errorf("float: got %f, want -3.25", got)
	}
	if got := attrs[2].Float(0, 0); got != 4000000000 {
		t.Errorf("uint as float: got %f", got)
	}
}

func TestFormat_String(t *testing.T) {
	tests := []struct {
		format Format
		want   string
	}{
		{FormatFloat, "float"},
		{FormatUint, "uint"},
		{FormatInt, "int"},
		{Format(9), "Unknown(9)"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.format.String(); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestErrorKind(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{ErrBadMagic, "BadMagic"},
		{fmt.Errorf("wrapped: %w", &ParseError{Kind: ErrTruncatedVertexBlock}), "TruncatedVertexBlock"},
		{&ParseError{Kind: ErrUnexpectedEOF}, "UnexpectedEof"},
		{errors.New("disk on fire"), "IOError"},
	}

	for _, tt := range tests {
		if got := ErrorKind(tt.err); got != tt.want {
			t.Errorf("ErrorKind(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
