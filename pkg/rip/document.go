// Package rip parses self-describing RIP geometry capture files.
//
// A RIP file embeds a vertex schema: a table of named attributes giving the
// byte range and element formats of each attribute inside a fixed-size
// vertex record. The parser applies that schema to the packed vertex stream
// in a single sequential pass.
package rip

import (
	"fmt"
	"os"

	"go.uber.org/zap"
)

// Magic is the RIP file signature.
const Magic uint32 = 0xDEADC0DE

// Version is the only supported RIP version.
const Version uint32 = 4

// HeaderSize is the byte size of the fixed header.
const HeaderSize = 32

// Header holds the fixed-size RIP header fields.
type Header struct {
	Magic          uint32
	Version        uint32
	FaceCount      uint32 // Declared face count (before degenerate filtering)
	VertexCount    uint32
	BlockSize      uint32 // Bytes per vertex record
	TextureCount   uint32
	ShaderCount    uint32
	AttributeCount uint32
}

// Document is a fully parsed RIP file. It is never returned partially built.
type Document struct {
	Header   Header
	Schema   Schema
	Textures []string    // Texture filenames in file order
	Faces    [][3]uint32 // Non-degenerate triangles in file order
}

// VertexCount returns the number of decoded vertices.
func (d *Document) VertexCount() int {
	return int(d.Header.VertexCount)
}

// Option configures the parser.
type Option func(*parser)

// WithLogger sets the logger used for non-fatal warnings.
func WithLogger(log *zap.Logger) Option {
	return func(p *parser) {
		if log != nil {
			p.log = log
		}
	}
}

// WithStrictFormats makes unknown attribute format codes fatal instead of
// falling back to unsigned integer decoding.
func WithStrictFormats(strict bool) Option {
	return func(p *parser) {
		p.strict = strict
	}
}

// parseState is one stage of the sequential parse.
type parseState int

const (
	stateHeader parseState = iota
	stateSchema
	stateTextures
	stateShaders
	stateFaces
	stateVertices
	stateDone
)

// String returns the stage name.
func (s parseState) String() string {
	switch s {
	case stateHeader:
		return "header"
	case stateSchema:
		return "schema"
	case stateTextures:
		return "textures"
	case stateShaders:
		return "shaders"
	case stateFaces:
		return "faces"
	case stateVertices:
		return "vertices"
	case stateDone:
		return "done"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

type parser struct {
	c      *Cursor
	doc    *Document
	log    *zap.Logger
	strict bool
}

// Parse parses RIP data from a byte slice.
func Parse(data []byte, opts ...Option) (*Document, error) {
	p := &parser{
		c:   NewCursor(data),
		doc: &Document{},
		log: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}

	steps := []struct {
		state parseState
		run   func() error
	}{
		{stateHeader, p.parseHeader},
		{stateSchema, p.parseSchema},
		{stateTextures, p.parseTextures},
		{stateShaders, p.skipShaders},
		{stateFaces, p.parseFaces},
		{stateVertices, p.parseVertices},
	}
	for _, step := range steps {
		if err := step.run(); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", step.state, err)
		}
	}

	return p.doc, nil
}

// ParseFile parses a RIP file from disk. The whole file is read into memory
// before decoding starts.
func ParseFile(path string, opts ...Option) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading RIP file: %w", err)
	}
	return Parse(data, opts...)
}

func (p *parser) parseHeader() error {
	h := &p.doc.Header

	var err error
	if h.Magic, err = p.c.ReadUint32(); err != nil {
		return err
	}
	if h.Magic != Magic {
		return &ParseError{Kind: ErrBadMagic, Offset: 0, Expected: uint64(Magic), Actual: uint64(h.Magic)}
	}

	if h.Version, err = p.c.ReadUint32(); err != nil {
		return err
	}
	if h.Version != Version {
		return &ParseError{Kind: ErrUnsupportedVersion, Offset: 4, Expected: uint64(Version), Actual: uint64(h.Version)}
	}

	for _, field := range []*uint32{
		&h.FaceCount,
		&h.VertexCount,
		&h.BlockSize,
		&h.TextureCount,
		&h.ShaderCount,
		&h.AttributeCount,
	} {
		if *field, err = p.c.ReadUint32(); err != nil {
			return err
		}
	}
	return nil
}

func (p *parser) parseSchema() error {
	h := &p.doc.Header
	p.doc.Schema.BlockSize = h.BlockSize

	for i := uint32(0); i < h.AttributeCount; i++ {
		a, err := parseAttribute(p.c, p.unknownFormat)
		if err != nil {
			return fmt.Errorf("attribute %d: %w", i, err)
		}
		p.doc.Schema.Attributes = append(p.doc.Schema.Attributes, a)
	}

	return p.doc.Schema.Validate()
}

// unknownFormat handles a format code outside the known set.
func (p *parser) unknownFormat(a *Attribute, elem int, code uint32, off int) error {
	if p.strict {
		return &ParseError{
			Kind:     ErrUnknownFormatCode,
			Offset:   off,
			Expected: uint64(FormatInt),
			Actual:   uint64(code),
			Detail:   fmt.Sprintf("attribute %s%d element %d", a.Semantic, a.SemanticIndex, elem),
		}
	}
	p.log.Warn("unknown attribute format code, decoding as uint",
		zap.String("semantic", a.Semantic),
		zap.Uint32("semantic_index", a.SemanticIndex),
		zap.Int("element", elem),
		zap.Uint32("code", code),
		zap.Int("offset", off))
	return nil
}

func (p *parser) parseTextures() error {
	n := p.doc.Header.TextureCount
	for i := uint32(0); i < n; i++ {
		if err := p.requireString("texture", i, n); err != nil {
			return err
		}
		p.doc.Textures = append(p.doc.Textures, p.c.ReadCString())
	}
	return nil
}

func (p *parser) skipShaders() error {
	n := p.doc.Header.ShaderCount
	for i := uint32(0); i < n; i++ {
		if err := p.requireString("shader", i, n); err != nil {
			return err
		}
		_ = p.c.ReadCString()
	}
	return nil
}

// requireString fails when a declared string table entry starts at the end
// of the buffer. An unterminated final string is still accepted.
func (p *parser) requireString(table string, i, n uint32) error {
	if p.c.Len() > 0 {
		return nil
	}
	return &ParseError{
		Kind:     ErrUnexpectedEOF,
		Offset:   p.c.Pos(),
		Expected: uint64(n - i),
		Detail:   fmt.Sprintf("%s %d of %d", table, i, n),
	}
}

func (p *parser) parseFaces() error {
	h := &p.doc.Header
	if need := uint64(h.FaceCount) * 12; need > uint64(p.c.Len()) {
		return &ParseError{Kind: ErrUnexpectedEOF, Offset: p.c.Pos(), Expected: need, Actual: uint64(p.c.Len())}
	}

	faces := make([][3]uint32, 0, h.FaceCount)
	dropped := 0
	for i := uint32(0); i < h.FaceCount; i++ {
		off := p.c.Pos()
		var f [3]uint32
		for k := range f {
			v, err := p.c.ReadUint32()
			if err != nil {
				return err
			}
			f[k] = v
		}

		if f[0] == f[1] || f[1] == f[2] || f[0] == f[2] {
			dropped++
			continue
		}
		for _, idx := range f {
			if idx >= h.VertexCount {
				return &ParseError{
					Kind:     ErrFaceIndexOutOfRange,
					Offset:   off,
					Expected: uint64(h.VertexCount),
					Actual:   uint64(idx),
					Detail:   fmt.Sprintf("face %d", i),
				}
			}
		}
		faces = append(faces, f)
	}

	if dropped > 0 {
		p.log.Debug("dropped degenerate faces",
			zap.Int("dropped", dropped),
			zap.Uint32("declared", h.FaceCount))
	}
	p.doc.Faces = faces
	return nil
}

func (p *parser) parseVertices() error {
	h := &p.doc.Header
	s := &p.doc.Schema

	// Zero-width records carry no attribute data.
	if h.BlockSize == 0 {
		return nil
	}
	s.reserve(min(int(h.VertexCount), p.c.Len()/int(h.BlockSize)))

	for i := uint32(0); i < h.VertexCount; i++ {
		off := p.c.Pos()
		record, err := p.c.ReadBytes(int(h.BlockSize))
		if err != nil {
			return &ParseError{
				Kind:     ErrTruncatedVertexBlock,
				Offset:   off,
				Expected: uint64(h.BlockSize),
				Actual:   uint64(p.c.Len()),
				Detail:   fmt.Sprintf("vertex %d of %d", i, h.VertexCount),
			}
		}
		s.decode(record)
	}
	return nil
}
