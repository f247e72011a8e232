package rip

import (
	"bytes"
	"encoding/binary"
	"math"

	"github.com/Faultbox/ripconv/pkg/encoding"
)

// AttributeSpec describes one schema entry to encode.
type AttributeSpec struct {
	Semantic      string
	SemanticIndex uint32
	Offset        uint32
	Size          uint32   // Zero means len(Formats)*4
	Formats       []uint32 // Raw format codes, one per element
}

// Builder encodes RIP files. Zero Magic and Version fields encode the
// supported values. Records must each be BlockSize bytes long.
type Builder struct {
	Magic      uint32
	Version    uint32
	BlockSize  uint32
	Attributes []AttributeSpec
	Textures   []string
	Shaders    []string
	Faces      [][3]uint32
	Records    [][]byte
}

// NewRecord returns a zeroed vertex record of BlockSize bytes.
func (b *Builder) NewRecord() []byte {
	return make([]byte, b.BlockSize)
}

// AddRecord appends a vertex record.
func (b *Builder) AddRecord(record []byte) {
	b.Records = append(b.Records, record)
}

// Bytes returns the encoded file.
func (b *Builder) Bytes() []byte {
	buf := new(bytes.Buffer)

	magic, version := b.Magic, b.Version
	if magic == 0 {
		magic = Magic
	}
	if version == 0 {
		version = Version
	}

	for _, v := range []uint32{
		magic,
		version,
		uint32(len(b.Faces)),
		uint32(len(b.Records)),
		b.BlockSize,
		uint32(len(b.Textures)),
		uint32(len(b.Shaders)),
		uint32(len(b.Attributes)),
	} {
		binary.Write(buf, binary.LittleEndian, v)
	}

	for _, a := range b.Attributes {
		writeCString(buf, a.Semantic)
		size := a.Size
		if size == 0 {
			size = uint32(len(a.Formats)) * elementSize
		}
		binary.Write(buf, binary.LittleEndian, a.SemanticIndex)
		binary.Write(buf, binary.LittleEndian, a.Offset)
		binary.Write(buf, binary.LittleEndian, size)
		binary.Write(buf, binary.LittleEndian, uint32(len(a.Formats)))
		for _, f := range a.Formats {
			binary.Write(buf, binary.LittleEndian, f)
		}
	}

	for _, t := range b.Textures {
		writeCString(buf, t)
	}
	for _, s := range b.Shaders {
		writeCString(buf, s)
	}
	for _, f := range b.Faces {
		binary.Write(buf, binary.LittleEndian, f)
	}
	for _, r := range b.Records {
		buf.Write(r)
	}

	return buf.Bytes()
}

func writeCString(buf *bytes.Buffer, s string) {
	buf.Write(encoding.UTF8ToCP437(s))
	buf.WriteByte(0)
}

// PutFloat32s writes little-endian floats into record starting at off.
func PutFloat32s(record []byte, off int, vals ...float32) {
	for i, v := range vals {
		binary.LittleEndian.PutUint32(record[off+i*4:], math.Float32bits(v))
	}
}

// PutUint32s writes little-endian uint32 values into record starting at off.
func PutUint32s(record []byte, off int, vals ...uint32) {
	for i, v := range vals {
		binary.LittleEndian.PutUint32(record[off+i*4:], v)
	}
}
