package rip

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Format is the numeric type of one attribute element.
type Format uint32

const (
	FormatFloat Format = 0 // IEEE 754 float32
	FormatUint  Format = 1 // uint32
	FormatInt   Format = 2 // int32
)

// String returns a human-readable format name.
func (f Format) String() string {
	switch f {
	case FormatFloat:
		return "float"
	case FormatUint:
		return "uint"
	case FormatInt:
		return "int"
	default:
		return fmt.Sprintf("Unknown(%d)", uint32(f))
	}
}

// Known reports whether f is one of the defined format codes.
func (f Format) Known() bool {
	return f <= FormatInt
}

// MaxElements is the largest element count an attribute may declare.
const MaxElements = 4

// elementSize is the byte width of every attribute element.
const elementSize = 4

// Attribute is one entry of the vertex schema. Its decoded values are
// filled in during the vertex pass, one tuple per vertex record.
type Attribute struct {
	Semantic      string   // Semantic name, e.g. "POSITION" (not unique)
	SemanticIndex uint32   // Disambiguates repeated semantics
	Offset        uint32   // Byte offset inside a vertex record
	Size          uint32   // Byte size inside a vertex record
	Formats       []Format // One per element; unknown codes already mapped to FormatUint
	RawFormats    []uint32 // Format codes as stored in the file

	// data holds the raw 32-bit words of every decoded tuple, flattened
	// with stride len(Formats).
	data []uint32
	pos  int // file offset of the schema entry
}

// Elements returns the number of elements per tuple.
func (a *Attribute) Elements() int {
	return len(a.Formats)
}

// End returns Offset+Size without overflowing.
func (a *Attribute) End() uint64 {
	return uint64(a.Offset) + uint64(a.Size)
}

// Count returns the number of decoded tuples.
func (a *Attribute) Count() int {
	if len(a.Formats) == 0 {
		return 0
	}
	return len(a.data) / len(a.Formats)
}

// Float returns element j of tuple i converted to float32 according to its format.
// Integer elements are converted by value, without normalization.
func (a *Attribute) Float(i, j int) float32 {
	bits := a.data[i*len(a.Formats)+j]
	switch a.Formats[j] {
	case FormatFloat:
		return math.Float32frombits(bits)
	case FormatInt:
		return float32(int32(bits))
	default:
		return float32(bits)
	}
}

// Uint returns element j of tuple i as stored.
func (a *Attribute) Uint(i, j int) uint32 {
	return a.data[i*len(a.Formats)+j]
}

// Int returns element j of tuple i reinterpreted as int32.
func (a *Attribute) Int(i, j int) int32 {
	return int32(a.data[i*len(a.Formats)+j])
}

// IsFloat reports whether the first n elements are all float-encoded.
func (a *Attribute) IsFloat(n int) bool {
	n = min(n, len(a.Formats))
	for j := 0; j < n; j++ {
		if a.Formats[j] != FormatFloat {
			return false
		}
	}
	return true
}

// decode appends one tuple sliced from a vertex record.
// The schema has already guaranteed the byte range lies within record.
func (a *Attribute) decode(record []byte) {
	field := record[a.Offset:a.End()]
	for j := range a.Formats {
		a.data = append(a.data, binary.LittleEndian.Uint32(field[j*elementSize:]))
	}
}

// parseAttribute reads one schema entry from the cursor. Unknown format
// codes are mapped to FormatUint and reported through onUnknown; a non-nil
// return from onUnknown aborts the parse.
func parseAttribute(c *Cursor, onUnknown func(a *Attribute, elem int, code uint32, off int) error) (*Attribute, error) {
	a := &Attribute{pos: c.Pos()}
	a.Semantic = c.ReadCString()

	var err error
	if a.SemanticIndex, err = c.ReadUint32(); err != nil {
		return nil, err
	}
	if a.Offset, err = c.ReadUint32(); err != nil {
		return nil, err
	}
	if a.Size, err = c.ReadUint32(); err != nil {
		return nil, err
	}

	countOff := c.Pos()
	count, err := c.ReadUint32()
	if err != nil {
		return nil, err
	}
	if count == 0 || count > MaxElements {
		return nil, &ParseError{
			Kind:   ErrInvalidElementCount,
			Offset: countOff,
			Actual: uint64(count),
			Detail: fmt.Sprintf("attribute %s%d", a.Semantic, a.SemanticIndex),
		}
	}

	a.Formats = make([]Format, count)
	a.RawFormats = make([]uint32, count)
	for j := range a.Formats {
		off := c.Pos()
		code, err := c.ReadUint32()
		if err != nil {
			return nil, err
		}
		a.RawFormats[j] = code
		f := Format(code)
		if !f.Known() {
			f = FormatUint
			if onUnknown != nil {
				if err := onUnknown(a, j, code, off); err != nil {
					return nil, err
				}
			}
		}
		a.Formats[j] = f
	}

	return a, nil
}
