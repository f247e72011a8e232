package rip

import "fmt"

// Schema describes how to slice one fixed-size vertex record.
type Schema struct {
	BlockSize  uint32       // Bytes per vertex record
	Attributes []*Attribute // In file order
}

// Validate checks that every attribute fits inside the vertex record and
// that its byte size matches its element count.
func (s *Schema) Validate() error {
	for i, a := range s.Attributes {
		name := fmt.Sprintf("attribute %d %s%d", i, a.Semantic, a.SemanticIndex)
		if a.End() > uint64(s.BlockSize) {
			return &ParseError{
				Kind:     ErrSchemaOverflow,
				Offset:   a.pos,
				Expected: uint64(s.BlockSize),
				Actual:   a.End(),
				Detail:   name,
			}
		}
		if want := uint64(a.Elements()) * elementSize; uint64(a.Size) != want {
			return &ParseError{
				Kind:     ErrAttributeSize,
				Offset:   a.pos,
				Expected: want,
				Actual:   uint64(a.Size),
				Detail:   name,
			}
		}
	}
	return nil
}

// Find returns the attributes whose semantic equals name, in file order.
func (s *Schema) Find(name string) []*Attribute {
	var out []*Attribute
	for _, a := range s.Attributes {
		if a.Semantic == name {
			out = append(out, a)
		}
	}
	return out
}

// decode slices one vertex record into every attribute.
func (s *Schema) decode(record []byte) {
	for _, a := range s.Attributes {
		a.decode(record)
	}
}

// reserve preallocates decoded storage for n vertices.
func (s *Schema) reserve(n int) {
	for _, a := range s.Attributes {
		a.data = make([]uint32, 0, n*a.Elements())
	}
}
