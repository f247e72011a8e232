package rip

import (
	"errors"
	"fmt"
)

// RIP format errors.
var (
	ErrBadMagic             = errors.New("invalid RIP magic")
	ErrUnsupportedVersion   = errors.New("unsupported RIP version")
	ErrUnexpectedEOF        = errors.New("unexpected end of RIP data")
	ErrTruncatedVertexBlock = errors.New("truncated RIP vertex block")
	ErrSchemaOverflow       = errors.New("attribute exceeds vertex block")
	ErrUnknownFormatCode    = errors.New("unknown attribute format code")
	ErrInvalidElementCount  = errors.New("invalid attribute element count")
	ErrAttributeSize        = errors.New("attribute size does not match element count")
	ErrFaceIndexOutOfRange  = errors.New("face index out of range")
)

// ParseError describes a fatal decoding failure at a byte offset.
// It unwraps to one of the package sentinel errors.
type ParseError struct {
	Kind     error  // Sentinel error
	Offset   int    // Byte offset where the failure was detected
	Expected uint64 // Expected value or byte count (0 if not applicable)
	Actual   uint64 // Actual value or byte count
	Detail   string // Extra context, e.g. the offending attribute
}

func (e *ParseError) Error() string {
	msg := fmt.Sprintf("%v at offset %d", e.Kind, e.Offset)
	if e.Expected != 0 || e.Actual != 0 {
		msg += fmt.Sprintf(": expected %d, got %d", e.Expected, e.Actual)
	}
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	return msg
}

func (e *ParseError) Unwrap() error {
	return e.Kind
}

// ErrorKind returns the taxonomy name of a parse error, suitable for reports.
// Errors not produced by this package yield "IOError".
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrBadMagic):
		return "BadMagic"
	case errors.Is(err, ErrUnsupportedVersion):
		return "UnsupportedVersion"
	case errors.Is(err, ErrTruncatedVertexBlock):
		return "TruncatedVertexBlock"
	case errors.Is(err, ErrUnexpectedEOF):
		return "UnexpectedEof"
	case errors.Is(err, ErrSchemaOverflow):
		return "SchemaOverflow"
	case errors.Is(err, ErrUnknownFormatCode):
		return "UnknownFormatCode"
	case errors.Is(err, ErrInvalidElementCount):
		return "InvalidElementCount"
	case errors.Is(err, ErrAttributeSize):
		return "AttributeSize"
	case errors.Is(err, ErrFaceIndexOutOfRange):
		return "FaceIndexOutOfRange"
	default:
		return "IOError"
	}
}
