package page

import "fmt"

// DataType identifies the wire encoding of a Value, matching the on-disk
// data_type header byte.
type DataType uint8

const (
	// TypeString marks a value as UTF-8 text.
	TypeString DataType = 0x01
	// TypeInteger marks a value as a big-endian uint64.
	TypeInteger DataType = 0x02
	// TypeBlob marks a value as an opaque byte sequence.
	TypeBlob DataType = 0x03
)

// String returns a human-readable name for the data type, used in log
// fields and error messages.
func (t DataType) String() string {
	switch t {
	case TypeString:
		return "String"
	case TypeInteger:
		return "Integer"
	case TypeBlob:
		return "Blob"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(t))
	}
}

// Value is the closed tagged union a page stores under each key. Exactly
// one of the accessor methods is meaningful for a given Value; callers
// should switch on Type before reading the payload.
type Value struct {
	typ     DataType
	str     string
	integer uint64
	blob    []byte
}

// NewString builds a Value holding UTF-8 text.
func NewString(s string) Value {
	return Value{typ: TypeString, str: s}
}

// NewInteger builds a Value holding an unsigned 64-bit integer.
func NewInteger(n uint64) Value {
	return Value{typ: TypeInteger, integer: n}
}

// NewBlob builds a Value holding an opaque byte sequence. The slice is
// retained, not copied; callers should not mutate it afterwards.
func NewBlob(b []byte) Value {
	return Value{typ: TypeBlob, blob: b}
}

// Type reports which variant the Value holds.
func (v Value) Type() DataType {
	return v.typ
}

// StringValue returns the text payload. It panics if Type() != TypeString,
// mirroring the caller contract of a closed tagged union: callers are
// expected to switch on Type first.
func (v Value) StringValue() string {
	if v.typ != TypeString {
		panic(fmt.Sprintf("page: StringValue called on %s value", v.typ))
	}
	return v.str
}

// IntegerValue returns the integer payload.
func (v Value) IntegerValue() uint64 {
	if v.typ != TypeInteger {
		panic(fmt.Sprintf("page: IntegerValue called on %s value", v.typ))
	}
	return v.integer
}

// BlobValue returns the blob payload.
func (v Value) BlobValue() []byte {
	if v.typ != TypeBlob {
		panic(fmt.Sprintf("page: BlobValue called on %s value", v.typ))
	}
	return v.blob
}

// Equal reports whether two values have the same type and payload. Used by
// tests and by callers implementing idempotence checks.
func (v Value) Equal(other Value) bool {
	if v.typ != other.typ {
		return false
	}
	switch v.typ {
	case TypeString:
		return v.str == other.str
	case TypeInteger:
		return v.integer == other.integer
	case TypeBlob:
		if len(v.blob) != len(other.blob) {
			return false
		}
		for i := range v.blob {
			if v.blob[i] != other.blob[i] {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// encodedLength returns the number of payload bytes this value serializes
// to. For String and Blob this is the byte length of the payload; for
// Integer it is always 8.
func (v Value) encodedLength() uint64 {
	switch v.typ {
	case TypeString:
		return uint64(len(v.str))
	case TypeInteger:
		return 8
	case TypeBlob:
		return uint64(len(v.blob))
	default:
		return 0
	}
}
