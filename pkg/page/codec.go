package page

import (
	"encoding/binary"
	"unicode/utf8"
)

// headerSize is 2 + 2*wordSize bytes: one data_type byte, one flags byte,
// and two big-endian size fields.
//
// The source this format is derived from sized key_size/value_size with
// the host's native word size (typically 8 bytes on 64-bit hosts, but not
// guaranteed). A page file written with a different word size is not
// portable. We fix wordSize = 8 unconditionally so the format is stable
// across hosts and architectures; see SPEC_FULL.md for the rationale.
const (
	wordSize   = 8
	headerSize = 2 + 2*wordSize

	offsetDataType  = 0
	offsetFlags     = 1
	offsetKeySize   = 2
	offsetValueSize = 2 + wordSize
	offsetKeyStart  = 2 + 2*wordSize
)

// flag bits in the header's flags byte.
const (
	flagLive      byte = 0x00
	flagTombstone byte = 0x01
)

// entryHeader is the decoded fixed-size prefix of an on-disk entry.
type entryHeader struct {
	offset    uint64 // absolute offset of this header within the page
	dataType  DataType
	flags     byte
	keySize   uint64
	valueSize uint64
}

// tombstoned reports whether the header's tombstone bit is set.
func (h entryHeader) tombstoned() bool {
	return h.flags&flagTombstone != 0
}

// dataOffset is the absolute offset where the key payload begins.
func (h entryHeader) dataOffset() uint64 {
	return h.offset + headerSize
}

// totalSize is header + key + value, the number of bytes this entry
// occupies on disk.
func (h entryHeader) totalSize() uint64 {
	return headerSize + h.keySize + h.valueSize
}

// encodeHeader writes the header fields at data[h.offset:h.offset+headerSize].
func encodeHeader(data []byte, h entryHeader) {
	base := h.offset
	data[base+offsetDataType] = byte(h.dataType)
	data[base+offsetFlags] = h.flags
	binary.BigEndian.PutUint64(data[base+offsetKeySize:], h.keySize)
	binary.BigEndian.PutUint64(data[base+offsetValueSize:], h.valueSize)
}

// decodeHeaderAt parses a header at the given absolute offset. It does not
// validate data_type; callers that need a validated header check dataType
// explicitly (see validDataType).
func decodeHeaderAt(data []byte, offset uint64) entryHeader {
	base := offset
	return entryHeader{
		offset:    offset,
		dataType:  DataType(data[base+offsetDataType]),
		flags:     data[base+offsetFlags],
		keySize:   binary.BigEndian.Uint64(data[base+offsetKeySize:]),
		valueSize: binary.BigEndian.Uint64(data[base+offsetValueSize:]),
	}
}

// encodeValue writes a value's payload bytes into a caller-provided
// destination slice, which must be at least value.encodedLength() bytes;
// bytes past that length are left untouched.
func encodeValue(dst []byte, v Value) {
	switch v.typ {
	case TypeString:
		copy(dst, v.str)
	case TypeInteger:
		binary.BigEndian.PutUint64(dst, v.integer)
	case TypeBlob:
		copy(dst, v.blob)
	}
}

// decodeValue reconstructs a Value from a header's data_type and the raw
// value bytes. It validates that String payloads are UTF-8 and that
// Integer payloads are exactly 8 bytes.
func decodeValue(dataType DataType, raw []byte) (Value, error) {
	switch dataType {
	case TypeString:
		if !utf8.Valid(raw) {
			return Value{}, ErrInvalidDataType
		}
		return NewString(string(raw)), nil
	case TypeInteger:
		if len(raw) != 8 {
			return Value{}, ErrInvalidDataType
		}
		return NewInteger(binary.BigEndian.Uint64(raw)), nil
	case TypeBlob:
		out := make([]byte, len(raw))
		copy(out, raw)
		return NewBlob(out), nil
	default:
		return Value{}, ErrInvalidDataType
	}
}

// decodeKey extracts and validates the key bytes of an entry. Key bytes are
// caller-supplied and, unlike Integer/Blob payloads, have no length
// invariant to check — UTF-8 validity is the only structural property a
// key must hold, so both the recovery scan and Defrag's re-index step
// route through this to reject a key that isn't.
func decodeKey(raw []byte) (string, error) {
	if !utf8.Valid(raw) {
		return "", ErrCorrupted
	}
	return string(raw), nil
}

// validDataType reports whether b is one of the three defined data_type
// values.
func validDataType(b byte) bool {
	switch DataType(b) {
	case TypeString, TypeInteger, TypeBlob:
		return true
	default:
		return false
	}
}
