package page

import "testing"

func TestEncodeDecodeHeaderRoundTrip(t *testing.T) {
	data := make([]byte, 256)
	h := entryHeader{offset: 10, dataType: TypeBlob, flags: flagLive, keySize: 3, valueSize: 40}
	encodeHeader(data, h)

	got := decodeHeaderAt(data, 10)
	if got != h {
		t.Fatalf("decodeHeaderAt() = %+v, want %+v", got, h)
	}
}

func TestEntryHeaderDataOffsetAndTotalSize(t *testing.T) {
	h := entryHeader{offset: 100, keySize: 5, valueSize: 20}
	if got := h.dataOffset(); got != 100+headerSize {
		t.Errorf("dataOffset() = %d, want %d", got, 100+headerSize)
	}
	if got := h.totalSize(); got != headerSize+5+20 {
		t.Errorf("totalSize() = %d, want %d", got, headerSize+5+20)
	}
}

func TestEntryHeaderTombstoned(t *testing.T) {
	live := entryHeader{flags: flagLive}
	if live.tombstoned() {
		t.Error("tombstoned() = true for flagLive")
	}
	dead := entryHeader{flags: flagTombstone}
	if !dead.tombstoned() {
		t.Error("tombstoned() = false for flagTombstone")
	}
}

func TestEncodeDecodeValueString(t *testing.T) {
	v := NewString("hello")
	dst := make([]byte, v.encodedLength())
	encodeValue(dst, v)

	got, err := decodeValue(TypeString, dst)
	if err != nil {
		t.Fatalf("decodeValue() error = %v", err)
	}
	if !got.Equal(v) {
		t.Errorf("decodeValue() = %v, want %v", got, v)
	}
}

func TestDecodeValueStringRejectsInvalidUTF8(t *testing.T) {
	if _, err := decodeValue(TypeString, []byte{0xff, 0xfe}); err != ErrInvalidDataType {
		t.Fatalf("decodeValue() error = %v, want ErrInvalidDataType", err)
	}
}

func TestEncodeDecodeValueInteger(t *testing.T) {
	v := NewInteger(123456789)
	dst := make([]byte, v.encodedLength())
	encodeValue(dst, v)

	got, err := decodeValue(TypeInteger, dst)
	if err != nil {
		t.Fatalf("decodeValue() error = %v", err)
	}
	if got.IntegerValue() != 123456789 {
		t.Errorf("IntegerValue() = %d, want 123456789", got.IntegerValue())
	}
}

func TestDecodeValueIntegerRejectsWrongSize(t *testing.T) {
	if _, err := decodeValue(TypeInteger, []byte{1, 2, 3}); err != ErrInvalidDataType {
		t.Fatalf("decodeValue() error = %v, want ErrInvalidDataType", err)
	}
}

func TestEncodeDecodeValueBlob(t *testing.T) {
	v := NewBlob([]byte{1, 2, 3, 4})
	dst := make([]byte, v.encodedLength())
	encodeValue(dst, v)

	got, err := decodeValue(TypeBlob, dst)
	if err != nil {
		t.Fatalf("decodeValue() error = %v", err)
	}
	if !got.Equal(v) {
		t.Errorf("decodeValue() = %v, want %v", got, v)
	}
}

func TestValidDataType(t *testing.T) {
	for _, b := range []byte{0x01, 0x02, 0x03} {
		if !validDataType(b) {
			t.Errorf("validDataType(%#x) = false, want true", b)
		}
	}
	for _, b := range []byte{0x00, 0x04, 0xff} {
		if validDataType(b) {
			t.Errorf("validDataType(%#x) = true, want false", b)
		}
	}
}

func TestValueAccessorsPanicOnWrongVariant(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("StringValue() on an Integer did not panic")
		}
	}()
	NewInteger(1).StringValue()
}
