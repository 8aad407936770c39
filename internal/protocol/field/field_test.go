package field

import (
	"bytes"
	"errors"
	"testing"
)

func TestPutUintBigEndian(t *testing.T) {
	buf := make([]byte, 8)
	if err := PutUint16(buf, 0, 0x1234); err != nil {
		t.Fatalf("put u16: %v", err)
	}
	if err := PutUint32(buf, 2, 0xA1B2C3D4); err != nil {
		t.Fatalf("put u32: %v", err)
	}
	if err := PutUint8(buf, 6, 0x7F); err != nil {
		t.Fatalf("put u8: %v", err)
	}
	want := []byte{0x12, 0x34, 0xA1, 0xB2, 0xC3, 0xD4, 0x7F, 0x00}
	if !bytes.Equal(buf, want) {
		t.Fatalf("unexpected bytes: % X", buf)
	}
}

func TestPutOutOfBoundsIsLayoutError(t *testing.T) {
	cases := []struct {
		name string
		fn   func() error
	}{
		{"u8 past end", func() error { return PutUint8(make([]byte, 2), 2, 1) }},
		{"u16 straddles end", func() error { return PutUint16(make([]byte, 3), 2, 1) }},
		{"u32 straddles end", func() error { return PutUint32(make([]byte, 4), 1, 1) }},
		{"negative offset", func() error { return PutUint16(make([]byte, 4), -1, 1) }},
		{"text width past end", func() error { return PutText(make([]byte, 4), 0, "ab", 10, EncodingASCII) }},
	}
	for _, tc := range cases {
		err := tc.fn()
		if !errors.Is(err, ErrOutOfBounds) {
			t.Fatalf("%s: expected ErrOutOfBounds, got %v", tc.name, err)
		}
		if !errors.Is(err, ErrLayout) {
			t.Fatalf("%s: expected ErrLayout, got %v", tc.name, err)
		}
	}
}

func TestPutTextLeftAlignedAndPadded(t *testing.T) {
	buf := make([]byte, 12)
	if err := PutText(buf, 1, "Elf", 10, EncodingASCII); err != nil {
		t.Fatalf("put text: %v", err)
	}
	want := []byte{0, 'E', 'l', 'f', 0, 0, 0, 0, 0, 0, 0, 0}
	if !bytes.Equal(buf, want) {
		t.Fatalf("unexpected bytes: % X", buf)
	}
}

func TestPutTextExactWidthFits(t *testing.T) {
	buf := make([]byte, 10)
	if err := PutText(buf, 0, "0123456789", 10, EncodingASCII); err != nil {
		t.Fatalf("put text: %v", err)
	}
	if string(buf) != "0123456789" {
		t.Fatalf("unexpected text: %q", buf)
	}
}

func TestPutTextTooLongFails(t *testing.T) {
	buf := make([]byte, 16)
	err := PutText(buf, 0, "ElevenChars", 10, EncodingASCII)
	if !errors.Is(err, ErrTextTooLong) || !errors.Is(err, ErrLayout) {
		t.Fatalf("expected ErrTextTooLong, got %v", err)
	}
	if !bytes.Equal(buf, make([]byte, 16)) {
		t.Fatalf("buffer modified on failure: % X", buf)
	}
}

func TestPutTextUTF8CountsBytes(t *testing.T) {
	buf := make([]byte, 8)
	// 4 runes, 8 bytes.
	if err := PutText(buf, 0, "éééé", 8, EncodingUTF8); err != nil {
		t.Fatalf("put utf-8 text: %v", err)
	}
	err := PutText(make([]byte, 8), 0, "ééééé", 8, EncodingUTF8)
	if !errors.Is(err, ErrTextTooLong) {
		t.Fatalf("expected ErrTextTooLong, got %v", err)
	}
}

func TestPutTextASCIIRejectsNonASCII(t *testing.T) {
	err := PutText(make([]byte, 10), 0, "héllo", 10, EncodingASCII)
	if !errors.Is(err, ErrTextEncoding) {
		t.Fatalf("expected ErrTextEncoding, got %v", err)
	}
}

func TestSetFlagHighBit(t *testing.T) {
	v := SetFlag(0x1234, HighBitFlag)
	if v != 0x9234 {
		t.Fatalf("unexpected value: 0x%04X", v)
	}
	if !HasFlag(v, HighBitFlag) || HasFlag(0x1234, HighBitFlag) {
		t.Fatalf("flag detection mismatch")
	}
	if SetFlag(v, HighBitFlag) != v {
		t.Fatalf("setting flag twice changed value")
	}
}

func TestPutFlaggedUint16(t *testing.T) {
	buf := make([]byte, 2)
	if err := PutFlaggedUint16(buf, 0, 0x0001, HighBitFlag, false); err != nil {
		t.Fatalf("put: %v", err)
	}
	if !bytes.Equal(buf, []byte{0x00, 0x01}) {
		t.Fatalf("unexpected bytes: % X", buf)
	}
	if err := PutFlaggedUint16(buf, 0, 0x0001, HighBitFlag, true); err != nil {
		t.Fatalf("put: %v", err)
	}
	if !bytes.Equal(buf, []byte{0x80, 0x01}) {
		t.Fatalf("unexpected bytes: % X", buf)
	}

	buf = []byte{0xAA, 0xBB}
	for _, set := range []bool{false, true} {
		err := PutFlaggedUint16(buf, 0, 0x8001, HighBitFlag, set)
		if !errors.Is(err, ErrFlagBitInUse) || !errors.Is(err, ErrLayout) {
			t.Fatalf("set=%v: expected ErrFlagBitInUse, got %v", set, err)
		}
	}
	if !bytes.Equal(buf, []byte{0xAA, 0xBB}) {
		t.Fatalf("rejected value was written: % X", buf)
	}
}
