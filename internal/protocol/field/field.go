package field

import (
	"encoding/binary"
	"errors"
	"fmt"
	"unicode/utf8"
)

// HighBitFlag is bit 7 of the high byte of a 16-bit identifier.
const HighBitFlag uint = 15

var (
	ErrLayout       = errors.New("field: layout violation")
	ErrOutOfBounds  = fmt.Errorf("%w: write exceeds buffer", ErrLayout)
	ErrTextTooLong  = fmt.Errorf("%w: text exceeds field width", ErrLayout)
	ErrTextEncoding = fmt.Errorf("%w: text not representable in field encoding", ErrLayout)
	ErrFlagBitInUse = fmt.Errorf("%w: value already uses the flag bit", ErrLayout)
)

// Encoding selects how fixed-width text is turned into bytes.
type Encoding uint8

const (
	EncodingASCII Encoding = iota
	EncodingUTF8
)

func (e Encoding) String() string {
	switch e {
	case EncodingASCII:
		return "ascii"
	case EncodingUTF8:
		return "utf-8"
	default:
		return fmt.Sprintf("encoding(%d)", uint8(e))
	}
}

func checkBounds(buf []byte, off, width int) error {
	if off < 0 || width < 0 || off > len(buf) || len(buf)-off < width {
		return fmt.Errorf("%w: offset=%d width=%d len=%d", ErrOutOfBounds, off, width, len(buf))
	}
	return nil
}

// PutUint8 writes one byte at off.
func PutUint8(buf []byte, off int, v uint8) error {
	if err := checkBounds(buf, off, 1); err != nil {
		return err
	}
	buf[off] = v
	return nil
}

// PutUint16 writes v big-endian at off.
func PutUint16(buf []byte, off int, v uint16) error {
	if err := checkBounds(buf, off, 2); err != nil {
		return err
	}
	binary.BigEndian.PutUint16(buf[off:off+2], v)
	return nil
}

// PutUint32 writes v big-endian at off.
func PutUint32(buf []byte, off int, v uint32) error {
	if err := checkBounds(buf, off, 4); err != nil {
		return err
	}
	binary.BigEndian.PutUint32(buf[off:off+4], v)
	return nil
}

// PutText writes text left-aligned into buf[off:off+width]. Bytes after the
// text are left as they are. Text that does not fit is an error, never
// truncated.
func PutText(buf []byte, off int, text string, width int, enc Encoding) error {
	if err := checkBounds(buf, off, width); err != nil {
		return err
	}
	switch enc {
	case EncodingASCII:
		for i := 0; i < len(text); i++ {
			if text[i] >= utf8.RuneSelf {
				return fmt.Errorf("%w: %s byte 0x%02x at %d", ErrTextEncoding, enc, text[i], i)
			}
		}
	case EncodingUTF8:
		if !utf8.ValidString(text) {
			return fmt.Errorf("%w: %s", ErrTextEncoding, enc)
		}
	default:
		return fmt.Errorf("%w: unknown %s", ErrTextEncoding, enc)
	}
	if len(text) > width {
		return fmt.Errorf("%w: %q is %d bytes, width %d", ErrTextTooLong, text, len(text), width)
	}
	copy(buf[off:off+width], text)
	return nil
}

// SetFlag overlays a boolean flag on bit of v.
func SetFlag(v uint16, bit uint) uint16 {
	return v | 1<<bit
}

// HasFlag reports whether bit of v is set.
func HasFlag(v uint16, bit uint) bool {
	return v&(1<<bit) != 0
}

// PutFlaggedUint16 writes v big-endian at off with bit set exactly when set is
// true. v must leave bit clear.
func PutFlaggedUint16(buf []byte, off int, v uint16, bit uint, set bool) error {
	if HasFlag(v, bit) {
		return fmt.Errorf("%w: value=0x%04X bit=%d", ErrFlagBitInUse, v, bit)
	}
	if set {
		v = SetFlag(v, bit)
	}
	return PutUint16(buf, off, v)
}
