package frame

import (
	"errors"
	"fmt"
	"io"

	"github.com/danmuck/guildwire/internal/protocol/field"
)

const (
	MarkerShort uint8 = 0xC1
	MarkerLong  uint8 = 0xC2

	MaxShortLen = 0xFF
	MaxLongLen  = 0xFFFF
)

var (
	ErrShortHeader     = errors.New("frame: short header")
	ErrUnknownMarker   = errors.New("frame: unknown marker")
	ErrLengthMismatch  = errors.New("frame: length field does not match frame size")
	ErrFrameTooLarge   = errors.New("frame: frame too large")
	ErrShortOverflow   = errors.New("frame: short frame length exceeds one byte")
	ErrNegativePayload = errors.New("frame: negative payload length")
)

// Kind selects the frame marker. The legacy client fixes the marker per
// packet, so callers force it; KindAuto picks the smallest that fits.
type Kind uint8

const (
	KindAuto Kind = iota
	KindShort
	KindLong
)

func (k Kind) String() string {
	switch k {
	case KindAuto:
		return "auto"
	case KindShort:
		return "short"
	case KindLong:
		return "long"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Header describes everything before the payload.
type Header struct {
	Kind       Kind
	Code       uint8
	SubCode    uint8
	HasSubCode bool
}

// Frame is one decoded wire message. Body is everything after the code byte,
// sub-code included.
type Frame struct {
	Marker uint8
	Length uint16
	Code   uint8
	Body   []byte
}

// Limits constrains frame reads.
type Limits struct {
	MaxFrameBytes int
}

func DefaultLimits() Limits {
	return Limits{MaxFrameBytes: MaxLongLen}
}

func lengthFieldLen(k Kind) int {
	if k == KindLong {
		return 2
	}
	return 1
}

// HeaderLen returns the header size for a resolved kind.
func HeaderLen(k Kind, hasSubCode bool) int {
	n := 1 + lengthFieldLen(k) + 1
	if hasSubCode {
		n++
	}
	return n
}

// Resolve returns the concrete kind for a frame carrying payloadLen bytes.
func Resolve(h Header, payloadLen int) (Kind, int, error) {
	if payloadLen < 0 {
		return 0, 0, ErrNegativePayload
	}
	kind := h.Kind
	if kind == KindAuto {
		kind = KindShort
		if HeaderLen(KindShort, h.HasSubCode)+payloadLen > MaxShortLen {
			kind = KindLong
		}
	}
	total := HeaderLen(kind, h.HasSubCode) + payloadLen
	switch {
	case kind == KindShort && total > MaxShortLen:
		return 0, 0, fmt.Errorf("%w: %d bytes", ErrShortOverflow, total)
	case total > MaxLongLen:
		return 0, 0, fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, total)
	}
	return kind, total, nil
}

// Build allocates a buffer of exactly header+payloadLen bytes, writes the
// header into it and returns it with the offset of the payload region.
func Build(h Header, payloadLen int) ([]byte, int, error) {
	kind, total, err := Resolve(h, payloadLen)
	if err != nil {
		return nil, 0, err
	}
	buf := make([]byte, total)
	off := 1
	if kind == KindLong {
		buf[0] = MarkerLong
		err = field.PutUint16(buf, off, uint16(len(buf)))
	} else {
		buf[0] = MarkerShort
		err = field.PutUint8(buf, off, uint8(len(buf)))
	}
	if err != nil {
		return nil, 0, err
	}
	off += lengthFieldLen(kind)
	buf[off] = h.Code
	off++
	if h.HasSubCode {
		buf[off] = h.SubCode
		off++
	}
	return buf, off, nil
}

// Decode parses one complete frame. b must hold exactly one frame.
func Decode(b []byte) (Frame, error) {
	if len(b) < 1 {
		return Frame{}, ErrShortHeader
	}
	var f Frame
	f.Marker = b[0]
	var off int
	switch f.Marker {
	case MarkerShort:
		if len(b) < 3 {
			return Frame{}, ErrShortHeader
		}
		f.Length = uint16(b[1])
		off = 2
	case MarkerLong:
		if len(b) < 4 {
			return Frame{}, ErrShortHeader
		}
		f.Length = uint16(b[1])<<8 | uint16(b[2])
		off = 3
	default:
		return Frame{}, fmt.Errorf("%w: 0x%02X", ErrUnknownMarker, f.Marker)
	}
	if int(f.Length) != len(b) {
		return Frame{}, fmt.Errorf("%w: field=%d actual=%d", ErrLengthMismatch, f.Length, len(b))
	}
	f.Code = b[off]
	f.Body = append([]byte(nil), b[off+1:]...)
	return f, nil
}

// ReadFrame reads one frame from r. It returns io.EOF only when r ends on a
// frame boundary.
func ReadFrame(r io.Reader, limits Limits) (Frame, error) {
	var head [3]byte
	if _, err := io.ReadFull(r, head[:2]); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return Frame{}, ErrShortHeader
		}
		return Frame{}, err
	}

	var length, read int
	switch head[0] {
	case MarkerShort:
		length, read = int(head[1]), 2
	case MarkerLong:
		if _, err := io.ReadFull(r, head[2:3]); err != nil {
			if errors.Is(err, io.EOF) {
				err = io.ErrUnexpectedEOF
			}
			return Frame{}, fmt.Errorf("%w: length low byte: %w", ErrShortHeader, err)
		}
		length, read = int(head[1])<<8|int(head[2]), 3
	default:
		return Frame{}, fmt.Errorf("%w: 0x%02X", ErrUnknownMarker, head[0])
	}
	if length <= read {
		return Frame{}, fmt.Errorf("%w: length=%d", ErrShortHeader, length)
	}
	if limits.MaxFrameBytes > 0 && length > limits.MaxFrameBytes {
		return Frame{}, ErrFrameTooLarge
	}

	buf := make([]byte, length)
	copy(buf, head[:read])
	if _, err := io.ReadFull(r, buf[read:]); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return Frame{}, fmt.Errorf("frame: body: %w", err)
	}
	return Decode(buf)
}

// Bytes re-encodes f with the marker it was read with.
func (f Frame) Bytes() ([]byte, error) {
	h := Header{Kind: KindShort, Code: f.Code}
	if f.Marker == MarkerLong {
		h.Kind = KindLong
	}
	buf, off, err := Build(h, len(f.Body))
	if err != nil {
		return nil, err
	}
	copy(buf[off:], f.Body)
	return buf, nil
}

// Peek reports the marker and code of b without validating the length field.
func Peek(b []byte) (marker, code uint8, ok bool) {
	switch {
	case len(b) >= 3 && b[0] == MarkerShort:
		return MarkerShort, b[2], true
	case len(b) >= 4 && b[0] == MarkerLong:
		return MarkerLong, b[3], true
	}
	return 0, 0, false
}
