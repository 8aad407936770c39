package frame

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

func TestBuildShortFrameHeader(t *testing.T) {
	buf, off, err := Build(Header{Kind: KindShort, Code: 0x5D}, 2)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(buf) != 5 || off != 3 {
		t.Fatalf("unexpected size=%d off=%d", len(buf), off)
	}
	if !bytes.Equal(buf[:3], []byte{0xC1, 0x05, 0x5D}) {
		t.Fatalf("unexpected header: % X", buf[:3])
	}
}

func TestBuildLongFrameHeaderLengthIsFinalSize(t *testing.T) {
	buf, off, err := Build(Header{Kind: KindLong, Code: 0x65}, 25)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(buf) != 29 || off != 4 {
		t.Fatalf("unexpected size=%d off=%d", len(buf), off)
	}
	if !bytes.Equal(buf[:4], []byte{0xC2, 0x00, 0x1D, 0x65}) {
		t.Fatalf("unexpected header: % X", buf[:4])
	}
}

func TestBuildSubCode(t *testing.T) {
	buf, off, err := Build(Header{Kind: KindShort, Code: 0xF3, SubCode: 0x03, HasSubCode: true}, 1)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if off != 4 || !bytes.Equal(buf, []byte{0xC1, 0x05, 0xF3, 0x03, 0x00}) {
		t.Fatalf("unexpected frame off=%d: % X", off, buf)
	}
}

func TestBuildAutoSelectsMarkerByTotalLength(t *testing.T) {
	cases := []struct {
		payload int
		marker  uint8
		total   int
	}{
		{0, MarkerShort, 3},
		{252, MarkerShort, 255},
		{253, MarkerLong, 257},
		{1000, MarkerLong, 1004},
	}
	for _, tc := range cases {
		buf, _, err := Build(Header{Code: 0x01}, tc.payload)
		if err != nil {
			t.Fatalf("payload=%d build: %v", tc.payload, err)
		}
		if buf[0] != tc.marker || len(buf) != tc.total {
			t.Fatalf("payload=%d got marker=0x%02X len=%d", tc.payload, buf[0], len(buf))
		}
		f, err := Decode(buf)
		if err != nil {
			t.Fatalf("payload=%d decode: %v", tc.payload, err)
		}
		if int(f.Length) != tc.total {
			t.Fatalf("payload=%d length field=%d", tc.payload, f.Length)
		}
	}
}

func TestBuildForcedShortOverflowFails(t *testing.T) {
	_, _, err := Build(Header{Kind: KindShort, Code: 0x01}, 253)
	if !errors.Is(err, ErrShortOverflow) {
		t.Fatalf("expected ErrShortOverflow, got %v", err)
	}
}

func TestBuildTooLargeFails(t *testing.T) {
	_, _, err := Build(Header{Kind: KindLong, Code: 0x01}, MaxLongLen)
	if !errors.Is(err, ErrFrameTooLarge) {
		t.Fatalf("expected ErrFrameTooLarge, got %v", err)
	}
	if _, _, err := Build(Header{Code: 0x01}, -1); !errors.Is(err, ErrNegativePayload) {
		t.Fatalf("expected ErrNegativePayload, got %v", err)
	}
}

func TestReadFrameRoundTrip(t *testing.T) {
	short := []byte{0xC1, 0x04, 0x51, 0x01}
	long := []byte{0xC2, 0x00, 0x05, 0x65, 0x00}
	r := bytes.NewReader(append(append([]byte{}, short...), long...))

	f, err := ReadFrame(r, DefaultLimits())
	if err != nil {
		t.Fatalf("read short: %v", err)
	}
	if f.Marker != MarkerShort || f.Code != 0x51 || !bytes.Equal(f.Body, []byte{0x01}) {
		t.Fatalf("unexpected short frame: %+v", f)
	}
	if b, err := f.Bytes(); err != nil || !bytes.Equal(b, short) {
		t.Fatalf("short re-encode mismatch: % X (%v)", b, err)
	}

	f, err = ReadFrame(r, DefaultLimits())
	if err != nil {
		t.Fatalf("read long: %v", err)
	}
	if f.Marker != MarkerLong || f.Length != 5 || f.Code != 0x65 {
		t.Fatalf("unexpected long frame: %+v", f)
	}
	if b, err := f.Bytes(); err != nil || !bytes.Equal(b, long) {
		t.Fatalf("long re-encode mismatch: % X (%v)", b, err)
	}
}

func TestReadFrameMalformedIsDeterministic(t *testing.T) {
	if _, err := ReadFrame(bytes.NewReader(nil), DefaultLimits()); !errors.Is(err, io.EOF) {
		t.Fatalf("expected io.EOF at frame boundary, got %v", err)
	}
	if _, err := ReadFrame(bytes.NewReader([]byte{0xC1, 0x05, 0x5D}), DefaultLimits()); !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("expected io.ErrUnexpectedEOF for truncated body, got %v", err)
	}
	if _, err := ReadFrame(bytes.NewReader([]byte{0xC1}), DefaultLimits()); !errors.Is(err, ErrShortHeader) {
		t.Fatalf("expected ErrShortHeader, got %v", err)
	}
	if _, err := ReadFrame(bytes.NewReader([]byte{0xC3, 0x03, 0x00}), DefaultLimits()); !errors.Is(err, ErrUnknownMarker) {
		t.Fatalf("expected ErrUnknownMarker, got %v", err)
	}
	if _, err := ReadFrame(bytes.NewReader([]byte{0xC1, 0x02}), DefaultLimits()); !errors.Is(err, ErrShortHeader) {
		t.Fatalf("expected ErrShortHeader for length<=header, got %v", err)
	}
	if _, err := ReadFrame(bytes.NewReader([]byte{0xC2, 0x01, 0x00, 0x01}), Limits{MaxFrameBytes: 64}); !errors.Is(err, ErrFrameTooLarge) {
		t.Fatalf("expected ErrFrameTooLarge, got %v", err)
	}
}

func TestDecodeLengthMismatch(t *testing.T) {
	_, err := Decode([]byte{0xC1, 0x09, 0x51, 0x01})
	if !errors.Is(err, ErrLengthMismatch) {
		t.Fatalf("expected ErrLengthMismatch, got %v", err)
	}
}

func TestPeek(t *testing.T) {
	cases := []struct {
		in     []byte
		marker uint8
		code   uint8
		ok     bool
	}{
		{in: []byte{0xC1, 0x03, 0x55}, marker: MarkerShort, code: 0x55, ok: true},
		{in: []byte{0xC2, 0x00, 0x05, 0x65, 0x00}, marker: MarkerLong, code: 0x65, ok: true},
		{in: []byte{0xC2, 0x00, 0x05}},
		{in: []byte{0x7F, 0x01, 0x02, 0x03}},
		{in: nil},
	}
	for _, tc := range cases {
		marker, code, ok := Peek(tc.in)
		if marker != tc.marker || code != tc.code || ok != tc.ok {
			t.Fatalf("Peek(% X) = %02X %02X %v", tc.in, marker, code, ok)
		}
	}
}

type failAfter struct {
	data []byte
	err  error
}

func (r *failAfter) Read(p []byte) (int, error) {
	if len(r.data) == 0 {
		return 0, r.err
	}
	n := copy(p, r.data)
	r.data = r.data[n:]
	return n, nil
}

func TestReadFrameLongHeaderKeepsReadError(t *testing.T) {
	reset := errors.New("connection reset")
	_, err := ReadFrame(&failAfter{data: []byte{0xC2, 0x00}, err: reset}, DefaultLimits())
	if !errors.Is(err, ErrShortHeader) || !errors.Is(err, reset) {
		t.Fatalf("expected ErrShortHeader wrapping the read error, got %v", err)
	}

	_, err = ReadFrame(bytes.NewReader([]byte{0xC2, 0x00}), DefaultLimits())
	if !errors.Is(err, ErrShortHeader) || !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("expected ErrShortHeader wrapping io.ErrUnexpectedEOF, got %v", err)
	}
}

func TestFrameBytesReportsBuildError(t *testing.T) {
	f := Frame{Marker: MarkerShort, Code: 0x52, Body: make([]byte, MaxShortLen)}
	b, err := f.Bytes()
	if !errors.Is(err, ErrShortOverflow) || b != nil {
		t.Fatalf("expected ErrShortOverflow, got % X (%v)", b, err)
	}
	f.Marker = MarkerLong
	if b, err = f.Bytes(); err != nil || len(b) != 4+MaxShortLen {
		t.Fatalf("long re-encode: len=%d err=%v", len(b), err)
	}
}
