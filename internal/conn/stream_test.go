package conn

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/danmuck/guildwire/internal/testutil/testlog"
)

type trickleWriter struct {
	buf       bytes.Buffer
	deadlines int
	closes    int
}

func (w *trickleWriter) Write(b []byte) (int, error) {
	if len(b) == 0 {
		return 0, nil
	}
	return w.buf.Write(b[:1])
}

func (w *trickleWriter) SetWriteDeadline(time.Time) error {
	w.deadlines++
	return nil
}

func (w *trickleWriter) Close() error {
	w.closes++
	return nil
}

type stuckWriter struct{}

func (stuckWriter) Write([]byte) (int, error) { return 0, nil }

type brokenWriter struct{}

func (brokenWriter) Write([]byte) (int, error) { return 0, errors.New("reset by peer") }

func TestStreamWritesWholeFrame(t *testing.T) {
	testlog.Start(t)
	w := &trickleWriter{}
	s := NewStream(w, Options{WriteTimeout: time.Second, Logger: testlog.Logger(t)})

	frameBytes := []byte{0xC1, 0x05, 0x5D, 0x92, 0x34}
	if err := s.Send(frameBytes); err != nil {
		t.Fatalf("send: %v", err)
	}
	if !bytes.Equal(w.buf.Bytes(), frameBytes) {
		t.Fatalf("partial frame written: % X", w.buf.Bytes())
	}
	if w.deadlines != 1 {
		t.Fatalf("expected one deadline per send, got %d", w.deadlines)
	}
}

func TestStreamCloseIsIdempotent(t *testing.T) {
	testlog.Start(t)
	w := &trickleWriter{}
	s := NewStream(w, Options{})
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
	if w.closes != 1 {
		t.Fatalf("underlying writer closed %d times", w.closes)
	}
	if err := s.Send([]byte{0xC1, 0x03, 0x55}); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

func TestStreamWriteFailures(t *testing.T) {
	testlog.Start(t)
	if err := NewStream(stuckWriter{}, Options{}).Send([]byte{0x01}); !errors.Is(err, ErrShortSend) {
		t.Fatalf("expected ErrShortSend, got %v", err)
	}
	if err := NewStream(brokenWriter{}, Options{}).Send([]byte{0x01}); err == nil {
		t.Fatalf("expected write error")
	}
}

func TestRecorderCopiesFrames(t *testing.T) {
	testlog.Start(t)
	r := NewRecorder()
	b := []byte{0xC1, 0x04, 0x51, 0x01}
	if err := r.Send(b); err != nil {
		t.Fatalf("send: %v", err)
	}
	b[3] = 0xFF
	frames := r.Frames()
	if len(frames) != 1 || frames[0][3] != 0x01 {
		t.Fatalf("recorder aliased caller buffer: %v", frames)
	}
	r.Reset()
	if len(r.Frames()) != 0 {
		t.Fatalf("reset kept frames")
	}
	_ = r.Close()
	if err := r.Send(b); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

func TestHexDumpLines(t *testing.T) {
	testlog.Start(t)
	var out bytes.Buffer
	h := NewHexDump(&out)
	if err := h.Send([]byte{0xC1, 0x03, 0x55}); err != nil {
		t.Fatalf("send: %v", err)
	}
	if err := h.Send([]byte{0x01}); err != nil {
		t.Fatalf("send raw: %v", err)
	}
	want := "C1 55 len=3     C1 03 55\nraw  len=1     01\n"
	if out.String() != want {
		t.Fatalf("unexpected dump:\n%q\nwant\n%q", out.String(), want)
	}
}
