package conn

import (
	"fmt"
	"io"
	"sync"

	"github.com/danmuck/guildwire/internal/protocol/frame"
)

// HexDump writes one line per frame: marker, code and the full frame in hex.
type HexDump struct {
	mu sync.Mutex
	w  io.Writer
}

func NewHexDump(w io.Writer) *HexDump {
	return &HexDump{w: w}
}

func (h *HexDump) Send(b []byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	marker, code, ok := frame.Peek(b)
	if !ok {
		_, err := fmt.Fprintf(h.w, "raw  len=%-5d % X\n", len(b), b)
		return err
	}
	_, err := fmt.Fprintf(h.w, "%02X %02X len=%-5d % X\n", marker, code, len(b), b)
	return err
}

func (h *HexDump) Close() error { return nil }
