package conn

import (
	"github.com/danmuck/guildwire/internal/observability"
	"github.com/danmuck/guildwire/internal/protocol/frame"
)

// MeteredSink counts frames, bytes and failures per packet code.
type MeteredSink struct {
	next Sink
	node string
}

func Metered(next Sink, node string) *MeteredSink {
	observability.RegisterMetrics()
	return &MeteredSink{next: next, node: node}
}

func (m *MeteredSink) Send(b []byte) error {
	err := m.next.Send(b)
	marker, code, _ := frame.Peek(b)
	observability.RecordFrame(m.node, marker, code, len(b), err == nil)
	return err
}

func (m *MeteredSink) Close() error {
	return m.next.Close()
}
