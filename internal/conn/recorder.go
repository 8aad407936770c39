package conn

import "sync"

// Recorder keeps a copy of every frame it is sent.
type Recorder struct {
	mu     sync.Mutex
	frames [][]byte
	closed bool
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Send(b []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}
	r.frames = append(r.frames, append([]byte(nil), b...))
	return nil
}

// Frames returns the recorded frames in send order.
func (r *Recorder) Frames() [][]byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([][]byte, len(r.frames))
	copy(out, r.frames)
	return out
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	r.frames = nil
	r.mu.Unlock()
}

func (r *Recorder) Close() error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	return nil
}
