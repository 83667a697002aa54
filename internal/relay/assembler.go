package relay

import "sync"

// FrameSize is the fixed frame length in wire-codec bytes: 200 ms of 8 kHz
// 8-bit mono audio. Every frame handed to the pipeline is exactly this size.
const FrameSize = 1600

// FrameAssembler accumulates arbitrarily-sized inbound audio chunks for one
// (session, participant) stream and slices them into fixed-size frames in
// strict byte order. The pending buffer always holds fewer than FrameSize
// bytes between calls.
//
// Safe for concurrent use, though a stream normally has a single reader.
type FrameAssembler struct {
	mu  sync.Mutex
	buf []byte
}

// NewFrameAssembler creates an empty assembler.
func NewFrameAssembler() *FrameAssembler {
	return &FrameAssembler{}
}

// Feed appends p to the pending buffer and returns every complete frame now
// available, in the order the bytes arrived. Short feeds simply accumulate
// and return nil.
func (a *FrameAssembler) Feed(p []byte) [][]byte {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.buf = append(a.buf, p...)

	var frames [][]byte
	for len(a.buf) >= FrameSize {
		frame := make([]byte, FrameSize)
		copy(frame, a.buf[:FrameSize])
		a.buf = a.buf[FrameSize:]
		frames = append(frames, frame)
	}

	// Re-home the remainder so the sliced-off prefix can be collected.
	if len(frames) > 0 && len(a.buf) > 0 {
		rest := make([]byte, len(a.buf))
		copy(rest, a.buf)
		a.buf = rest
	}
	return frames
}

// Pending returns the number of buffered bytes not yet emitted as a frame.
func (a *FrameAssembler) Pending() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.buf)
}

// Reset discards any pending bytes. Called when the stream disconnects.
func (a *FrameAssembler) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.buf = nil
}
