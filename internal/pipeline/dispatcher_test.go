package pipeline

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/voxbridge/voxbridge/internal/relay"
)

// collectProcessor records processed frames and can be gated to simulate a
// slow pipeline.
type collectProcessor struct {
	mu     sync.Mutex
	frames []relay.Frame
	gate   chan struct{}
}

func (c *collectProcessor) Process(_ context.Context, frame relay.Frame) error {
	if c.gate != nil {
		<-c.gate
	}
	c.mu.Lock()
	c.frames = append(c.frames, frame)
	c.mu.Unlock()
	return nil
}

func (c *collectProcessor) processed() []relay.Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]relay.Frame, len(c.frames))
	copy(out, c.frames)
	return out
}

func frameN(sessionID string, source relay.ParticipantType, n byte) relay.Frame {
	return relay.Frame{SessionID: sessionID, Source: source, Payload: []byte{n}}
}

func TestDispatcherPreservesOrderPerStream(t *testing.T) {
	proc := &collectProcessor{}
	d := NewDispatcher(proc, WithDispatcherLogger(discard()), WithQueueDepth(64))

	for i := byte(0); i < 32; i++ {
		d.Enqueue(frameN("s1", relay.ParticipantWeb, i))
	}
	d.Close()

	got := proc.processed()
	if len(got) != 32 {
		t.Fatalf("processed %d frames, want 32", len(got))
	}
	for i, f := range got {
		if f.Payload[0] != byte(i) {
			t.Fatalf("frame %d has payload %d, out of order", i, f.Payload[0])
		}
	}
}

func TestDispatcherStreamsAreIndependent(t *testing.T) {
	gate := make(chan struct{})
	proc := &collectProcessor{gate: gate}
	d := NewDispatcher(proc, WithDispatcherLogger(discard()))

	// The web worker blocks on the gate; the phone stream must still drain.
	d.Enqueue(frameN("s1", relay.ParticipantWeb, 1))
	d.Enqueue(frameN("s1", relay.ParticipantPhone, 2))

	select {
	case gate <- struct{}{}:
	case <-time.After(2 * time.Second):
		t.Fatal("no worker picked up a frame")
	}
	select {
	case gate <- struct{}{}:
	case <-time.After(2 * time.Second):
		t.Fatal("second stream blocked behind the first")
	}
	d.Close()

	if got := len(proc.processed()); got != 2 {
		t.Fatalf("processed %d frames, want 2", got)
	}
}

func TestDispatcherDropsOldestWhenFull(t *testing.T) {
	gate := make(chan struct{})
	proc := &collectProcessor{gate: gate}
	d := NewDispatcher(proc, WithDispatcherLogger(discard()), WithQueueDepth(2))

	// Frame 0 is picked up by the worker and parks on the gate. Frames 1 and 2
	// fill the queue; 3 and 4 push out 1 and 2.
	d.Enqueue(frameN("s1", relay.ParticipantWeb, 0))
	// Give the worker a moment to dequeue frame 0 and park on the gate.
	time.Sleep(50 * time.Millisecond)
	d.Enqueue(frameN("s1", relay.ParticipantWeb, 1))
	d.Enqueue(frameN("s1", relay.ParticipantWeb, 2))
	d.Enqueue(frameN("s1", relay.ParticipantWeb, 3))
	d.Enqueue(frameN("s1", relay.ParticipantWeb, 4))

	close(gate)
	d.Close()

	got := proc.processed()
	if len(got) != 3 {
		t.Fatalf("processed %d frames, want 3", len(got))
	}
	want := []byte{0, 3, 4}
	for i, f := range got {
		if f.Payload[0] != want[i] {
			t.Errorf("frame %d has payload %d, want %d", i, f.Payload[0], want[i])
		}
	}
}

func TestDispatcherCloseStreamIsIdempotent(t *testing.T) {
	proc := &collectProcessor{}
	d := NewDispatcher(proc, WithDispatcherLogger(discard()))

	d.Enqueue(frameN("s1", relay.ParticipantWeb, 1))
	d.CloseStream("s1", relay.ParticipantWeb)
	d.CloseStream("s1", relay.ParticipantWeb)
	d.CloseStream("s2", relay.ParticipantPhone)
	d.Close()
}

func TestDispatcherEnqueueAfterCloseIsDropped(t *testing.T) {
	proc := &collectProcessor{}
	d := NewDispatcher(proc, WithDispatcherLogger(discard()))
	d.Close()

	d.Enqueue(frameN("s1", relay.ParticipantWeb, 1))

	if got := len(proc.processed()); got != 0 {
		t.Errorf("processed %d frames after Close, want 0", got)
	}
}

func TestDispatcherCloseDrainsQueuedFrames(t *testing.T) {
	proc := &collectProcessor{}
	d := NewDispatcher(proc, WithDispatcherLogger(discard()), WithQueueDepth(8))

	for i := byte(0); i < 5; i++ {
		d.Enqueue(frameN("s1", relay.ParticipantPhone, i))
	}
	d.Close()

	if got := len(proc.processed()); got != 5 {
		t.Errorf("processed %d frames, want 5", got)
	}
}
