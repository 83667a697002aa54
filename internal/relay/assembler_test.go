package relay

import (
	"bytes"
	"testing"
)

// pattern fills n bytes with a deterministic sequence so frame ordering and
// content can be verified after reassembly.
func pattern(n int) []byte {
	p := make([]byte, n)
	for i := range p {
		p[i] = byte(i % 251)
	}
	return p
}

func TestFeed_ShortChunksAccumulate(t *testing.T) {
	a := NewFrameAssembler()

	if frames := a.Feed(make([]byte, FrameSize-1)); frames != nil {
		t.Fatalf("got %d frames from a short feed, want none", len(frames))
	}
	if a.Pending() != FrameSize-1 {
		t.Errorf("pending = %d, want %d", a.Pending(), FrameSize-1)
	}
}

func TestFeed_ExactFrame(t *testing.T) {
	a := NewFrameAssembler()
	frames := a.Feed(pattern(FrameSize))
	if len(frames) != 1 {
		t.Fatalf("got %d frames, want 1", len(frames))
	}
	if len(frames[0]) != FrameSize {
		t.Errorf("frame length = %d, want %d", len(frames[0]), FrameSize)
	}
	if a.Pending() != 0 {
		t.Errorf("pending = %d, want 0", a.Pending())
	}
}

func TestFeed_ArbitrarySplits(t *testing.T) {
	// Feed the same byte stream in awkward chunk sizes and check that the
	// emitted frames reproduce it exactly, with the remainder retained.
	const total = FrameSize*3 + 700
	data := pattern(total)

	splits := []int{1, 7, 160, FrameSize - 1, FrameSize, FrameSize + 1, 3000}
	for _, chunk := range splits {
		a := NewFrameAssembler()
		var frames [][]byte
		for off := 0; off < total; off += chunk {
			end := off + chunk
			if end > total {
				end = total
			}
			frames = append(frames, a.Feed(data[off:end])...)
		}

		if len(frames) != 3 {
			t.Fatalf("chunk=%d: got %d frames, want 3", chunk, len(frames))
		}
		var reassembled []byte
		for _, f := range frames {
			if len(f) != FrameSize {
				t.Fatalf("chunk=%d: frame length %d, want %d", chunk, len(f), FrameSize)
			}
			reassembled = append(reassembled, f...)
		}
		if !bytes.Equal(reassembled, data[:FrameSize*3]) {
			t.Fatalf("chunk=%d: frames out of order or corrupted", chunk)
		}
		if a.Pending() != 700 {
			t.Errorf("chunk=%d: pending = %d, want 700", chunk, a.Pending())
		}
	}
}

func TestFeed_MultipleFramesInOneCall(t *testing.T) {
	a := NewFrameAssembler()
	frames := a.Feed(pattern(FrameSize*2 + 5))
	if len(frames) != 2 {
		t.Fatalf("got %d frames, want 2", len(frames))
	}
	if a.Pending() != 5 {
		t.Errorf("pending = %d, want 5", a.Pending())
	}
}

func TestReset_DiscardsPending(t *testing.T) {
	a := NewFrameAssembler()
	a.Feed(make([]byte, 100))
	a.Reset()
	if a.Pending() != 0 {
		t.Errorf("pending after Reset = %d, want 0", a.Pending())
	}
}
