package mulaw

import (
	"encoding/binary"
	"testing"
)

func TestDecodeSample_KnownValues(t *testing.T) {
	tests := []struct {
		in   byte
		want int16
	}{
		{0xFF, 0},      // positive zero
		{0x7F, 0},      // negative zero
		{0x80, 32124},  // loudest positive
		{0x00, -32124}, // loudest negative
	}
	for _, tt := range tests {
		if got := DecodeSample(tt.in); got != tt.want {
			t.Errorf("DecodeSample(%#02x) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestEncodeSample_KnownValues(t *testing.T) {
	tests := []struct {
		in   int16
		want byte
	}{
		{0, 0xFF},
		{32124, 0x80},
		{-32124, 0x00},
		{32767, 0x80},  // clipped
		{-32768, 0x00}, // clipped
	}
	for _, tt := range tests {
		if got := EncodeSample(tt.in); got != tt.want {
			t.Errorf("EncodeSample(%d) = %#02x, want %#02x", tt.in, got, tt.want)
		}
	}
}

// Every wire byte must survive a decode/encode round trip. The single
// exception is the negative-zero code point 0x7F, which decodes to 0 and
// re-encodes as positive zero 0xFF.
func TestRoundTrip_AllWireBytes(t *testing.T) {
	for i := 0; i < 256; i++ {
		b := byte(i)
		got := EncodeSample(DecodeSample(b))

		want := b
		if b == 0x7F {
			want = 0xFF
		}
		if got != want {
			t.Errorf("EncodeSample(DecodeSample(%#02x)) = %#02x, want %#02x", b, got, want)
		}
	}
}

func TestEncodeSample_Monotonic(t *testing.T) {
	// Decoded magnitudes must be non-decreasing as the linear input grows.
	prev := int16(0)
	for s := int16(0); s < 32000; s += 13 {
		d := DecodeSample(EncodeSample(s))
		if d < prev {
			t.Fatalf("quantised value decreased: input %d decoded %d, previous %d", s, d, prev)
		}
		prev = d
	}
}

func TestDecode_BufferLength(t *testing.T) {
	wire := []byte{0xFF, 0x80, 0x00, 0x7F}
	pcm := Decode(wire)
	if len(pcm) != 8 {
		t.Fatalf("len(Decode(4 bytes)) = %d, want 8", len(pcm))
	}
	if s := int16(binary.LittleEndian.Uint16(pcm[2:4])); s != 32124 {
		t.Errorf("second sample = %d, want 32124", s)
	}
}

func TestEncode_IgnoresTrailingOddByte(t *testing.T) {
	pcm := make([]byte, 5)
	if got := len(Encode(pcm)); got != 2 {
		t.Errorf("len(Encode(5 bytes)) = %d, want 2", got)
	}
}

func TestEncodeDecode_Buffers(t *testing.T) {
	wire := make([]byte, 256)
	for i := range wire {
		wire[i] = byte(i)
	}
	again := Encode(Decode(wire))
	for i, b := range wire {
		want := b
		if b == 0x7F {
			want = 0xFF
		}
		if again[i] != want {
			t.Errorf("byte %d: round trip %#02x, want %#02x", i, again[i], want)
		}
	}
}
