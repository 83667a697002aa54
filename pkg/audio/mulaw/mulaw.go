// Package mulaw implements G.711 mu-law companding, the 8-bit logarithmic
// codec carried on telephony media streams. It converts between the wire
// format (one byte per sample, 8 kHz mono) and 16-bit signed little-endian
// linear PCM as consumed by the speech providers.
//
// All functions are pure and stateless. Conversion is lossy by design: the
// logarithmic quantisation keeps only a 4-bit mantissa per sample, so a
// PCM → wire → PCM round trip does not reproduce the input exactly. A
// wire → PCM → wire round trip is exact for every byte value except the
// negative-zero code point.
package mulaw

import "encoding/binary"

const (
	// bias is the G.711 encoding bias added to the sample magnitude before
	// the segment (exponent) search.
	bias = 0x84

	// clip is the largest magnitude representable after biasing; louder
	// samples are clamped rather than wrapped.
	clip = 32635
)

// DecodeSample expands one mu-law byte into a 16-bit linear PCM sample.
func DecodeSample(b byte) int16 {
	b = ^b
	sign := b & 0x80
	exp := (b >> 4) & 0x07
	mant := b & 0x0F

	v := (int32(mant)<<3 + bias) << exp
	v -= bias

	if sign != 0 {
		return int16(-v)
	}
	return int16(v)
}

// EncodeSample compresses one 16-bit linear PCM sample into a mu-law byte.
// The output is one's-complemented per the G.711 convention.
func EncodeSample(s int16) byte {
	v := int32(s)
	var sign byte
	if v < 0 {
		v = -v
		sign = 0x80
	}
	if v > clip {
		v = clip
	}
	v += bias

	// Find the segment: the smallest exponent whose window holds v.
	var exp byte
	for exp = 7; exp > 0; exp-- {
		if v >= int32(1)<<(exp+7) {
			break
		}
	}
	mant := byte(v>>(exp+3)) & 0x0F

	return ^(sign | exp<<4 | mant)
}

// Decode expands a buffer of mu-law bytes into 16-bit little-endian PCM.
// The returned slice is always exactly twice the input length.
func Decode(wire []byte) []byte {
	pcm := make([]byte, len(wire)*2)
	for i, b := range wire {
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(DecodeSample(b)))
	}
	return pcm
}

// Encode compresses a buffer of 16-bit little-endian PCM into mu-law bytes.
// A trailing odd byte is ignored.
func Encode(pcm []byte) []byte {
	n := len(pcm) / 2
	wire := make([]byte, n)
	for i := range n {
		s := int16(binary.LittleEndian.Uint16(pcm[i*2 : i*2+2]))
		wire[i] = EncodeSample(s)
	}
	return wire
}
