// Package wav builds minimal RIFF/WAVE containers around raw PCM buffers.
// Batch transcription APIs refuse bare sample data, so the pipeline wraps
// each audio snippet in a WAV header before upload.
package wav

import "encoding/binary"

// header field sizes: "RIFF" + size + "WAVE" + "fmt " chunk + "data" chunk.
const headerLen = 44

// Encode wraps 16-bit little-endian PCM in a WAV container with the given
// sample rate and channel count. The input is not copied lazily; the result
// is a fresh buffer of len(pcm)+44 bytes.
func Encode(pcm []byte, sampleRate, channels int) []byte {
	const bitsPerSample = 16

	blockAlign := channels * bitsPerSample / 8
	byteRate := sampleRate * blockAlign

	out := make([]byte, headerLen+len(pcm))
	copy(out[0:4], "RIFF")
	binary.LittleEndian.PutUint32(out[4:8], uint32(36+len(pcm)))
	copy(out[8:12], "WAVE")

	copy(out[12:16], "fmt ")
	binary.LittleEndian.PutUint32(out[16:20], 16) // PCM fmt chunk size
	binary.LittleEndian.PutUint16(out[20:22], 1)  // audio format: linear PCM
	binary.LittleEndian.PutUint16(out[22:24], uint16(channels))
	binary.LittleEndian.PutUint32(out[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(out[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(out[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(out[34:36], bitsPerSample)

	copy(out[36:40], "data")
	binary.LittleEndian.PutUint32(out[40:44], uint32(len(pcm)))
	copy(out[44:], pcm)

	return out
}
