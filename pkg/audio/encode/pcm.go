// ABOUTME: PCM audio encoders
// ABOUTME: Encodes int32 samples to signed 16-bit little-endian bytes
package encode

import (
	"encoding/binary"

	"github.com/amaranth-player/amaranth/pkg/audio"
)

// S16LSB encodes signed 16-bit little-endian PCM
type S16LSB struct{}

// Append converts samples to 16-bit and appends 2 bytes per sample
func (S16LSB) Append(dst []byte, samples []int32) []byte {
	for _, s := range samples {
		dst = binary.LittleEndian.AppendUint16(dst, uint16(audio.SampleToInt16(s)))
	}
	return dst
}

// Encoding returns audio.S16LSB
func (S16LSB) Encoding() audio.Encoding {
	return audio.S16LSB
}
