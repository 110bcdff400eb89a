// ABOUTME: Encoder interface definition
// ABOUTME: Turns internal int32 samples into output wire bytes
package encode

import (
	"fmt"

	"github.com/amaranth-player/amaranth/pkg/audio"
)

// Encoder encodes internal samples to an output sample format
type Encoder interface {
	// Append encodes samples and appends them to dst
	Append(dst []byte, samples []int32) []byte

	// Encoding returns the output sample format
	Encoding() audio.Encoding
}

// New returns the encoder for e
func New(e audio.Encoding) (Encoder, error) {
	switch e {
	case audio.S16LSB:
		return S16LSB{}, nil
	default:
		return nil, fmt.Errorf("no encoder for %s", e)
	}
}
