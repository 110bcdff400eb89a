// ABOUTME: Audio type definitions
// ABOUTME: Defines PCM output formats and sample conversions
package audio

import (
	"fmt"
	"strings"
	"time"
)

const (
	// 24-bit audio range constants
	Max24Bit = 8388607  // 2^23 - 1
	Min24Bit = -8388608 // -2^23
)

// Encoding identifies the byte layout of one PCM sample
type Encoding int

const (
	// S16LSB is signed 16-bit little-endian PCM
	S16LSB Encoding = iota + 1
)

// ParseEncoding maps a format name to an Encoding. Only S16LSB is accepted.
func ParseEncoding(name string) (Encoding, error) {
	switch strings.ToUpper(name) {
	case "S16LSB":
		return S16LSB, nil
	default:
		return 0, fmt.Errorf("unsupported sample format: %s (supported: S16LSB)", name)
	}
}

// String returns the format name as accepted by ParseEncoding
func (e Encoding) String() string {
	switch e {
	case S16LSB:
		return "S16LSB"
	default:
		return fmt.Sprintf("Encoding(%d)", int(e))
	}
}

// BytesPerSample returns the size of one sample of one channel
func (e Encoding) BytesPerSample() int {
	switch e {
	case S16LSB:
		return 2
	default:
		return 0
	}
}

// Format describes an interleaved PCM stream
type Format struct {
	SampleRate int
	Channels   int
	Encoding   Encoding
}

// Validate reports whether the format can be produced and played
func (f Format) Validate() error {
	if f.SampleRate <= 0 {
		return fmt.Errorf("invalid sample rate: %d", f.SampleRate)
	}
	if f.Channels <= 0 {
		return fmt.Errorf("invalid channel count: %d", f.Channels)
	}
	if f.Encoding.BytesPerSample() == 0 {
		return fmt.Errorf("invalid sample format: %s", f.Encoding)
	}
	return nil
}

// FrameSize returns the bytes in one frame (one sample for every channel)
func (f Format) FrameSize() int {
	return f.Channels * f.Encoding.BytesPerSample()
}

// BytesPerSecond returns the byte rate of the stream
func (f Format) BytesPerSecond() int {
	return f.SampleRate * f.FrameSize()
}

// Duration returns the play time of n bytes in this format
func (f Format) Duration(n int) time.Duration {
	bps := f.BytesPerSecond()
	if bps == 0 {
		return 0
	}
	return time.Duration(int64(n) * int64(time.Second) / int64(bps))
}

func (f Format) String() string {
	return fmt.Sprintf("%dHz/%dch/%s", f.SampleRate, f.Channels, f.Encoding)
}

// SampleToInt16 converts int32 sample to int16 (for 16-bit playback)
func SampleToInt16(sample int32) int16 {
	// Right-shift to convert 24-bit (or 16-bit) to 16-bit range
	return int16(sample >> 8)
}

// SampleFromInt16 converts int16 sample to int32 (left-justified in 24-bit)
func SampleFromInt16(sample int16) int32 {
	return int32(sample) << 8
}

// SampleFromBits scales a signed sample of the given bit depth to the 24-bit range
func SampleFromBits(sample int32, bitDepth int) int32 {
	switch {
	case bitDepth == 24:
		return sample
	case bitDepth < 24:
		return sample << (24 - bitDepth)
	default:
		return sample >> (bitDepth - 24)
	}
}

// SampleFromFloat converts a float sample in [-1, 1] to the 24-bit range.
// Values outside the range are clipped.
func SampleFromFloat(sample float32) int32 {
	switch {
	case sample >= 1:
		return Max24Bit
	case sample <= -1:
		return Min24Bit
	default:
		return int32(sample * Max24Bit)
	}
}
