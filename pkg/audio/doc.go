// ABOUTME: Audio fundamentals package providing core types and utilities
// ABOUTME: Defines Format, Encoding and sample conversion functions
// Package audio provides the PCM types shared by the decoders and output devices.
//
//   - Format: interleaved PCM layout (sample rate, channels, encoding)
//   - Encoding: byte layout of one sample; S16LSB is the only output encoding
//
// Decoders carry samples internally as int32 values in the 24-bit range so
// that 16-bit and 24-bit sources share one conversion path:
//
//	format := audio.Format{SampleRate: 44100, Channels: 2, Encoding: audio.S16LSB}
//	sample24 := audio.SampleFromInt16(sample16)
//	out16 := audio.SampleToInt16(sample24)
package audio
