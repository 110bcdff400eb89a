// ABOUTME: Audio encoder package for output sample formats
// ABOUTME: Provides the Encoder interface and the S16LSB implementation
// Package encode turns internal samples into device bytes.
//
// Supports: S16LSB
//
// All encoders accept int32 samples in 24-bit range.
//
// Example:
//
//	enc, err := encode.New(audio.S16LSB)
//	data := enc.Append(nil, samples)
package encode
