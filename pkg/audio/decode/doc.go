// ABOUTME: Audio decoder package for file playback
// ABOUTME: Provides the decoding Engine, Stream handles and per-codec sources
// Package decode opens sound files and converts them to a fixed PCM format.
//
// Supports: WAV (integer PCM), MP3, FLAC, Ogg Opus and raw S16LSB files.
//
// The Engine detects the codec from the file content, falling back to the
// extension, and returns a Stream that resamples, remixes and encodes the
// native samples on demand:
//
//	engine := decode.NewEngine()
//	if err := engine.Init(); err != nil { ... }
//	stream, err := engine.Open("song.flac", format, decode.DefaultBufferSize)
//	for n := stream.Decode(4096); n > 0; n = stream.Decode(4096) {
//	    play(stream.Buffer())
//	}
package decode
