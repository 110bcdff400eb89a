// ABOUTME: Ogg Opus source backed by hraban/opus
// ABOUTME: Decodes Opus files to 48kHz 16-bit PCM
package decode

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/amaranth-player/amaranth/pkg/audio"
	"gopkg.in/hraban/opus.v2"
)

// opusSampleRate is the fixed output rate of the Opus decoder
const opusSampleRate = 48000

// opusMaxFrames is the longest Opus packet, 120ms at 48kHz
const opusMaxFrames = 5760

var opusCodec = Codec{
	Name:       "opus",
	Extensions: []string{".opus"},
	Match:      isOpus,
	Open: func(path string, _ audio.Format) (Source, error) {
		return NewOpusSource(path)
	},
}

// OpusSource reads from an Ogg Opus file
type OpusSource struct {
	file     *os.File
	stream   *opus.Stream
	pcm16    []int16
	pending  []int16 // decoded samples not yet returned
	channels int
}

// NewOpusSource creates a new Opus audio source
func NewOpusSource(filePath string) (*OpusSource, error) {
	head, err := readHead(filePath, headSize)
	if err != nil {
		return nil, fmt.Errorf("failed to open Opus file: %w", err)
	}
	channels := opusChannels(head)
	if channels == 0 {
		return nil, fmt.Errorf("failed to decode Opus: missing OpusHead")
	}

	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Opus file: %w", err)
	}

	stream, err := opus.NewStream(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create opus stream: %w", err)
	}

	log.Printf("Loaded Opus: %s (channels: %d)", filepath.Base(filePath), channels)

	return &OpusSource{
		file:     f,
		stream:   stream,
		pcm16:    make([]int16, opusMaxFrames*channels),
		channels: channels,
	}, nil
}

func (s *OpusSource) Read(samples []int32) (int, error) {
	if len(s.pending) == 0 {
		// Stream.Read returns samples per channel and needs room for a whole packet
		n, err := s.stream.Read(s.pcm16)
		if err != nil {
			if err == io.EOF {
				return 0, io.EOF
			}
			return 0, fmt.Errorf("opus decode failed: %w", err)
		}
		s.pending = s.pcm16[:n*s.channels]
	}

	n := min(len(samples)/s.channels*s.channels, len(s.pending))
	for i, v := range s.pending[:n] {
		samples[i] = audio.SampleFromInt16(v)
	}
	s.pending = s.pending[n:]
	return n, nil
}

func (s *OpusSource) SampleRate() int { return opusSampleRate }
func (s *OpusSource) Channels() int   { return s.channels }
func (s *OpusSource) Close() error {
	// Closes the file too
	return s.stream.Close()
}
