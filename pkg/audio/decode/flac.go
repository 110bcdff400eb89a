// ABOUTME: FLAC source backed by mewkiz/flac
// ABOUTME: Decodes FLAC frames to interleaved samples, keeping partial frames between reads
package decode

import (
	"errors"
	"fmt"
	"io"
	"log"
	"path/filepath"

	"github.com/amaranth-player/amaranth/pkg/audio"
	"github.com/mewkiz/flac"
	"github.com/mewkiz/flac/frame"
)

var flacCodec = Codec{
	Name:       "flac",
	Extensions: []string{".flac"},
	Match:      isFLAC,
	Open: func(path string, _ audio.Format) (Source, error) {
		return NewFLACSource(path)
	},
}

// FLACSource reads from a FLAC file
type FLACSource struct {
	stream     *flac.Stream
	frame      *frame.Frame
	offset     int // next unread sample index within frame
	sampleRate int
	channels   int
	bitDepth   int
}

// NewFLACSource creates a new FLAC audio source
func NewFLACSource(filePath string) (*FLACSource, error) {
	stream, err := flac.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to decode FLAC: %w", err)
	}

	info := stream.Info
	sampleRate := int(info.SampleRate)
	channels := int(info.NChannels)
	bitDepth := int(info.BitsPerSample)

	log.Printf("Loaded FLAC: %s (sample rate: %d Hz, channels: %d, bit depth: %d)",
		filepath.Base(filePath), sampleRate, channels, bitDepth)

	return &FLACSource{
		stream:     stream,
		sampleRate: sampleRate,
		channels:   channels,
		bitDepth:   bitDepth,
	}, nil
}

func (s *FLACSource) Read(samples []int32) (int, error) {
	samplesRead := 0

	for samplesRead+s.channels <= len(samples) {
		if s.frame == nil || s.offset >= int(s.frame.BlockSize) {
			f, err := s.stream.ParseNext()
			if err != nil {
				if errors.Is(err, io.EOF) {
					if samplesRead > 0 {
						return samplesRead, nil
					}
					return 0, io.EOF
				}
				return samplesRead, fmt.Errorf("flac decode error: %w", err)
			}
			s.frame = f
			s.offset = 0
		}

		for ; s.offset < int(s.frame.BlockSize) && samplesRead+s.channels <= len(samples); s.offset++ {
			for ch := 0; ch < s.channels; ch++ {
				sample := s.frame.Subframes[ch].Samples[s.offset]
				samples[samplesRead] = audio.SampleFromBits(sample, s.bitDepth)
				samplesRead++
			}
		}
	}

	return samplesRead, nil
}

func (s *FLACSource) SampleRate() int { return s.sampleRate }
func (s *FLACSource) Channels() int   { return s.channels }
func (s *FLACSource) Close() error {
	return s.stream.Close()
}
