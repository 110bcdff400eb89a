// ABOUTME: Ogg Vorbis source backed by jfreymuth/oggvorbis
// ABOUTME: Decodes Vorbis float samples to the internal 24-bit range
package decode

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/amaranth-player/amaranth/pkg/audio"
	"github.com/jfreymuth/oggvorbis"
)

var vorbisCodec = Codec{
	Name:       "vorbis",
	Extensions: []string{".ogg", ".oga"},
	Match:      isVorbis,
	Open: func(path string, _ audio.Format) (Source, error) {
		return NewVorbisSource(path)
	},
}

// VorbisSource reads from an Ogg Vorbis file
type VorbisSource struct {
	file   *os.File
	reader *oggvorbis.Reader
	pcm    []float32
}

// NewVorbisSource creates a new Ogg Vorbis audio source
func NewVorbisSource(filePath string) (*VorbisSource, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Vorbis file: %w", err)
	}

	reader, err := oggvorbis.NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to decode Vorbis: %w", err)
	}

	log.Printf("Loaded Vorbis: %s (sample rate: %d Hz, channels: %d)",
		filepath.Base(filePath), reader.SampleRate(), reader.Channels())

	return &VorbisSource{
		file:   f,
		reader: reader,
	}, nil
}

func (s *VorbisSource) Read(samples []int32) (int, error) {
	if cap(s.pcm) < len(samples) {
		s.pcm = make([]float32, len(samples))
	}

	// Reader.Read returns whole frames
	n, err := s.reader.Read(s.pcm[:len(samples)])
	for i, v := range s.pcm[:n] {
		samples[i] = audio.SampleFromFloat(v)
	}

	switch {
	case err == nil:
		return n, nil
	case err == io.EOF:
		if n > 0 {
			return n, nil
		}
		return 0, io.EOF
	default:
		return n, fmt.Errorf("vorbis decode error: %w", err)
	}
}

func (s *VorbisSource) SampleRate() int { return s.reader.SampleRate() }
func (s *VorbisSource) Channels() int   { return s.reader.Channels() }
func (s *VorbisSource) Close() error {
	return s.file.Close()
}
