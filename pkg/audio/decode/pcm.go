// ABOUTME: Raw PCM source for headerless .pcm and .raw files
// ABOUTME: Reads signed 16-bit little-endian samples in the requested output layout
package decode

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/amaranth-player/amaranth/pkg/audio"
)

var rawCodec = Codec{
	Name:       "pcm",
	Extensions: []string{".pcm", ".raw"},
	Open: func(path string, want audio.Format) (Source, error) {
		return NewPCMSource(path, want)
	},
}

// PCMSource reads headerless S16LSB audio. A raw file carries no header, so
// its layout is taken from the requested format.
type PCMSource struct {
	file   *os.File
	reader *bufio.Reader
	format audio.Format
	buf    []byte
}

// NewPCMSource opens a raw PCM file laid out as format
func NewPCMSource(filePath string, format audio.Format) (*PCMSource, error) {
	if format.Encoding != audio.S16LSB {
		return nil, fmt.Errorf("unsupported raw sample format: %s", format.Encoding)
	}

	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open PCM file: %w", err)
	}

	return &PCMSource{
		file:   f,
		reader: bufio.NewReader(f),
		format: format,
	}, nil
}

func (s *PCMSource) Read(samples []int32) (int, error) {
	// Whole frames only, so channels stay aligned across reads
	frameSize := s.format.FrameSize()
	numBytes := len(samples) * 2 / frameSize * frameSize
	if cap(s.buf) < numBytes {
		s.buf = make([]byte, numBytes)
	}
	buf := s.buf[:numBytes]

	n, err := io.ReadFull(s.reader, buf)
	if err == io.ErrUnexpectedEOF {
		err = nil
	}
	n -= n % frameSize

	numSamples := n / 2
	for i := 0; i < numSamples; i++ {
		sample16 := int16(binary.LittleEndian.Uint16(buf[i*2:]))
		samples[i] = audio.SampleFromInt16(sample16)
	}

	if numSamples == 0 && err == nil {
		err = io.EOF
	}
	return numSamples, err
}

func (s *PCMSource) SampleRate() int { return s.format.SampleRate }
func (s *PCMSource) Channels() int   { return s.format.Channels }
func (s *PCMSource) Close() error {
	return s.file.Close()
}
