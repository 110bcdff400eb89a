// ABOUTME: MP3 source backed by go-mp3
// ABOUTME: Decodes MP3 files to 16-bit stereo PCM
package decode

import (
	"encoding/binary"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/amaranth-player/amaranth/pkg/audio"
	"github.com/hajimehoshi/go-mp3"
)

var mp3Codec = Codec{
	Name:       "mp3",
	Extensions: []string{".mp3"},
	Match:      isMP3,
	Open: func(path string, _ audio.Format) (Source, error) {
		return NewMP3Source(path)
	},
}

// MP3Source reads from an MP3 file
type MP3Source struct {
	file       *os.File
	decoder    *mp3.Decoder
	buf        []byte
	sampleRate int
	channels   int
}

// NewMP3Source creates a new MP3 audio source
func NewMP3Source(filePath string) (*MP3Source, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open MP3 file: %w", err)
	}

	decoder, err := mp3.NewDecoder(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to decode MP3: %w", err)
	}

	log.Printf("Loaded MP3: %s (sample rate: %d Hz)", filepath.Base(filePath), decoder.SampleRate())

	return &MP3Source{
		file:       f,
		decoder:    decoder,
		sampleRate: decoder.SampleRate(),
		channels:   2, // MP3 decoder outputs stereo
	}, nil
}

func (s *MP3Source) Read(samples []int32) (int, error) {
	// MP3 decoder outputs int16 = 2 bytes per sample, whole frames only
	numBytes := len(samples) / s.channels * s.channels * 2
	if cap(s.buf) < numBytes {
		s.buf = make([]byte, numBytes)
	}
	buf := s.buf[:numBytes]

	n, err := io.ReadFull(s.decoder, buf)
	if err == io.ErrUnexpectedEOF {
		err = nil
	}
	if err != nil && err != io.EOF {
		return 0, fmt.Errorf("mp3 decode error: %w", err)
	}

	numSamples := n / 2
	numSamples -= numSamples % s.channels
	for i := 0; i < numSamples; i++ {
		sample16 := int16(binary.LittleEndian.Uint16(buf[i*2 : i*2+2]))
		samples[i] = audio.SampleFromInt16(sample16)
	}

	if numSamples == 0 {
		return 0, io.EOF
	}
	return numSamples, nil
}

func (s *MP3Source) SampleRate() int { return s.sampleRate }
func (s *MP3Source) Channels() int   { return s.channels }
func (s *MP3Source) Close() error {
	return s.file.Close()
}
