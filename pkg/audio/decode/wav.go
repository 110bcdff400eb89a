// ABOUTME: WAV source backed by go-audio/wav
// ABOUTME: Decodes 8, 16, 24 and 32-bit integer PCM WAV files
package decode

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/amaranth-player/amaranth/pkg/audio"
	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	wavFormatPCM        = 1
	wavFormatExtensible = 0xFFFE
)

var wavCodec = Codec{
	Name:       "wav",
	Extensions: []string{".wav", ".wave"},
	Match:      isWAV,
	Open: func(path string, _ audio.Format) (Source, error) {
		return NewWAVSource(path)
	},
}

// WAVSource reads from a WAV file
type WAVSource struct {
	file       *os.File
	decoder    *wav.Decoder
	buf        *goaudio.IntBuffer
	sampleRate int
	channels   int
	bitDepth   int
}

// NewWAVSource creates a new WAV audio source
func NewWAVSource(filePath string) (*WAVSource, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open WAV file: %w", err)
	}

	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		f.Close()
		return nil, fmt.Errorf("failed to decode WAV: invalid file")
	}

	if decoder.WavAudioFormat != wavFormatPCM && decoder.WavAudioFormat != wavFormatExtensible {
		f.Close()
		return nil, fmt.Errorf("%w: WAV encoding %d (only integer PCM)", ErrUnsupported, decoder.WavAudioFormat)
	}

	bitDepth := int(decoder.BitDepth)
	switch bitDepth {
	case 8, 16, 24, 32:
	default:
		f.Close()
		return nil, fmt.Errorf("%w: WAV bit depth %d", ErrUnsupported, bitDepth)
	}

	if err := decoder.FwdToPCM(); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to find WAV data chunk: %w", err)
	}

	log.Printf("Loaded WAV: %s (sample rate: %d Hz, channels: %d, bit depth: %d)",
		filepath.Base(filePath), decoder.SampleRate, decoder.NumChans, bitDepth)

	return &WAVSource{
		file:       f,
		decoder:    decoder,
		sampleRate: int(decoder.SampleRate),
		channels:   int(decoder.NumChans),
		bitDepth:   bitDepth,
	}, nil
}

func (s *WAVSource) Read(samples []int32) (int, error) {
	want := len(samples) / s.channels * s.channels
	if s.buf == nil || len(s.buf.Data) != want {
		s.buf = &goaudio.IntBuffer{
			Format:         s.decoder.Format(),
			Data:           make([]int, want),
			SourceBitDepth: s.bitDepth,
		}
	}

	n, err := s.decoder.PCMBuffer(s.buf)
	if err != nil {
		return 0, fmt.Errorf("wav decode error: %w", err)
	}
	if n == 0 {
		return 0, io.EOF
	}

	n -= n % s.channels
	for i := 0; i < n; i++ {
		v := s.buf.Data[i]
		if s.bitDepth == 8 {
			// 8-bit WAV is unsigned
			v -= 128
		}
		samples[i] = audio.SampleFromBits(int32(v), s.bitDepth)
	}

	return n, nil
}

func (s *WAVSource) SampleRate() int { return s.sampleRate }
func (s *WAVSource) Channels() int   { return s.channels }
func (s *WAVSource) Close() error {
	return s.file.Close()
}
