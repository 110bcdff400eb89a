// ABOUTME: Decoder interfaces and the decoding engine
// ABOUTME: Resolves a file to a codec and opens it as a pull-based PCM stream
package decode

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/amaranth-player/amaranth/pkg/audio"
)

var (
	// ErrUnsupported is returned when no codec recognizes a file
	ErrUnsupported = errors.New("unsupported audio format")

	// ErrNotInitialized is returned by Open before Init or after Quit
	ErrNotInitialized = errors.New("decoder engine not initialized")

	// ErrClosed is returned when a stream is closed twice
	ErrClosed = errors.New("stream already closed")
)

// DefaultBufferSize is the initial decode buffer hint in bytes
const DefaultBufferSize = 4096

// Source provides native PCM samples from an open file
type Source interface {
	// Read reads interleaved samples in 24-bit range into the buffer.
	// Returns the number of samples read; io.EOF once the file is exhausted.
	Read(samples []int32) (int, error)

	// SampleRate returns the native sample rate
	SampleRate() int

	// Channels returns the native channel count
	Channels() int

	// Close releases the file and decoder state
	Close() error
}

// Stream is an open sound stream converted to a fixed output format
type Stream interface {
	// Decode resizes the internal buffer to length and fills it with up to
	// length bytes of PCM. Returns 0 at end of stream or after a decode error.
	Decode(length int) int

	// Buffer returns the bytes produced by the last Decode
	Buffer() []byte

	// Format returns the output format
	Format() audio.Format

	// Err returns the decode error that ended the stream, if any
	Err() error

	// Close releases the stream
	Close() error
}

// Codec describes one file format the engine can open
type Codec struct {
	Name       string
	Extensions []string

	// Match reports whether the leading bytes of a file belong to this codec
	Match func(head []byte) bool

	// Open opens path as a native source; want is the requested output
	// format, used only by codecs without a header of their own
	Open func(path string, want audio.Format) (Source, error)
}

// Engine opens sound files using a table of codecs
type Engine struct {
	codecs []Codec
	ready  bool
}

// NewEngine creates an engine with the built-in codecs
func NewEngine() *Engine {
	return &Engine{
		codecs: []Codec{wavCodec, flacCodec, opusCodec, vorbisCodec, mp3Codec, rawCodec},
	}
}

// Register adds a codec to the table. Codecs can only be added before Init.
func (e *Engine) Register(c Codec) error {
	if e.ready {
		return errors.New("cannot register codecs after Init")
	}
	if c.Name == "" || c.Open == nil {
		return errors.New("codec needs a name and an Open function")
	}
	if c.Match == nil && len(c.Extensions) == 0 {
		return fmt.Errorf("codec %s matches nothing", c.Name)
	}
	for _, existing := range e.codecs {
		if existing.Name == c.Name {
			return fmt.Errorf("codec %s already registered", c.Name)
		}
	}
	e.codecs = append(e.codecs, c)
	return nil
}

// Init brings the engine up
func (e *Engine) Init() error {
	if e.ready {
		return errors.New("decoder engine already initialized")
	}
	if len(e.codecs) == 0 {
		return errors.New("no codecs available")
	}
	e.ready = true
	return nil
}

// Quit shuts the engine down
func (e *Engine) Quit() {
	e.ready = false
}

// Codecs returns the names of the registered codecs
func (e *Engine) Codecs() []string {
	names := make([]string, len(e.codecs))
	for i, c := range e.codecs {
		names[i] = c.Name
	}
	return names
}

// Open opens path and converts its audio to want. hint is the initial size
// of the internal decode buffer in bytes.
func (e *Engine) Open(path string, want audio.Format, hint int) (Stream, error) {
	if !e.ready {
		return nil, ErrNotInitialized
	}
	if err := want.Validate(); err != nil {
		return nil, err
	}

	codec, err := e.detect(path)
	if err != nil {
		return nil, err
	}

	src, err := codec.Open(path, want)
	if err != nil {
		return nil, err
	}

	log.Printf("Opened %s as %s: %dHz, %d channels -> %s",
		path, codec.Name, src.SampleRate(), src.Channels(), want)

	sample, err := newSample(src, want, hint)
	if err != nil {
		_ = src.Close()
		return nil, err
	}
	return sample, nil
}

// detect picks the codec for path. A headerless codec claiming the extension
// wins outright since its data can look like anything; otherwise content is
// checked first and the extension second.
func (e *Engine) detect(path string) (Codec, error) {
	ext := extension(path)
	if c, ok := e.byExtension(ext, true); ok {
		return c, nil
	}

	head, err := readHead(path, headSize)
	if err != nil {
		return Codec{}, err
	}

	for _, c := range e.codecs {
		if c.Match != nil && c.Match(head) {
			return c, nil
		}
	}

	if c, ok := e.byExtension(ext, false); ok {
		return c, nil
	}

	return Codec{}, fmt.Errorf("%w: %s", ErrUnsupported, describeExt(ext))
}

func (e *Engine) byExtension(ext string, headerless bool) (Codec, bool) {
	if ext == "" {
		return Codec{}, false
	}
	for _, c := range e.codecs {
		if headerless && c.Match != nil {
			continue
		}
		for _, x := range c.Extensions {
			if x == ext {
				return c, true
			}
		}
	}
	return Codec{}, false
}

func describeExt(ext string) string {
	if ext == "" {
		return "no file extension and unrecognized content"
	}
	return ext
}

// readHead reads up to n leading bytes of the file
func readHead(path string, n int) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	head := make([]byte, n)
	m, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, err
	}
	return head[:m], nil
}
