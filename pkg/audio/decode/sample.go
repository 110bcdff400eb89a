// ABOUTME: Sample is the stream handle returned by Engine.Open
// ABOUTME: Converts native source PCM to the output format and fills the decode buffer
package decode

import (
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/amaranth-player/amaranth/pkg/audio"
	"github.com/amaranth-player/amaranth/pkg/audio/encode"
	"github.com/amaranth-player/amaranth/pkg/audio/resample"
)

// chunkFrames is the number of native frames converted per source read
const chunkFrames = 1024

// maxEmptyReads bounds consecutive reads that return no samples and no error
const maxEmptyReads = 100

// Sample is an open sound stream
type Sample struct {
	conv   *converter
	format audio.Format

	buf     []byte // decode buffer, resized by Decode
	chunk   []byte // converted bytes of the current native chunk
	pending []byte // unread tail of chunk

	eof    bool
	err    error
	closed bool
}

func newSample(src Source, want audio.Format, hint int) (*Sample, error) {
	if hint <= 0 {
		hint = DefaultBufferSize
	}
	conv, err := newConverter(src, want)
	if err != nil {
		return nil, err
	}
	return &Sample{
		conv:   conv,
		format: want,
		buf:    make([]byte, 0, hint),
	}, nil
}

// Decode resizes the decode buffer to length and fills it. Native chunks are
// concatenated so only the last Decode of a stream returns fewer than length
// bytes. Returns 0 at end of stream and after a decode error.
func (s *Sample) Decode(length int) int {
	if cap(s.buf) < length {
		s.buf = make([]byte, 0, length)
	}
	s.buf = s.buf[:0]

	for len(s.buf) < length {
		if len(s.pending) == 0 {
			if s.eof || s.closed {
				break
			}
			s.refill()
			continue
		}
		n := copy(s.buf[len(s.buf):length], s.pending)
		s.buf = s.buf[:len(s.buf)+n]
		s.pending = s.pending[n:]
	}

	return len(s.buf)
}

// refill converts the next native chunk into pending
func (s *Sample) refill() {
	var err error
	for empty := 0; ; empty++ {
		s.chunk, err = s.conv.next(s.chunk[:0])
		if len(s.chunk) > 0 || err != nil {
			break
		}
		if empty >= maxEmptyReads {
			err = io.ErrNoProgress
			break
		}
	}
	s.pending = s.chunk

	if err != nil {
		s.eof = true
		if !errors.Is(err, io.EOF) {
			s.err = err
			log.Printf("Decode error: %v", err)
		}
	}
}

// Buffer returns the bytes produced by the last Decode
func (s *Sample) Buffer() []byte {
	return s.buf
}

// Format returns the output format
func (s *Sample) Format() audio.Format {
	return s.format
}

// Err returns the error that ended decoding, nil for a clean end of stream
func (s *Sample) Err() error {
	return s.err
}

// Close releases the native source
func (s *Sample) Close() error {
	if s.closed {
		return ErrClosed
	}
	s.closed = true
	s.pending = nil
	return s.conv.src.Close()
}

// converter turns native source samples into encoded output bytes
type converter struct {
	src       Source
	out       audio.Format
	inCh      int
	resampler *resample.Resampler
	enc       encode.Encoder

	native []int32
	mixed  []int32
	rated  []int32
}

func newConverter(src Source, out audio.Format) (*converter, error) {
	if src.Channels() < 1 || src.SampleRate() < 1 {
		return nil, fmt.Errorf("invalid source format: %dHz, %d channels", src.SampleRate(), src.Channels())
	}
	enc, err := encode.New(out.Encoding)
	if err != nil {
		return nil, err
	}
	c := &converter{
		src:    src,
		out:    out,
		enc:    enc,
		inCh:   src.Channels(),
		native: make([]int32, chunkFrames*src.Channels()),
		mixed:  make([]int32, chunkFrames*out.Channels),
	}
	if src.SampleRate() != out.SampleRate {
		c.resampler = resample.New(src.SampleRate(), out.SampleRate, out.Channels)
		c.rated = make([]int32, c.resampler.OutputSamplesNeeded(len(c.mixed)))
	}
	return c, nil
}

// next reads one native chunk and appends its encoded form to dst. Samples
// read alongside an error are still returned.
func (c *converter) next(dst []byte) ([]byte, error) {
	n, err := c.src.Read(c.native)
	frames := n / c.inCh
	if frames == 0 {
		return dst, err
	}

	samples := remix(c.native[:frames*c.inCh], c.mixed, c.inCh, c.out.Channels)
	if c.resampler != nil {
		m := c.resampler.Resample(samples, c.rated)
		samples = c.rated[:m]
	}

	return c.enc.Append(dst, samples), err
}

// remix maps inCh interleaved channels onto outCh. Extra input channels are
// averaged into output channel i%outCh; missing ones repeat input channel
// o%inCh, which duplicates mono onto every output.
func remix(in, out []int32, inCh, outCh int) []int32 {
	frames := len(in) / inCh
	out = out[:frames*outCh]
	if inCh == outCh {
		copy(out, in)
		return out
	}

	for f := 0; f < frames; f++ {
		frame := in[f*inCh : (f+1)*inCh]
		for o := 0; o < outCh; o++ {
			if inCh < outCh {
				out[f*outCh+o] = frame[o%inCh]
				continue
			}
			var sum int64
			count := 0
			for i := o; i < inCh; i += outCh {
				sum += int64(frame[i])
				count++
			}
			out[f*outCh+o] = int32(sum / int64(count))
		}
	}
	return out
}
