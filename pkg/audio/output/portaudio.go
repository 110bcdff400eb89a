//go:build portaudio

// ABOUTME: PortAudio output implementation
// ABOUTME: Cross-platform audio output using PortAudio's stream callback
package output

import (
	"encoding/binary"
	"fmt"
	"log"
	"sync"

	"github.com/gordonklaus/portaudio"
)

const portAudioEnabled = true

// PortAudio output implementation
type PortAudio struct {
	stream  *portaudio.Stream
	spec    DeviceSpec
	scratch []byte
	mu      sync.Mutex
	stopped bool
	ready   bool
}

// NewPortAudio creates a new PortAudio output
func NewPortAudio() Device {
	return &PortAudio{}
}

// Init initializes PortAudio
func (p *PortAudio) Init() error {
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize portaudio: %w", err)
	}
	p.ready = true
	return nil
}

// Open opens the default output stream
func (p *PortAudio) Open(spec DeviceSpec) error {
	if err := spec.Validate(); err != nil {
		return err
	}

	p.spec = spec
	p.scratch = make([]byte, spec.BufferBytes())

	stream, err := portaudio.OpenDefaultStream(0, spec.Format.Channels,
		float64(spec.Format.SampleRate), spec.Samples, p.process)
	if err != nil {
		return fmt.Errorf("failed to open stream: %w", err)
	}
	p.stream = stream

	log.Printf("Audio output initialized: %dHz, %d channels, %d-sample buffer (portaudio)",
		spec.Format.SampleRate, spec.Format.Channels, spec.Samples)

	return nil
}

// process bridges PortAudio's int16 buffer to the byte callback
func (p *PortAudio) process(out []int16) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		clear(out)
		return
	}

	if cap(p.scratch) < len(out)*2 {
		p.scratch = make([]byte, len(out)*2)
	}
	buf := p.scratch[:len(out)*2]
	p.spec.Callback(buf)
	for i := range out {
		out[i] = int16(binary.LittleEndian.Uint16(buf[i*2:]))
	}
}

// Start starts the stream
func (p *PortAudio) Start() error {
	if p.stream == nil {
		return ErrNotOpen
	}
	return p.stream.Start()
}

// Close releases resources
func (p *PortAudio) Close() error {
	p.mu.Lock()
	p.stopped = true
	p.mu.Unlock()

	if p.stream != nil {
		if err := p.stream.Stop(); err != nil {
			log.Printf("Warning: stream stop error: %v", err)
		}
		if err := p.stream.Close(); err != nil {
			return err
		}
		p.stream = nil
	}
	if p.ready {
		p.ready = false
		return portaudio.Terminate()
	}
	return nil
}
