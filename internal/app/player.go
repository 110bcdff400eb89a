// ABOUTME: Playback driver orchestration
// ABOUTME: Wires the decoder engine to a pull-callback output device and runs until end of stream
package app

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/amaranth-player/amaranth/internal/config"
	"github.com/amaranth-player/amaranth/pkg/audio"
	"github.com/amaranth-player/amaranth/pkg/audio/decode"
	"github.com/amaranth-player/amaranth/pkg/audio/output"
)

// Engine opens sound streams
type Engine interface {
	Init() error
	Open(path string, format audio.Format, hint int) (decode.Stream, error)
	Quit()
}

// State is the playback lifecycle position. Transitions only move forward.
type State int32

const (
	Uninitialized State = iota
	SubsystemsReady
	StreamOpen
	DeviceOpen
	Playing
	Terminated
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case SubsystemsReady:
		return "subsystems-ready"
	case StreamOpen:
		return "stream-open"
	case DeviceOpen:
		return "device-open"
	case Playing:
		return "playing"
	case Terminated:
		return "terminated"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Stats contains playback counters
type Stats struct {
	Callbacks int64 // device callback invocations
	Decodes   int64 // Decode calls, including the final one returning 0
	Bytes     int64 // decoded bytes copied to the device
}

// Player plays one sound file
type Player struct {
	config config.Config
	engine Engine
	device output.Device

	stream decode.Stream
	spec   output.DeviceSpec

	state     atomic.Int32
	deviceUp  bool
	engineUp  bool
	finished  atomic.Bool
	done      chan struct{}
	doneOnce  sync.Once
	closeOnce sync.Once

	callbacks atomic.Int64
	decodes   atomic.Int64
	bytes     atomic.Int64
}

// New creates a player
func New(cfg config.Config, engine Engine, device output.Device) *Player {
	return &Player{
		config: cfg,
		engine: engine,
		device: device,
		done:   make(chan struct{}),
	}
}

// State returns the current lifecycle state
func (p *Player) State() State {
	return State(p.state.Load())
}

// Stats returns playback counters
func (p *Player) Stats() Stats {
	return Stats{
		Callbacks: p.callbacks.Load(),
		Decodes:   p.decodes.Load(),
		Bytes:     p.bytes.Load(),
	}
}

// Spec returns the device spec built by OpenDevice
func (p *Player) Spec() output.DeviceSpec {
	return p.spec
}

// Done is closed when the stream reaches its end
func (p *Player) Done() <-chan struct{} {
	return p.done
}

func (p *Player) expect(s State) error {
	if cur := p.State(); cur != s {
		return fmt.Errorf("player is %s, expected %s", cur, s)
	}
	return nil
}

// Initialize brings up the audio subsystem, then the decoder engine
func (p *Player) Initialize() error {
	if err := p.expect(Uninitialized); err != nil {
		return err
	}

	if err := p.device.Init(); err != nil {
		p.state.Store(int32(Terminated))
		return &Error{Stage: StageInit, Subject: "audio output", Err: err}
	}
	p.deviceUp = true

	if err := p.engine.Init(); err != nil {
		p.state.Store(int32(Terminated))
		return &Error{Stage: StageInit, Subject: "decoder", Err: err}
	}
	p.engineUp = true

	p.state.Store(int32(SubsystemsReady))
	return nil
}

// OpenStream opens path in the configured format
func (p *Player) OpenStream(path string) error {
	if err := p.expect(SubsystemsReady); err != nil {
		return err
	}

	stream, err := p.engine.Open(path, p.config.Format, p.config.DecodeBuffer)
	if err != nil {
		p.state.Store(int32(Terminated))
		return &Error{Stage: StageOpen, Subject: path, Err: err}
	}
	p.stream = stream

	p.state.Store(int32(StreamOpen))
	return nil
}

// OpenDevice opens the output device with a spec built from the config
func (p *Player) OpenDevice() error {
	if err := p.expect(StreamOpen); err != nil {
		return err
	}

	stream := p.stream
	p.spec = output.DeviceSpec{
		Format:  p.config.Format,
		Samples: p.config.Samples,
		Callback: func(out []byte) {
			p.fill(stream, out)
		},
	}

	if err := p.device.Open(p.spec); err != nil {
		p.state.Store(int32(Terminated))
		return &Error{Stage: StageDevice, Err: err}
	}

	p.state.Store(int32(DeviceOpen))
	return nil
}

// Start begins callback delivery
func (p *Player) Start() error {
	if err := p.expect(DeviceOpen); err != nil {
		return err
	}

	// Playing must be visible before the first callback can end the stream
	p.state.Store(int32(Playing))
	if err := p.device.Start(); err != nil {
		p.state.Store(int32(Terminated))
		return &Error{Stage: StageDevice, Err: fmt.Errorf("start: %w", err)}
	}

	log.Printf("Playing %s (%s, %d-sample buffer)", p.config.Path, p.config.Format, p.config.Samples)
	return nil
}

// fill is the device callback. It decodes len(out) bytes into out and
// zero-fills whatever the decoder could not provide. The first empty decode
// ends the stream; later calls play silence without touching the decoder.
func (p *Player) fill(stream decode.Stream, out []byte) {
	p.callbacks.Add(1)

	if p.finished.Load() {
		clear(out)
		return
	}

	n := stream.Decode(len(out))
	p.decodes.Add(1)

	if n == 0 {
		p.finished.Store(true)
		clear(out)
		if err := stream.Err(); err != nil {
			log.Printf("Stream ended on decode error: %v", err)
		} else {
			log.Printf("End of stream")
		}
		p.doneOnce.Do(func() { close(p.done) })
		return
	}

	copy(out, stream.Buffer()[:n])
	clear(out[n:])
	p.bytes.Add(int64(n))
}

// Run blocks until the stream ends or ctx is cancelled, then shuts down
func (p *Player) Run(ctx context.Context) error {
	if err := p.expect(Playing); err != nil {
		return err
	}

	select {
	case <-p.done:
		// Let the device play out the audio it already holds
		select {
		case <-time.After(p.drainTime()):
		case <-ctx.Done():
		}
	case <-ctx.Done():
		log.Printf("Playback interrupted: %v", ctx.Err())
	}

	p.Close()
	return nil
}

// drainTime is how long queued audio needs once the stream has ended
func (p *Player) drainTime() time.Duration {
	if d, ok := p.device.(output.Drainer); ok {
		return d.Pending()
	}
	return p.spec.BufferDuration()
}

// Play runs the whole lifecycle for the configured file
func (p *Player) Play(ctx context.Context) error {
	steps := []func() error{
		p.Initialize,
		func() error { return p.OpenStream(p.config.Path) },
		p.OpenDevice,
		p.Start,
	}
	for _, step := range steps {
		if err := step(); err != nil {
			p.Close()
			return err
		}
	}

	return p.Run(ctx)
}

// Close releases the device, the stream and the engine, in that order, so
// no callback can touch a closed stream
func (p *Player) Close() {
	p.closeOnce.Do(func() {
		if p.deviceUp {
			if err := p.device.Close(); err != nil {
				log.Printf("Error closing audio output: %v", err)
			}
		}
		if p.stream != nil {
			if err := p.stream.Close(); err != nil {
				log.Printf("Error closing stream: %v", err)
			}
		}
		if p.engineUp {
			p.engine.Quit()
		}

		p.state.Store(int32(Terminated))
		s := p.Stats()
		log.Printf("Player stopped: %d callbacks, %d bytes played", s.Callbacks, s.Bytes)
	})
}
