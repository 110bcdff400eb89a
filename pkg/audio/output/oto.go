// ABOUTME: Oto-based audio output implementation
// ABOUTME: Drives the fill callback from oto's player reads
package output

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

// Oto output implementation using oto library. oto allows one context per
// process, so a second Open must request the same format.
type Oto struct {
	otoCtx *oto.Context
	player *oto.Player
	spec   DeviceSpec
	mu     sync.Mutex
	closed bool
}

// NewOto creates a new Oto output
func NewOto() *Oto {
	return &Oto{}
}

// Init is a no-op; oto creates its context once the format is known
func (o *Oto) Init() error {
	return nil
}

// Open creates the oto context and a player pulling from the callback
func (o *Oto) Open(spec DeviceSpec) error {
	if err := spec.Validate(); err != nil {
		return err
	}

	if o.otoCtx != nil && o.spec.Format != spec.Format {
		return fmt.Errorf("oto context already running at %s, cannot reopen at %s", o.spec.Format, spec.Format)
	}

	if o.otoCtx == nil {
		op := &oto.NewContextOptions{
			SampleRate:   spec.Format.SampleRate,
			ChannelCount: spec.Format.Channels,
			Format:       oto.FormatSignedInt16LE,
			BufferSize:   spec.BufferDuration(),
		}

		ctx, readyChan, err := oto.NewContext(op)
		if err != nil {
			return fmt.Errorf("failed to create oto context: %w", err)
		}
		<-readyChan
		o.otoCtx = ctx
	}

	o.spec = spec
	o.closed = false
	o.player = o.otoCtx.NewPlayer(&callbackReader{o: o, size: spec.BufferBytes()})
	// The default player buffer holds half a second, far more than the device buffer
	o.player.SetBufferSize(spec.BufferBytes())

	log.Printf("Audio output initialized: %dHz, %d channels, %d-sample buffer (oto)",
		spec.Format.SampleRate, spec.Format.Channels, spec.Samples)

	return nil
}

// Start begins playback
func (o *Oto) Start() error {
	if o.player == nil {
		return ErrNotOpen
	}
	if err := o.otoCtx.Resume(); err != nil {
		return fmt.Errorf("failed to resume oto context: %w", err)
	}
	o.player.Play()
	return nil
}

// Pending returns the audio queued in the player plus the context buffer
func (o *Oto) Pending() time.Duration {
	if o.player == nil {
		return 0
	}
	return o.spec.Format.Duration(o.player.BufferedSize()) + o.spec.BufferDuration()
}

// Close releases output resources
func (o *Oto) Close() error {
	o.mu.Lock()
	o.closed = true
	o.mu.Unlock()

	var err error
	if o.player != nil {
		o.player.Pause()
		err = o.player.Close()
		o.player = nil
	}
	if o.otoCtx != nil {
		if serr := o.otoCtx.Suspend(); err == nil {
			err = serr
		}
	}
	return err
}

// callbackReader adapts the fill callback to the io.Reader oto pulls from.
// Reads are split into device-buffer sized callbacks.
type callbackReader struct {
	o    *Oto
	size int
}

func (r *callbackReader) Read(p []byte) (int, error) {
	r.o.mu.Lock()
	defer r.o.mu.Unlock()

	if r.o.closed {
		clear(p)
		return len(p), nil
	}

	for off := 0; off < len(p); off += r.size {
		end := min(off+r.size, len(p))
		r.o.spec.Callback(p[off:end])
	}
	return len(p), nil
}
