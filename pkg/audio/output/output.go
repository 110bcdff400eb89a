// ABOUTME: Audio output device interface definition
// ABOUTME: Pull-callback devices configured by an immutable DeviceSpec
package output

import (
	"errors"
	"fmt"
	"time"

	"github.com/amaranth-player/amaranth/pkg/audio"
)

// ErrNotOpen is returned by Start before a successful Open
var ErrNotOpen = errors.New("output device not open")

// Callback fills out with the next len(out) bytes of PCM. Calls never overlap.
// They normally come from the device's own goroutine or audio thread, but a
// backend may also call it from Start to prime its buffer (oto does).
type Callback func(out []byte)

// Drainer is implemented by devices that queue audio beyond the callback
// buffer. Pending reports how long the audio already taken from the callback
// needs to finish playing.
type Drainer interface {
	Pending() time.Duration
}

// DeviceSpec is the requested output configuration
type DeviceSpec struct {
	Format audio.Format

	// Samples is the device buffer size in sample frames
	Samples int

	Callback Callback
}

// Validate checks the spec before it is handed to a backend
func (s DeviceSpec) Validate() error {
	if err := s.Format.Validate(); err != nil {
		return err
	}
	if s.Samples <= 0 {
		return fmt.Errorf("invalid buffer size: %d samples", s.Samples)
	}
	if s.Callback == nil {
		return errors.New("missing callback")
	}
	return nil
}

// BufferBytes returns the size of one device buffer in bytes
func (s DeviceSpec) BufferBytes() int {
	return s.Samples * s.Format.FrameSize()
}

// BufferDuration returns the play time of one device buffer
func (s DeviceSpec) BufferDuration() time.Duration {
	return s.Format.Duration(s.BufferBytes())
}

// Device represents an audio output device
type Device interface {
	// Init brings up the platform audio subsystem
	Init() error

	// Open opens the device with spec. The device keeps its own copy.
	Open(spec DeviceSpec) error

	// Start begins callback delivery
	Start() error

	// Close stops callback delivery and releases the device and subsystem.
	// No callback runs after Close returns.
	Close() error
}
