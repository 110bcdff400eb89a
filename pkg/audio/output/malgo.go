//go:build malgo

// ABOUTME: Malgo-based audio output implementation
// ABOUTME: Uses miniaudio via malgo; its data callback maps directly onto the fill callback
package output

import (
	"fmt"
	"log"
	"sync"

	"github.com/gen2brain/malgo"
)

const malgoEnabled = true

// Malgo output implementation using malgo/miniaudio library
type Malgo struct {
	malgoCtx *malgo.AllocatedContext
	device   *malgo.Device
	spec     DeviceSpec
	mu       sync.Mutex
	stopped  bool
}

// NewMalgo creates a new Malgo output
func NewMalgo() Device {
	return &Malgo{}
}

// Init creates the miniaudio context
func (m *Malgo) Init() error {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return fmt.Errorf("failed to initialize malgo context: %w", err)
	}
	m.malgoCtx = ctx
	return nil
}

// Open initializes the playback device
func (m *Malgo) Open(spec DeviceSpec) error {
	if err := spec.Validate(); err != nil {
		return err
	}
	if m.malgoCtx == nil {
		return fmt.Errorf("malgo context not initialized")
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Playback)
	deviceConfig.Playback.Format = malgo.FormatS16
	deviceConfig.Playback.Channels = uint32(spec.Format.Channels)
	deviceConfig.SampleRate = uint32(spec.Format.SampleRate)
	deviceConfig.PeriodSizeInFrames = uint32(spec.Samples)
	deviceConfig.Alsa.NoMMap = 1

	m.spec = spec
	callbacks := malgo.DeviceCallbacks{
		Data: m.dataCallback,
	}

	device, err := malgo.InitDevice(m.malgoCtx.Context, deviceConfig, callbacks)
	if err != nil {
		return fmt.Errorf("failed to initialize playback device: %w", err)
	}
	m.device = device

	log.Printf("Audio output initialized: %dHz, %d channels, %d-sample buffer (malgo)",
		spec.Format.SampleRate, spec.Format.Channels, spec.Samples)

	return nil
}

// dataCallback is called by malgo to fill the audio output buffer
func (m *Malgo) dataCallback(pOutput, _ []byte, frameCount uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := pOutput[:int(frameCount)*m.spec.Format.FrameSize()]
	if m.stopped {
		clear(out)
		return
	}
	m.spec.Callback(out)
}

// Start starts the device
func (m *Malgo) Start() error {
	if m.device == nil {
		return ErrNotOpen
	}
	if err := m.device.Start(); err != nil {
		return fmt.Errorf("failed to start device: %w", err)
	}
	return nil
}

// Close stops the device and releases the context
func (m *Malgo) Close() error {
	m.mu.Lock()
	m.stopped = true
	m.mu.Unlock()

	if m.device != nil {
		if err := m.device.Stop(); err != nil {
			log.Printf("Warning: device stop error: %v", err)
		}
		m.device.Uninit()
		m.device = nil
	}

	if m.malgoCtx != nil {
		if err := m.malgoCtx.Uninit(); err != nil {
			log.Printf("Warning: malgo context uninit error: %v", err)
		}
		m.malgoCtx.Free()
		m.malgoCtx = nil
	}
	return nil
}
