//go:build !portaudio

// ABOUTME: PortAudio stub when library not available
// ABOUTME: Provides compile-time placeholder when PortAudio not installed
package output

import "errors"

const portAudioEnabled = false

var errPortAudioDisabled = errors.New("PortAudio support not enabled (build with -tags portaudio)")

// PortAudio output implementation (stub)
type PortAudio struct{}

// NewPortAudio creates a new PortAudio output
func NewPortAudio() Device {
	return &PortAudio{}
}

func (p *PortAudio) Init() error           { return errPortAudioDisabled }
func (p *PortAudio) Open(DeviceSpec) error { return errPortAudioDisabled }
func (p *PortAudio) Start() error          { return errPortAudioDisabled }
func (p *PortAudio) Close() error          { return nil }
