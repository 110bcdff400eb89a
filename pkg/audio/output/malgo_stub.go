//go:build !malgo

// ABOUTME: Malgo stub when built without the malgo tag
// ABOUTME: Provides compile-time placeholder when miniaudio is not linked
package output

import "errors"

const malgoEnabled = false

var errMalgoDisabled = errors.New("malgo support not enabled (build with -tags malgo)")

// Malgo output implementation (stub)
type Malgo struct{}

// NewMalgo creates a new Malgo output
func NewMalgo() Device {
	return &Malgo{}
}

func (m *Malgo) Init() error           { return errMalgoDisabled }
func (m *Malgo) Open(DeviceSpec) error { return errMalgoDisabled }
func (m *Malgo) Start() error          { return errMalgoDisabled }
func (m *Malgo) Close() error          { return nil }
