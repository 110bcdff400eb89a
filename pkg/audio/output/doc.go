// ABOUTME: Audio output package for playing audio
// ABOUTME: Provides the Device interface and its backends
// Package output provides pull-callback audio devices.
//
// A Device is opened with a DeviceSpec naming the PCM format, the buffer
// size in sample frames and a Callback. Once started, the device calls the
// callback from its own thread whenever it needs another buffer.
//
// Backends: Oto (default), Malgo (-tags malgo), PortAudio (-tags portaudio)
// and Headless (-tags headless, and always available to tests).
//
// Example:
//
//	dev := output.NewDefault()
//	err := dev.Init()
//	err = dev.Open(output.DeviceSpec{Format: format, Samples: 1024, Callback: fill})
//	err = dev.Start()
package output
