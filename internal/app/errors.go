// ABOUTME: Terminal error taxonomy for the playback driver
// ABOUTME: Every setup failure maps to a stage and a one-line diagnostic
package app

import "fmt"

// Stage identifies where playback setup failed
type Stage int

const (
	// StageUsage is a missing or malformed command line
	StageUsage Stage = iota + 1
	// StageInit is a failure bringing up the audio or decoder subsystem
	StageInit
	// StageOpen is a failure opening the sound file
	StageOpen
	// StageDevice is a failure opening or starting the output device
	StageDevice
)

func (s Stage) String() string {
	switch s {
	case StageUsage:
		return "usage"
	case StageInit:
		return "init"
	case StageOpen:
		return "open"
	case StageDevice:
		return "device"
	default:
		return fmt.Sprintf("Stage(%d)", int(s))
	}
}

// Error is a terminal playback error
type Error struct {
	Stage Stage

	// Subject is the subsystem for StageInit and the path for StageOpen
	Subject string

	Err error
}

func (e *Error) Error() string {
	switch e.Stage {
	case StageUsage:
		return e.Err.Error()
	case StageInit:
		return fmt.Sprintf("cannot initialize %s: %v", e.Subject, e.Err)
	case StageOpen:
		return fmt.Sprintf("cannot open sound stream %s: %v", e.Subject, e.Err)
	case StageDevice:
		return fmt.Sprintf("cannot open audio device: %v", e.Err)
	default:
		return e.Err.Error()
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}
