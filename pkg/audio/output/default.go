// ABOUTME: Build-tag driven choice of the default output backend
// ABOUTME: headless > portaudio > malgo > oto
package output

// NewDefault returns the output backend selected at build time
func NewDefault() Device {
	switch {
	case headlessEnabled:
		return NewHeadless(true, nil)
	case portAudioEnabled:
		return NewPortAudio()
	case malgoEnabled:
		return NewMalgo()
	default:
		return NewOto()
	}
}
