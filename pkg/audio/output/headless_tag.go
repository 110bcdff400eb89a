//go:build headless

// ABOUTME: Headless selection flag for -tags headless builds
// ABOUTME: NewDefault returns a paced headless device instead of real hardware
package output

const headlessEnabled = true
