//go:build !headless

// ABOUTME: Headless selection flag for normal builds
// ABOUTME: NewDefault prefers real hardware outputs
package output

const headlessEnabled = false
