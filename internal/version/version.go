// ABOUTME: Version information for amaranth
// ABOUTME: Shared by the usage text and the startup log line
package version

const (
	// Version is the release version
	Version = "0.1.0"

	// Product is the program name used in diagnostics
	Product = "amaranth"

	// Description is the one-line summary shown in the usage text
	Description = "command line music player"
)
