// ABOUTME: Command line configuration for amaranth
// ABOUTME: Parses flags once into an immutable Config
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"math/bits"
	"strings"

	"github.com/amaranth-player/amaranth/internal/version"
	"github.com/amaranth-player/amaranth/pkg/audio"
)

const (
	DefaultSampleRate = 44100
	DefaultChannels   = 2
	DefaultSamples    = 1024

	// DefaultDecodeBuffer is the initial decode buffer hint in bytes
	DefaultDecodeBuffer = 4096

	maxSampleRate = 384000
	maxChannels   = 8
)

var (
	// ErrUsage is returned when the command line cannot be used
	ErrUsage = errors.New("usage")

	// ErrMissingFile is returned when no FILE argument is given. It wraps ErrUsage.
	ErrMissingFile = fmt.Errorf("%w: missing FILE argument", ErrUsage)
)

// Config holds player configuration
type Config struct {
	// Path is the sound file to play
	Path string

	// Format is the PCM format negotiated with the decoder and the device
	Format audio.Format

	// DecodeBuffer is the initial decode buffer size in bytes
	DecodeBuffer int

	// Samples is the device buffer size in sample frames
	Samples int

	// LogFile receives log output; empty discards it
	LogFile string
}

// Default returns the configuration used when no options are given
func Default() Config {
	return Config{
		Format: audio.Format{
			SampleRate: DefaultSampleRate,
			Channels:   DefaultChannels,
			Encoding:   audio.S16LSB,
		},
		DecodeBuffer: DefaultDecodeBuffer,
		Samples:      DefaultSamples,
	}
}

// Parse builds a Config from command line arguments (without the program name)
func Parse(args []string) (Config, error) {
	cfg := Default()

	fs := flag.NewFlagSet(version.Product, flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	rate := fs.Int("r", cfg.Format.SampleRate, "sample rate in Hz")
	format := fs.String("f", cfg.Format.Encoding.String(), "sample format")
	channels := fs.Int("c", cfg.Format.Channels, "channel count")
	samples := fs.Int("s", cfg.Samples, "device buffer size in samples")
	logFile := fs.String("log-file", "", "log file path")

	if err := fs.Parse(args); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrUsage, err)
	}

	if fs.NArg() < 1 {
		return Config{}, ErrMissingFile
	}
	if fs.NArg() > 1 {
		return Config{}, fmt.Errorf("%w: unexpected argument %q", ErrUsage, fs.Arg(1))
	}

	if *rate < 1 || *rate > maxSampleRate {
		return Config{}, fmt.Errorf("%w: -r %d out of range (1-%d)", ErrUsage, *rate, maxSampleRate)
	}
	if *channels < 1 || *channels > maxChannels {
		return Config{}, fmt.Errorf("%w: -c %d out of range (1-%d)", ErrUsage, *channels, maxChannels)
	}
	if *samples < 1 || bits.OnesCount(uint(*samples)) != 1 {
		return Config{}, fmt.Errorf("%w: -s %d is not a power of two", ErrUsage, *samples)
	}
	encoding, err := audio.ParseEncoding(*format)
	if err != nil {
		return Config{}, fmt.Errorf("%w: -f: %v", ErrUsage, err)
	}

	cfg.Path = fs.Arg(0)
	cfg.Format = audio.Format{
		SampleRate: *rate,
		Channels:   *channels,
		Encoding:   encoding,
	}
	cfg.Samples = *samples
	cfg.LogFile = *logFile

	return cfg, nil
}

// Usage returns the help text
func Usage() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Usage: %s [OPTIONS] FILE\n", version.Product)
	fmt.Fprintf(&b, "%s %s - %s\n\n", version.Product, version.Version, version.Description)
	b.WriteString("Options:\n")
	fmt.Fprintf(&b, "  -r RATE     sample rate in Hz (default %d)\n", DefaultSampleRate)
	b.WriteString("  -f FMT      sample format; only S16LSB is supported (default S16LSB)\n")
	fmt.Fprintf(&b, "  -c COUNT    channel count (default %d)\n", DefaultChannels)
	fmt.Fprintf(&b, "  -s SIZE     device buffer size in samples (default %d)\n", DefaultSamples)
	b.WriteString("  -log-file PATH  write log output to PATH\n")
	return b.String()
}
