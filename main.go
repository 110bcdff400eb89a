// ABOUTME: Entry point for the amaranth player
// ABOUTME: Parses arguments, plays one file and maps the outcome to an exit code
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/amaranth-player/amaranth/internal/app"
	"github.com/amaranth-player/amaranth/internal/config"
	"github.com/amaranth-player/amaranth/internal/version"
	"github.com/amaranth-player/amaranth/pkg/audio/decode"
	"github.com/amaranth-player/amaranth/pkg/audio/output"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stderr, output.NewDefault))
}

func run(args []string, stderr io.Writer, newDevice func() output.Device) int {
	cfg, err := config.Parse(args)
	if err != nil {
		if !errors.Is(err, flag.ErrHelp) && !errors.Is(err, config.ErrMissingFile) {
			fmt.Fprintf(stderr, "%s: %v\n", version.Product, &app.Error{Stage: app.StageUsage, Err: err})
		}
		fmt.Fprint(stderr, config.Usage())
		return 1
	}

	// Playback is silent unless a log file is requested
	log.SetOutput(io.Discard)
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
		if err != nil {
			fmt.Fprintf(stderr, "%s: error opening log file: %v\n", version.Product, err)
			return 1
		}
		defer func() { _ = f.Close() }()
		log.SetOutput(f)
	}

	log.Printf("Starting %s %s: %s", version.Product, version.Version, cfg.Path)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	player := app.New(cfg, decode.NewEngine(), newDevice())
	if err := player.Play(ctx); err != nil {
		log.Printf("Playback failed: %v", err)
		fmt.Fprintf(stderr, "%s: %v\n", version.Product, err)
		return 1
	}

	return 0
}
