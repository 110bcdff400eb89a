// ABOUTME: Headless audio output that never touches hardware
// ABOUTME: Invokes the fill callback from its own goroutine, optionally at real-time pace
package output

import (
	"io"
	"log"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

// Headless output implementation. Paced devices call back once per buffer
// duration like a sound card would; unpaced ones call back as fast as the
// callback returns.
type Headless struct {
	paced bool
	sink  io.Writer

	spec      DeviceSpec
	opened    bool
	stop      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
	calls     atomic.Int64
}

// NewHeadless creates a headless output. Filled buffers are copied to sink
// when it is not nil.
func NewHeadless(paced bool, sink io.Writer) *Headless {
	return &Headless{
		paced: paced,
		sink:  sink,
		stop:  make(chan struct{}),
	}
}

// Init is a no-op
func (h *Headless) Init() error {
	return nil
}

// Open records the spec
func (h *Headless) Open(spec DeviceSpec) error {
	if err := spec.Validate(); err != nil {
		return err
	}
	h.spec = spec
	h.opened = true

	log.Printf("Audio output initialized: %dHz, %d channels, %d-sample buffer (headless)",
		spec.Format.SampleRate, spec.Format.Channels, spec.Samples)
	return nil
}

// Start launches the callback goroutine
func (h *Headless) Start() error {
	if !h.opened {
		return ErrNotOpen
	}
	h.wg.Add(1)
	go h.run()
	return nil
}

// Calls returns how many times the callback has been invoked
func (h *Headless) Calls() int64 {
	return h.calls.Load()
}

func (h *Headless) run() {
	defer h.wg.Done()

	buf := make([]byte, h.spec.BufferBytes())

	var tick <-chan time.Time
	if h.paced {
		ticker := time.NewTicker(h.spec.BufferDuration())
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		if tick != nil {
			select {
			case <-h.stop:
				return
			case <-tick:
			}
		} else {
			select {
			case <-h.stop:
				return
			default:
				runtime.Gosched()
			}
		}

		h.spec.Callback(buf)
		h.calls.Add(1)
		if h.sink != nil {
			if _, err := h.sink.Write(buf); err != nil {
				log.Printf("Warning: headless sink write error: %v", err)
			}
		}
	}
}

// Close stops the callback goroutine and waits for it to exit
func (h *Headless) Close() error {
	h.closeOnce.Do(func() {
		close(h.stop)
	})
	h.wg.Wait()
	return nil
}
