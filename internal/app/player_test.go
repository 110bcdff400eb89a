// ABOUTME: Tests for the playback driver
// ABOUTME: Drives the fill callback by hand and plays real files through the headless device
package app

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/amaranth-player/amaranth/internal/config"
	"github.com/amaranth-player/amaranth/pkg/audio"
	"github.com/amaranth-player/amaranth/pkg/audio/decode"
	"github.com/amaranth-player/amaranth/pkg/audio/output"
	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// fakeStream serves data in Decode-sized pieces
type fakeStream struct {
	data    []byte
	short   int // when > 0, caps every decode
	buf     []byte
	err     error
	decodes int
	closes  int
}

func (s *fakeStream) Decode(length int) int {
	s.decodes++
	n := min(length, len(s.data))
	if s.short > 0 {
		n = min(n, s.short)
	}
	s.buf = append(s.buf[:0], s.data[:n]...)
	s.data = s.data[n:]
	return n
}

func (s *fakeStream) Buffer() []byte      { return s.buf }
func (s *fakeStream) Format() audio.Format { return config.Default().Format }
func (s *fakeStream) Err() error           { return s.err }
func (s *fakeStream) Close() error {
	s.closes++
	return nil
}

type fakeEngine struct {
	initErr error
	openErr error
	stream  *fakeStream
	opened  []string
	quits   int
}

func (e *fakeEngine) Init() error { return e.initErr }
func (e *fakeEngine) Open(path string, _ audio.Format, _ int) (decode.Stream, error) {
	e.opened = append(e.opened, path)
	if e.openErr != nil {
		return nil, e.openErr
	}
	return e.stream, nil
}
func (e *fakeEngine) Quit() { e.quits++ }

// fakeDevice never calls back on its own; tests invoke spec.Callback
type fakeDevice struct {
	initErr  error
	openErr  error
	startErr error
	spec     output.DeviceSpec
	events   []string
}

func (d *fakeDevice) Init() error {
	d.events = append(d.events, "init")
	return d.initErr
}

func (d *fakeDevice) Open(spec output.DeviceSpec) error {
	d.events = append(d.events, "open")
	d.spec = spec
	return d.openErr
}

func (d *fakeDevice) Start() error {
	d.events = append(d.events, "start")
	return d.startErr
}

func (d *fakeDevice) Close() error {
	d.events = append(d.events, "close")
	return nil
}

func pattern(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i%251 + 1)
	}
	return b
}

func testConfig(path string) config.Config {
	cfg := config.Default()
	cfg.Path = path
	return cfg
}

func startPlayer(t *testing.T, p *Player) {
	t.Helper()
	for _, step := range []func() error{
		p.Initialize,
		func() error { return p.OpenStream(p.config.Path) },
		p.OpenDevice,
		p.Start,
	} {
		if err := step(); err != nil {
			t.Fatalf("setup failed: %v", err)
		}
	}
}

func TestStateTransitions(t *testing.T) {
	stream := &fakeStream{data: pattern(100)}
	p := New(testConfig("song.wav"), &fakeEngine{stream: stream}, &fakeDevice{})

	want := []State{SubsystemsReady, StreamOpen, DeviceOpen, Playing}
	steps := []func() error{
		p.Initialize,
		func() error { return p.OpenStream("song.wav") },
		p.OpenDevice,
		p.Start,
	}
	if p.State() != Uninitialized {
		t.Fatalf("expected uninitialized, got %s", p.State())
	}
	for i, step := range steps {
		if err := step(); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if p.State() != want[i] {
			t.Errorf("step %d: expected %s, got %s", i, want[i], p.State())
		}
	}

	// Steps cannot be repeated
	if err := p.Initialize(); err == nil {
		t.Error("expected error initializing a playing player")
	}

	p.Close()
	if p.State() != Terminated {
		t.Errorf("expected terminated, got %s", p.State())
	}
}

func TestFillCopiesDecodedBytes(t *testing.T) {
	data := pattern(8192)
	stream := &fakeStream{data: bytes.Clone(data)}
	dev := &fakeDevice{}
	p := New(testConfig("song.wav"), &fakeEngine{stream: stream}, dev)
	startPlayer(t, p)
	defer p.Close()

	out := make([]byte, 4096)
	dev.spec.Callback(out)
	if !bytes.Equal(out, data[:4096]) {
		t.Error("first buffer does not match decoded bytes")
	}
	dev.spec.Callback(out)
	if !bytes.Equal(out, data[4096:]) {
		t.Error("second buffer does not match decoded bytes")
	}

	s := p.Stats()
	if s.Decodes != 2 || s.Callbacks != 2 || s.Bytes != 8192 {
		t.Errorf("unexpected stats %+v", s)
	}
}

func TestFillZeroPadsShortDecode(t *testing.T) {
	stream := &fakeStream{data: pattern(10)}
	dev := &fakeDevice{}
	p := New(testConfig("song.wav"), &fakeEngine{stream: stream}, dev)
	startPlayer(t, p)
	defer p.Close()

	out := bytes.Repeat([]byte{0xAA}, 64)
	dev.spec.Callback(out)

	if !bytes.Equal(out[:10], pattern(10)) {
		t.Error("decoded prefix not copied")
	}
	for i, b := range out[10:] {
		if b != 0 {
			t.Fatalf("byte %d: expected silence, got %#x", 10+i, b)
		}
	}
}

func TestFillStopsDecodingAfterEnd(t *testing.T) {
	stream := &fakeStream{data: pattern(100)}
	dev := &fakeDevice{}
	p := New(testConfig("song.wav"), &fakeEngine{stream: stream}, dev)
	startPlayer(t, p)
	defer p.Close()

	out := make([]byte, 64)
	dev.spec.Callback(out) // 64 bytes
	dev.spec.Callback(out) // 36 bytes
	select {
	case <-p.Done():
		t.Fatal("done before the decoder ran dry")
	default:
	}

	dev.spec.Callback(out) // 0 bytes, end of stream
	select {
	case <-p.Done():
	default:
		t.Fatal("expected done after an empty decode")
	}

	out = bytes.Repeat([]byte{0xAA}, 64)
	for range 5 {
		dev.spec.Callback(out)
	}
	if stream.decodes != 3 {
		t.Errorf("expected 3 decodes, got %d", stream.decodes)
	}
	if !bytes.Equal(out, make([]byte, 64)) {
		t.Error("expected silence after end of stream")
	}
	if s := p.Stats(); s.Callbacks != 8 || s.Decodes != 3 || s.Bytes != 100 {
		t.Errorf("unexpected stats %+v", s)
	}
}

func TestRunShutsDownInOrder(t *testing.T) {
	stream := &fakeStream{}
	engine := &fakeEngine{stream: stream}
	dev := &fakeDevice{}
	p := New(testConfig("song.wav"), engine, dev)
	startPlayer(t, p)

	dev.spec.Callback(make([]byte, 64))

	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if got := strings.Join(dev.events, ","); got != "init,open,start,close" {
		t.Errorf("unexpected device events %s", got)
	}
	if stream.closes != 1 {
		t.Errorf("expected stream closed once, got %d", stream.closes)
	}
	if engine.quits != 1 {
		t.Errorf("expected engine quit once, got %d", engine.quits)
	}
	if p.State() != Terminated {
		t.Errorf("expected terminated, got %s", p.State())
	}

	// Close after Run is a no-op
	p.Close()
	if stream.closes != 1 || engine.quits != 1 {
		t.Error("second Close released resources again")
	}
}

// queueingDevice holds audio beyond the callback buffer, like oto's player
type queueingDevice struct {
	fakeDevice
	buffered     int
	pendingCalls int
	closedAt     time.Time
}

func (d *queueingDevice) Pending() time.Duration {
	d.pendingCalls++
	return d.spec.Format.Duration(d.buffered)
}

func (d *queueingDevice) Close() error {
	d.closedAt = time.Now()
	return d.fakeDevice.Close()
}

func TestRunWaitsForQueuedAudio(t *testing.T) {
	// 200ms of CD audio still queued when the decoder runs dry
	dev := &queueingDevice{buffered: 35280}
	p := New(testConfig("song.wav"), &fakeEngine{stream: &fakeStream{}}, dev)
	startPlayer(t, p)

	dev.spec.Callback(make([]byte, 64))
	ended := time.Now()

	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if dev.pendingCalls != 1 {
		t.Errorf("expected Pending consulted once, got %d", dev.pendingCalls)
	}
	if waited := dev.closedAt.Sub(ended); waited < 200*time.Millisecond {
		t.Errorf("device closed %v after end of stream, before its queue drained", waited)
	}
}

// primingDevice fills its buffer from Start before any device goroutine runs
type primingDevice struct {
	fakeDevice
	primed []byte
}

// Start reads two periods, as oto does until its buffer is full
func (d *primingDevice) Start() error {
	d.primed = make([]byte, 256)
	d.spec.Callback(d.primed[:128])
	d.spec.Callback(d.primed[128:])
	return d.fakeDevice.Start()
}

func TestStartPrimesFromCallback(t *testing.T) {
	stream := &fakeStream{data: pattern(100)}
	dev := &primingDevice{}
	p := New(testConfig("song.wav"), &fakeEngine{stream: stream}, dev)
	startPlayer(t, p)

	if !bytes.Equal(dev.primed[:100], pattern(100)) {
		t.Error("primed buffer does not hold the decoded bytes")
	}
	if !bytes.Equal(dev.primed[100:], make([]byte, 156)) {
		t.Error("primed buffer not zero padded after end of stream")
	}
	if got := p.Stats().Callbacks; got != 2 {
		t.Errorf("expected 2 callbacks from Start, got %d", got)
	}

	// End of stream was reached inside Start; Run must still return
	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if got := p.Stats().Bytes; got != 100 {
		t.Errorf("expected 100 bytes played, got %d", got)
	}
	if p.State() != Terminated {
		t.Errorf("expected terminated, got %s", p.State())
	}
}

func TestRunInterrupted(t *testing.T) {
	stream := &fakeStream{data: pattern(1 << 20)}
	engine := &fakeEngine{stream: stream}
	p := New(testConfig("song.wav"), engine, &fakeDevice{})
	startPlayer(t, p)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := p.Run(ctx); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if p.State() != Terminated {
		t.Errorf("expected terminated, got %s", p.State())
	}
	if stream.closes != 1 || engine.quits != 1 {
		t.Error("resources not released on interrupt")
	}
}

func TestRunBeforeStart(t *testing.T) {
	p := New(testConfig("song.wav"), &fakeEngine{}, &fakeDevice{})
	if err := p.Run(context.Background()); err == nil {
		t.Error("expected error running an unstarted player")
	}
}

func TestDeviceSpecFromConfig(t *testing.T) {
	cfg, err := config.Parse([]string{"-r", "8000", "-c", "1", "-s", "512", "song.wav"})
	if err != nil {
		t.Fatal(err)
	}

	dev := &fakeDevice{}
	p := New(cfg, &fakeEngine{stream: &fakeStream{}}, dev)
	startPlayer(t, p)
	defer p.Close()

	if dev.spec.Format.SampleRate != 8000 {
		t.Errorf("expected 8000Hz device, got %d", dev.spec.Format.SampleRate)
	}
	if dev.spec.Format.Channels != 1 {
		t.Errorf("expected 1 channel, got %d", dev.spec.Format.Channels)
	}
	if dev.spec.Samples != 512 {
		t.Errorf("expected 512 samples, got %d", dev.spec.Samples)
	}
	if p.Spec().BufferBytes() != 1024 {
		t.Errorf("expected 1024-byte buffers, got %d", p.Spec().BufferBytes())
	}
}

func TestSetupFailures(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name    string
		engine  *fakeEngine
		device  *fakeDevice
		stage   Stage
		message string
		events  string
		closes  int
	}{
		{
			name:    "audio init",
			engine:  &fakeEngine{stream: &fakeStream{}},
			device:  &fakeDevice{initErr: boom},
			stage:   StageInit,
			message: "cannot initialize audio output: boom",
			events:  "init",
		},
		{
			name:    "decoder init",
			engine:  &fakeEngine{initErr: boom},
			device:  &fakeDevice{},
			stage:   StageInit,
			message: "cannot initialize decoder: boom",
			events:  "init,close",
		},
		{
			name:    "open stream",
			engine:  &fakeEngine{openErr: boom},
			device:  &fakeDevice{},
			stage:   StageOpen,
			message: "cannot open sound stream song.wav: boom",
			events:  "init,close",
		},
		{
			name:    "open device",
			engine:  &fakeEngine{stream: &fakeStream{}},
			device:  &fakeDevice{openErr: boom},
			stage:   StageDevice,
			message: "cannot open audio device: boom",
			events:  "init,open,close",
			closes:  1,
		},
		{
			name:    "start device",
			engine:  &fakeEngine{stream: &fakeStream{}},
			device:  &fakeDevice{startErr: boom},
			stage:   StageDevice,
			message: "cannot open audio device: start: boom",
			events:  "init,open,start,close",
			closes:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(testConfig("song.wav"), tt.engine, tt.device)
			err := p.Play(context.Background())

			var perr *Error
			if !errors.As(err, &perr) {
				t.Fatalf("expected *Error, got %v", err)
			}
			if perr.Stage != tt.stage {
				t.Errorf("expected stage %s, got %s", tt.stage, perr.Stage)
			}
			if err.Error() != tt.message {
				t.Errorf("expected %q, got %q", tt.message, err.Error())
			}
			if !errors.Is(err, boom) {
				t.Error("expected the cause to unwrap")
			}
			if got := strings.Join(tt.device.events, ","); got != tt.events {
				t.Errorf("expected device events %s, got %s", tt.events, got)
			}
			if tt.engine.stream != nil && tt.engine.stream.closes != tt.closes {
				t.Errorf("expected %d stream closes, got %d", tt.closes, tt.engine.stream.closes)
			}
			if p.State() != Terminated {
				t.Errorf("expected terminated, got %s", p.State())
			}
		})
	}
}

func TestErrorMissingFileUnwraps(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.wav")
	p := New(testConfig(path), decode.NewEngine(), output.NewHeadless(false, nil))

	err := p.Play(context.Background())
	if err == nil {
		t.Fatal("expected an error for a missing file")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected os.ErrNotExist, got %v", err)
	}
	if !strings.Contains(err.Error(), path) {
		t.Errorf("expected path in %q", err.Error())
	}
}

// prefixSink keeps the first limit bytes written to it
type prefixSink struct {
	mu    sync.Mutex
	limit int
	buf   []byte
}

func (s *prefixSink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if room := s.limit - len(s.buf); room > 0 {
		s.buf = append(s.buf, p[:min(room, len(p))]...)
	}
	return len(p), nil
}

func (s *prefixSink) Bytes() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return bytes.Clone(s.buf)
}

func playFile(t *testing.T, path string, sink *prefixSink) *Player {
	t.Helper()
	p := New(testConfig(path), decode.NewEngine(), output.NewHeadless(false, sink))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := p.Play(ctx); err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	if ctx.Err() != nil {
		t.Fatal("playback did not finish before the timeout")
	}
	return p
}

func TestPlayOneSecondOfRawPCM(t *testing.T) {
	// One second of 44100Hz 16-bit stereo
	payload := pattern(176400)
	path := filepath.Join(t.TempDir(), "tone.pcm")
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		t.Fatal(err)
	}

	sink := &prefixSink{limit: 45 * 4096}
	p := playFile(t, path, sink)

	s := p.Stats()
	if s.Bytes != 176400 {
		t.Errorf("expected 176400 bytes played, got %d", s.Bytes)
	}
	// 44 buffers of audio, the last one partial, then one empty decode
	if s.Decodes != 45 {
		t.Errorf("expected 45 decodes, got %d", s.Decodes)
	}
	if s.Callbacks < s.Decodes {
		t.Errorf("callbacks %d fewer than decodes %d", s.Callbacks, s.Decodes)
	}

	got := sink.Bytes()
	if len(got) < 44*4096 {
		t.Fatalf("sink captured only %d bytes", len(got))
	}
	if !bytes.Equal(got[:176400], payload) {
		t.Error("device output does not match the file")
	}
	for i, b := range got[176400:] {
		if b != 0 {
			t.Fatalf("byte %d after the end of stream is %#x, expected silence", 176400+i, b)
		}
	}
	if p.State() != Terminated {
		t.Errorf("expected terminated, got %s", p.State())
	}
}

func TestPlayWAV(t *testing.T) {
	const frames = 4410
	data := make([]int, frames*2)
	for i := range data {
		data[i] = (i*97)%20000 - 10000
	}

	path := filepath.Join(t.TempDir(), "tone.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	enc := wav.NewEncoder(f, 44100, 16, 2, 1)
	if err := enc.Write(&goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 2, SampleRate: 44100},
		Data:           data,
		SourceBitDepth: 16,
	}); err != nil {
		t.Fatal(err)
	}
	if err := enc.Close(); err != nil {
		t.Fatal(err)
	}
	f.Close()

	want := make([]byte, 0, len(data)*2)
	for _, v := range data {
		want = binary.LittleEndian.AppendUint16(want, uint16(int16(v)))
	}

	sink := &prefixSink{limit: len(want) + 4096}
	p := playFile(t, path, sink)

	if s := p.Stats(); s.Bytes != int64(len(want)) {
		t.Errorf("expected %d bytes played, got %d", len(want), s.Bytes)
	}
	if got := sink.Bytes(); !bytes.Equal(got[:len(want)], want) {
		t.Error("device output does not match the WAV samples")
	}
}
