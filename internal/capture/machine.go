// Package capture implements the interaction state machine of the camera
// surface: shutter semantics, recording, the overlay countdown, camera
// switching and pinch zoom.
//
// All state belongs to a single event loop goroutine started by Run. Public
// methods post closures onto the loop and wait for them. Device calls run on
// their own goroutines and post their results back tagged with the camera
// generation or recording they belong to, so results of superseded requests
// are recognised and discarded.
package capture

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/smazurov/shutterdeck/internal/countdown"
	"github.com/smazurov/shutterdeck/internal/device"
	"github.com/smazurov/shutterdeck/internal/events"
	"github.com/smazurov/shutterdeck/internal/gesture"
	"github.com/smazurov/shutterdeck/internal/logging"
	"github.com/smazurov/shutterdeck/internal/zoom"
)

const (
	inboxSize           = 64
	recorderStopTimeout = 5 * time.Second
)

// Options configures a Machine. Device, Recorder and Sink are required.
type Options struct {
	Device   device.Device
	Recorder device.Recorder
	Sink     device.CaptureSink

	// Bus receives machine events. Optional.
	Bus *events.Bus
	// Clock drives the countdown and event timestamps. Defaults to the wall clock.
	Clock clock.Clock

	TickInterval   time.Duration
	SwipeThreshold float64
	Facing         device.Facing
	Mode           Mode

	Logger logging.Logger
}

// Machine is the capture state machine.
type Machine struct {
	dev    device.Device
	rec    device.Recorder
	sink   device.CaptureSink
	bus    *events.Bus
	clock  clock.Clock
	logger logging.Logger

	inbox   chan func()
	done    chan struct{}
	started atomic.Bool
	wg      sync.WaitGroup

	// Owned by the loop goroutine.
	ctx       context.Context
	tracker   *gesture.Tracker
	zoom      *zoom.Controller
	countdown *countdown.Timer
	progress  *float64

	facing    device.Facing
	mode      Mode
	stream    device.Stream
	gen       uint64
	acquiring bool
	camErr    *CameraError

	zoomBusy    bool
	zoomPending *zoom.Request

	recording  bool
	finalizing bool
	recGen     uint64
	chunks     [][]byte

	overlay *Overlay
	playing bool
	last    *device.Artifact
	stopped bool
}

// NewMachine creates a stopped machine.
func NewMachine(opts Options) (*Machine, error) {
	if opts.Device == nil || opts.Recorder == nil || opts.Sink == nil {
		return nil, errors.New("capture: device, recorder and sink are required")
	}
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	if opts.Logger == nil {
		opts.Logger = logging.GetLogger("capture")
	}
	if opts.Facing == "" {
		opts.Facing = device.FacingEnvironment
	}
	if opts.Mode == "" {
		opts.Mode = ModePhoto
	}

	m := &Machine{
		dev:     opts.Device,
		rec:     opts.Recorder,
		sink:    opts.Sink,
		bus:     opts.Bus,
		clock:   opts.Clock,
		logger:  opts.Logger,
		inbox:   make(chan func(), inboxSize),
		done:    make(chan struct{}),
		ctx:     context.Background(),
		tracker: gesture.NewTracker(opts.SwipeThreshold),
		zoom:    zoom.NewController(logging.GetLogger("zoom")),
		facing:  opts.Facing,
		mode:    opts.Mode,
	}

	m.countdown = countdown.New(countdown.Handlers{
		OnProgress: m.countdownProgress,
		OnComplete: m.countdownComplete,
		OnCleared:  m.countdownCleared,
	},
		countdown.WithClock(opts.Clock),
		countdown.WithInterval(opts.TickInterval),
		countdown.WithDispatcher(m.dispatch),
	)

	return m, nil
}

// Run acquires the initial camera and processes intents until ctx is done.
// On exit it stops recording, cancels the countdown, releases the stream and
// the overlay handle, and waits for in-flight device calls.
func (m *Machine) Run(ctx context.Context) error {
	if !m.started.CompareAndSwap(false, true) {
		return errors.New("capture: machine already started")
	}

	m.ctx = ctx
	m.logger.Info("Capture machine started", "facing", m.facing, "mode", m.mode)
	m.acquire()

	for {
		select {
		case fn := <-m.inbox:
			fn()
		case <-ctx.Done():
			close(m.done)
			m.teardown()
			m.wg.Wait()
			m.drain()
			m.logger.Info("Capture machine stopped")
			return nil
		}
	}
}

// Done is closed once the machine stopped accepting intents.
func (m *Machine) Done() <-chan struct{} {
	return m.done
}

// dispatch queues fn on the loop. It blocks while the inbox is full and
// reports false once the machine stopped.
func (m *Machine) dispatch(fn func()) bool {
	select {
	case m.inbox <- fn:
		return true
	case <-m.done:
		return false
	}
}

// call runs fn on the loop and waits for it. Once queued, fn is either run
// or the machine stopped.
func (m *Machine) call(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	wrapped := func() {
		if m.stopped {
			return
		}
		fn()
		close(finished)
	}

	select {
	case m.inbox <- wrapped:
	case <-m.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-finished:
		return nil
	case <-m.done:
		select {
		case <-finished:
			return nil
		default:
			return ErrClosed
		}
	}
}

// async runs fn on its own goroutine tracked by Run.
func (m *Machine) async(fn func()) {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		fn()
	}()
}

func (m *Machine) publish(ev events.Event) {
	if m.bus != nil {
		m.bus.Publish(ev)
	}
}

func (m *Machine) now() string {
	return m.clock.Now().UTC().Format(time.RFC3339)
}

func (m *Machine) teardown() {
	m.stopped = true
	m.countdown.Cancel()
	m.gen++

	m.recGen++
	if m.recording {
		m.recording = false
		ctx, cancel := context.WithTimeout(context.Background(), recorderStopTimeout)
		if err := m.rec.Stop(ctx); err != nil {
			m.logger.Warn("Failed to stop recorder on shutdown", "error", err)
		}
		cancel()
	}

	m.releaseStream()

	if m.overlay != nil {
		m.releaseOverlay(m.overlay)
		m.overlay = nil
	}
	m.playing = false
}

// drain runs results queued before shutdown. Generations were bumped by
// teardown, so acquisitions stop their streams and everything else is
// dropped; intents are skipped and their callers see ErrClosed.
func (m *Machine) drain() {
	for {
		select {
		case fn := <-m.inbox:
			fn()
		default:
			return
		}
	}
}

// Snapshot returns the current state.
func (m *Machine) Snapshot(ctx context.Context) (Snapshot, error) {
	var s Snapshot
	err := m.call(ctx, func() { s = m.snapshot() })
	return s, err
}

func (m *Machine) snapshot() Snapshot {
	s := Snapshot{
		State:          m.state(),
		Facing:         m.facing,
		Mode:           m.mode,
		Acquiring:      m.acquiring,
		Recording:      m.recording,
		Finalizing:     m.finalizing,
		Zoom:           m.zoom.Current(),
		OverlayPlaying: m.playing,
	}
	if m.stream != nil {
		s.StreamID = m.stream.ID()
	}
	if r, ok := m.zoom.Range(); ok {
		s.ZoomRange = &r
	}
	if m.progress != nil {
		p := *m.progress
		s.CountdownProgress = &p
	}
	if m.overlay != nil {
		s.Overlay = &OverlayInfo{Source: m.overlay.Source, DelaySeconds: m.overlay.DelaySeconds}
	}
	if m.last != nil {
		s.LastCapture = &CaptureInfo{
			Kind:      m.last.Kind,
			MIMEType:  m.last.MIMEType,
			Size:      len(m.last.Data),
			CreatedAt: m.last.CreatedAt,
		}
	}
	if m.camErr != nil {
		e := *m.camErr
		s.Error = &e
	}
	return s
}

func (m *Machine) state() State {
	switch {
	case m.countdown.Running():
		return StateCountdown
	case m.recording:
		return StateRecording
	case m.playing:
		return StateOverlayPlaying
	default:
		return StateIdle
	}
}

// LastCapture returns the most recent photo or video.
func (m *Machine) LastCapture(ctx context.Context) (device.Artifact, bool, error) {
	var (
		art device.Artifact
		ok  bool
	)
	err := m.call(ctx, func() {
		if m.last != nil {
			art, ok = *m.last, true
		}
	})
	return art, ok, err
}

// SetMode changes the capture mode. Leaving video mode stops an active
// recording, which is finalized as usual.
func (m *Machine) SetMode(ctx context.Context, mode Mode) error {
	if _, err := ParseMode(string(mode)); err != nil {
		return err
	}
	return m.call(ctx, func() {
		if mode == m.mode {
			return
		}
		if m.mode == ModeVideo && m.recording {
			m.stopRecording()
		}
		m.mode = mode
		m.logger.Debug("Mode changed", "mode", mode)
		m.publish(events.ModeChangedEvent{Mode: string(mode), Timestamp: m.now()})
	})
}
