// Package sim implements an in-memory camera: streams with optional zoom
// ranges, a recorder that emits synthetic chunks and a sink that renders a
// flat test frame. Failures can be injected per operation.
package sim

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"sync"
	"time"

	"github.com/smazurov/shutterdeck/internal/device"
	"github.com/smazurov/shutterdeck/internal/zoom"
)

// Stream is a simulated camera stream.
type Stream struct {
	id     string
	facing device.Facing
	mu     sync.Mutex
	stops  int
}

// ID implements device.Stream.
func (s *Stream) ID() string { return s.id }

// Facing implements device.Stream.
func (s *Stream) Facing() device.Facing { return s.facing }

// Stop implements device.Stream.
func (s *Stream) Stop() {
	s.mu.Lock()
	s.stops++
	s.mu.Unlock()
}

// Stopped reports whether Stop was called at least once.
func (s *Stream) Stopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stops > 0
}

// AcquireHook runs before each acquisition. A non-nil error fails it.
type AcquireHook func(ctx context.Context, facing device.Facing) error

// Device is a simulated camera pair.
type Device struct {
	mu         sync.Mutex
	ranges     map[device.Facing]*zoom.Range
	acquireErr map[device.Facing]error
	zoomErr    error
	hook       AcquireHook
	streams    []*Stream
	applied    []float64
	seq        int
}

// New creates a device whose back camera zooms 1x to 5x and whose front
// camera has no zoom.
func New() *Device {
	return &Device{
		ranges: map[device.Facing]*zoom.Range{
			device.FacingEnvironment: {Min: 1, Max: 5, Step: 0.1},
		},
		acquireErr: make(map[device.Facing]error),
	}
}

// SetZoomRange sets or removes (nil) the zoom range of a camera.
func (d *Device) SetZoomRange(facing device.Facing, r *zoom.Range) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if r == nil {
		delete(d.ranges, facing)
		return
	}
	cp := *r
	d.ranges[facing] = &cp
}

// FailAcquire makes acquisitions of facing fail with err until reset with nil.
func (d *Device) FailAcquire(facing device.Facing, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.acquireErr[facing] = err
}

// FailZoom makes ApplyZoom fail with err until reset with nil.
func (d *Device) FailZoom(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.zoomErr = err
}

// SetAcquireHook installs a hook run before every acquisition.
func (d *Device) SetAcquireHook(h AcquireHook) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.hook = h
}

// Streams returns every stream handed out so far.
func (d *Device) Streams() []*Stream {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*Stream(nil), d.streams...)
}

// AppliedZoom returns the zoom values accepted by ApplyZoom.
func (d *Device) AppliedZoom() []float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]float64(nil), d.applied...)
}

// AcquireStream implements device.Device.
func (d *Device) AcquireStream(ctx context.Context, facing device.Facing) (device.Stream, error) {
	d.mu.Lock()
	hook := d.hook
	d.mu.Unlock()

	if hook != nil {
		if err := hook(ctx, facing); err != nil {
			return nil, err
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, device.Failure("acquire", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.acquireErr[facing]; err != nil {
		return nil, err
	}

	d.seq++
	s := &Stream{id: fmt.Sprintf("sim-%s-%d", facing, d.seq), facing: facing}
	d.streams = append(d.streams, s)
	return s, nil
}

// ZoomRange implements device.Device.
func (d *Device) ZoomRange(stream device.Stream) (zoom.Range, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	r, ok := d.ranges[stream.Facing()]
	if !ok {
		return zoom.Range{}, false
	}
	return *r, true
}

// ApplyZoom implements device.Device.
func (d *Device) ApplyZoom(_ context.Context, _ device.Stream, value float64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.zoomErr != nil {
		return device.ConstraintFailure("zoom", d.zoomErr)
	}
	d.applied = append(d.applied, value)
	return nil
}

// Recorder emits synthetic chunks while recording.
//
// With a positive interval it emits a chunk on every interval; Emit injects
// chunks by hand regardless.
type Recorder struct {
	interval time.Duration
	startErr error

	// cbMu serializes chunk callbacks; Stop takes it to wait out Emit.
	cbMu    sync.Mutex
	mu      sync.Mutex
	onChunk device.ChunkFunc
	stop    chan struct{}
	done    chan struct{}
	seq     int
}

// NewRecorder creates a recorder. A zero interval disables automatic chunks.
func NewRecorder(interval time.Duration) *Recorder {
	return &Recorder{interval: interval}
}

// FailStart makes Start fail with err until reset with nil.
func (r *Recorder) FailStart(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.startErr = err
}

// MIMEType implements device.Recorder.
func (r *Recorder) MIMEType() string {
	return "video/webm"
}

// Start implements device.Recorder.
func (r *Recorder) Start(_ device.Stream, onChunk device.ChunkFunc) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.startErr != nil {
		return r.startErr
	}
	if r.onChunk != nil {
		return errors.New("recorder already running")
	}

	r.onChunk = onChunk
	r.stop = make(chan struct{})
	r.done = make(chan struct{})
	go r.run(r.stop, r.done)
	return nil
}

// Emit delivers a chunk to the active recording. It reports false when idle.
func (r *Recorder) Emit(chunk []byte) bool {
	r.cbMu.Lock()
	defer r.cbMu.Unlock()
	return r.deliver(chunk)
}

func (r *Recorder) deliver(chunk []byte) bool {
	r.mu.Lock()
	fn := r.onChunk
	r.mu.Unlock()
	if fn == nil {
		return false
	}
	fn(chunk)
	return true
}

// Recording reports whether a recording is active.
func (r *Recorder) Recording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.onChunk != nil
}

// Stop implements device.Recorder.
func (r *Recorder) Stop(ctx context.Context) error {
	r.mu.Lock()
	if r.onChunk == nil || r.stop == nil {
		r.mu.Unlock()
		return errors.New("recorder not running")
	}
	close(r.stop)
	r.stop = nil
	done := r.done
	r.mu.Unlock()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	r.cbMu.Lock()
	r.mu.Lock()
	r.onChunk = nil
	r.mu.Unlock()
	r.cbMu.Unlock()
	return nil
}

func (r *Recorder) run(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	if r.interval <= 0 {
		<-stop
		return
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			r.cbMu.Lock()
			r.seq++
			r.deliver([]byte(fmt.Sprintf("chunk-%d;", r.seq)))
			r.cbMu.Unlock()
		}
	}
}

// Sink renders a flat grey frame, tinted per facing.
type Sink struct {
	mu  sync.Mutex
	err error
}

// NewSink creates a sink.
func NewSink() *Sink {
	return &Sink{}
}

// FailRender makes RenderFrame fail with err until reset with nil.
func (s *Sink) FailRender(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// RenderFrame implements device.CaptureSink.
func (s *Sink) RenderFrame(_ context.Context, stream device.Stream) (device.Artifact, error) {
	s.mu.Lock()
	err := s.err
	s.mu.Unlock()
	if err != nil {
		return device.Artifact{}, err
	}

	shade := uint8(96)
	if stream.Facing() == device.FacingUser {
		shade = 160
	}
	img := image.NewGray(image.Rect(0, 0, 64, 48))
	for i := range img.Pix {
		img.Pix[i] = shade
	}
	img.SetGray(0, 0, color.Gray{Y: 255})

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 80}); err != nil {
		return device.Artifact{}, fmt.Errorf("encode frame: %w", err)
	}

	return device.Artifact{
		Kind:      device.KindPhoto,
		MIMEType:  "image/jpeg",
		Data:      buf.Bytes(),
		CreatedAt: time.Now(),
	}, nil
}
