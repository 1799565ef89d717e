// Package ffmpegdev is the V4L2 camera backend. Streams hold the video
// device open; stills and recordings run the ffmpeg binary against it.
package ffmpegdev

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"
	"sync/atomic"

	"github.com/smazurov/shutterdeck/internal/device"
	"github.com/smazurov/shutterdeck/internal/logging"
	"github.com/smazurov/shutterdeck/internal/zoom"
)

// Config selects the devices and ffmpeg binary.
type Config struct {
	FFmpegPath  string
	Devices     map[device.Facing]string
	InputFormat string
	Resolution  string
	FPS         string
	Encoder     string
}

func (c Config) ffmpeg() string {
	if c.FFmpegPath == "" {
		return "ffmpeg"
	}
	return c.FFmpegPath
}

// Stream is an acquired V4L2 device.
type Stream struct {
	id     string
	facing device.Facing
	input  Input

	once sync.Once
	file *os.File
}

// ID returns the stream id.
func (s *Stream) ID() string { return s.id }

// Facing returns the camera the stream belongs to.
func (s *Stream) Facing() device.Facing { return s.facing }

// Stop closes the device. Safe to call more than once.
func (s *Stream) Stop() {
	s.once.Do(func() {
		s.file.Close()
	})
}

// Device acquires V4L2 cameras. These cameras expose no zoom control, so
// only the neutral zoom is accepted.
type Device struct {
	cfg    Config
	logger logging.Logger
	seq    atomic.Uint64
}

// New creates a device backend.
func New(cfg Config, logger logging.Logger) *Device {
	if logger == nil {
		logger = logging.GetLogger("device")
	}
	return &Device{cfg: cfg, logger: logger}
}

// AcquireStream opens the device node configured for facing.
func (d *Device) AcquireStream(ctx context.Context, facing device.Facing) (device.Stream, error) {
	const op = "acquire stream"
	if err := ctx.Err(); err != nil {
		return nil, device.Failure(op, err)
	}

	path, ok := d.cfg.Devices[facing]
	if !ok || path == "" {
		return nil, device.Failure(op, fmt.Errorf("no %s camera configured", facing))
	}

	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return nil, device.PermissionDenied(op, err)
		}
		return nil, device.Failure(op, err)
	}

	s := &Stream{
		id:     fmt.Sprintf("%s-%d", facing, d.seq.Add(1)),
		facing: facing,
		file:   f,
		input: Input{
			Device:      path,
			InputFormat: d.cfg.InputFormat,
			Resolution:  d.cfg.Resolution,
			FPS:         d.cfg.FPS,
		},
	}
	d.logger.Info("Camera opened", "facing", facing, "device", path, "stream_id", s.id)
	return s, nil
}

// ZoomRange reports no zoom capability.
func (d *Device) ZoomRange(device.Stream) (zoom.Range, bool) {
	return zoom.Range{}, false
}

// ApplyZoom accepts only 1.
func (d *Device) ApplyZoom(_ context.Context, _ device.Stream, value float64) error {
	if value == 1 {
		return nil
	}
	return device.ConstraintFailure("apply zoom", fmt.Errorf("zoom %.2f not supported", value))
}

func asStream(op string, s device.Stream) (*Stream, error) {
	st, ok := s.(*Stream)
	if !ok || st == nil {
		return nil, device.Failure(op, fmt.Errorf("stream %T not owned by the ffmpeg backend", s))
	}
	return st, nil
}
