package ffmpegdev

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"time"

	"github.com/smazurov/shutterdeck/internal/device"
	"github.com/smazurov/shutterdeck/internal/logging"
)

// Sink captures stills with a one-frame ffmpeg run.
type Sink struct {
	cfg    Config
	logger logging.Logger
}

// NewSink creates a still capture sink.
func NewSink(cfg Config, logger logging.Logger) *Sink {
	if logger == nil {
		logger = logging.GetLogger("device")
	}
	return &Sink{cfg: cfg, logger: logger}
}

// RenderFrame grabs one JPEG frame from stream.
func (s *Sink) RenderFrame(ctx context.Context, stream device.Stream) (device.Artifact, error) {
	const op = "render frame"
	st, err := asStream(op, stream)
	if err != nil {
		return device.Artifact{}, err
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, s.cfg.ffmpeg(), stillArgs(st.input)...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	s.logger.Debug("Capturing still", "stream_id", st.ID(), "device", st.input.Device)
	if err := cmd.Run(); err != nil {
		if msg := logOutput(&stderr, s.logger); msg != "" {
			err = errors.New(msg)
		}
		return device.Artifact{}, device.Failure(op, err)
	}
	logOutput(&stderr, s.logger)

	if stdout.Len() == 0 {
		return device.Artifact{}, device.Failure(op, errors.New("ffmpeg produced no frame"))
	}
	return device.Artifact{
		Kind:      device.KindPhoto,
		MIMEType:  "image/jpeg",
		Data:      stdout.Bytes(),
		CreatedAt: time.Now(),
	}, nil
}
