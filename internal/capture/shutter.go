package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/smazurov/shutterdeck/internal/device"
	"github.com/smazurov/shutterdeck/internal/events"
)

// PressShutter handles the shutter intent. Rules are checked in order:
//
//  1. a running countdown is cancelled;
//  2. a configured overlay starts the countdown;
//  3. in video mode recording is toggled;
//  4. otherwise a still is captured.
//
// The returned error is set only when the intent could not be delivered or
// the recorder refused to start.
func (m *Machine) PressShutter(ctx context.Context) (ShutterAction, error) {
	var (
		action ShutterAction
		err    error
	)
	if cerr := m.call(ctx, func() { action, err = m.shutter() }); cerr != nil {
		return ActionIgnored, cerr
	}
	return action, err
}

func (m *Machine) shutter() (ShutterAction, error) {
	action, err := m.resolveShutter()
	m.logger.Debug("Shutter pressed", "action", action)
	m.publish(events.ShutterPressedEvent{Action: string(action), Timestamp: m.now()})
	return action, err
}

func (m *Machine) resolveShutter() (ShutterAction, error) {
	if m.countdown.Cancel() {
		return ActionCancelCountdown, nil
	}

	if m.overlay != nil {
		if err := m.countdown.Start(m.overlay.Delay()); err != nil {
			return ActionIgnored, err
		}
		zero := 0.0
		m.progress = &zero
		m.publish(events.CountdownProgressEvent{Progress: 0, Timestamp: m.now()})
		return ActionStartCountdown, nil
	}

	if m.mode == ModeVideo {
		if m.recording {
			m.stopRecording()
			return ActionStopRecording, nil
		}
		if m.finalizing || m.stream == nil {
			return ActionIgnored, nil
		}
		if err := m.startRecording(); err != nil {
			return ActionStartRecording, err
		}
		return ActionStartRecording, nil
	}

	if m.stream == nil {
		return ActionIgnored, nil
	}
	m.capturePhoto()
	return ActionCapturePhoto, nil
}

func (m *Machine) startRecording() error {
	m.recGen++
	gen := m.recGen
	m.chunks = [][]byte{}

	err := m.rec.Start(m.stream, func(chunk []byte) {
		data := bytes.Clone(chunk)
		m.dispatch(func() {
			if m.recGen == gen && m.chunks != nil {
				m.chunks = append(m.chunks, data)
			}
		})
	})
	if err != nil {
		m.chunks = nil
		m.logger.Error("Failed to start recording", "error", err)
		m.publish(events.CaptureErrorEvent{Kind: string(device.KindVideo), Error: err.Error(), Timestamp: m.now()})
		return fmt.Errorf("start recording: %w", err)
	}

	m.recording = true
	m.logger.Info("Recording started", "stream_id", m.stream.ID())
	m.publish(events.RecordingStateEvent{Recording: true, Timestamp: m.now()})
	return nil
}

// stopRecording asks the recorder to stop. Chunks already queued on the
// loop land before the finalize step since the recorder returns only after
// its last callback.
func (m *Machine) stopRecording() {
	if !m.recording {
		return
	}
	m.recording = false
	m.finalizing = true
	gen := m.recGen
	ctx := m.ctx
	m.publish(events.RecordingStateEvent{Finalizing: true, Timestamp: m.now()})

	m.async(func() {
		err := m.rec.Stop(ctx)
		m.dispatch(func() { m.finishRecording(gen, err) })
	})
}

func (m *Machine) finishRecording(gen uint64, stopErr error) {
	if gen != m.recGen {
		return
	}
	m.finalizing = false
	data := bytes.Join(m.chunks, nil)
	m.chunks = nil

	err := stopErr
	if err == nil && len(data) == 0 {
		err = errors.New("recording produced no data")
	}
	if err != nil {
		m.logger.Error("Failed to finalize recording", "error", err)
		m.publish(events.CaptureErrorEvent{Kind: string(device.KindVideo), Error: err.Error(), Timestamp: m.now()})
	} else {
		m.setLast(device.Artifact{
			Kind:      device.KindVideo,
			MIMEType:  m.rec.MIMEType(),
			Data:      data,
			CreatedAt: m.clock.Now(),
		})
	}
	m.publish(events.RecordingStateEvent{Timestamp: m.now()})
}

func (m *Machine) capturePhoto() {
	stream := m.stream
	ctx := m.ctx
	m.async(func() {
		art, err := m.sink.RenderFrame(ctx, stream)
		m.dispatch(func() { m.finishPhoto(art, err) })
	})
}

func (m *Machine) finishPhoto(art device.Artifact, err error) {
	if err != nil {
		m.logger.Error("Failed to capture photo", "error", err)
		m.publish(events.CaptureErrorEvent{Kind: string(device.KindPhoto), Error: err.Error(), Timestamp: m.now()})
		return
	}
	art.Kind = device.KindPhoto
	if art.CreatedAt.IsZero() {
		art.CreatedAt = m.clock.Now()
	}
	m.setLast(art)
}

// setLast replaces the single last-capture slot.
func (m *Machine) setLast(art device.Artifact) {
	m.last = &art
	m.logger.Info("Capture completed", "kind", art.Kind, "mime_type", art.MIMEType, "size", len(art.Data))
	m.publish(events.CaptureCompletedEvent{
		Kind:      string(art.Kind),
		MIMEType:  art.MIMEType,
		Size:      len(art.Data),
		Timestamp: m.now(),
	})
}

func (m *Machine) countdownProgress(p float64) {
	m.progress = &p
	m.publish(events.CountdownProgressEvent{Progress: p, Timestamp: m.now()})
}

func (m *Machine) countdownComplete() {
	m.progress = nil
	m.publish(events.CountdownClearedEvent{Reason: "completed", Timestamp: m.now()})
	m.startOverlay()
}

func (m *Machine) countdownCleared() {
	m.progress = nil
	m.publish(events.CountdownClearedEvent{Reason: "cancelled", Timestamp: m.now()})
}
