package capture

import (
	"context"

	"github.com/smazurov/shutterdeck/internal/device"
	"github.com/smazurov/shutterdeck/internal/events"
	"github.com/smazurov/shutterdeck/internal/gesture"
	"github.com/smazurov/shutterdeck/internal/zoom"
)

// SwitchCamera flips to the opposite camera. The current stream is stopped
// right away, and an active recording is stopped and finalized first.
func (m *Machine) SwitchCamera(ctx context.Context) error {
	return m.call(ctx, func() {
		m.stopRecording()
		m.releaseStream()
		m.facing = m.facing.Opposite()
		m.acquire()
	})
}

// Retry re-acquires the current camera from scratch.
func (m *Machine) Retry(ctx context.Context) error {
	return m.call(ctx, func() {
		m.stopRecording()
		m.releaseStream()
		m.acquire()
	})
}

// acquire requests a stream for the current facing. Any acquisition still in
// flight is superseded.
func (m *Machine) acquire() {
	m.gen++
	gen, facing, ctx := m.gen, m.facing, m.ctx
	m.acquiring = true
	m.camErr = nil
	m.zoomBusy = false
	m.zoomPending = nil

	m.logger.Debug("Acquiring camera", "facing", facing, "gen", gen)
	m.async(func() {
		stream, err := m.dev.AcquireStream(ctx, facing)
		delivered := m.dispatch(func() { m.acquired(gen, stream, err) })
		if !delivered && stream != nil {
			stream.Stop()
		}
	})
}

func (m *Machine) acquired(gen uint64, stream device.Stream, err error) {
	if gen != m.gen {
		if stream != nil {
			m.logger.Debug("Stopping superseded stream", "stream_id", stream.ID(), "gen", gen)
			stream.Stop()
		}
		return
	}
	m.acquiring = false

	if err != nil {
		kind := device.KindOf(err)
		m.camErr = &CameraError{Kind: kind, Message: err.Error(), Retryable: true}
		m.logger.Error("Camera acquisition failed", "facing", m.facing, "kind", kind, "error", err)
		m.publish(events.CameraErrorEvent{
			Facing:    string(m.facing),
			Kind:      string(kind),
			Message:   err.Error(),
			Timestamp: m.now(),
		})
		return
	}

	m.stream = stream
	var rng *zoom.Range
	if r, ok := m.dev.ZoomRange(stream); ok {
		rng = &r
	}
	m.zoom.Reset(rng)
	m.tracker.TouchEnd()

	m.logger.Info("Camera acquired", "facing", stream.Facing(), "stream_id", stream.ID(), "has_zoom", rng != nil)
	m.publish(events.CameraChangedEvent{
		Facing:    string(stream.Facing()),
		StreamID:  stream.ID(),
		HasZoom:   rng != nil,
		Zoom:      m.zoom.Current(),
		Timestamp: m.now(),
	})
}

func (m *Machine) releaseStream() {
	if m.stream == nil {
		return
	}
	m.logger.Debug("Stopping stream", "stream_id", m.stream.ID())
	m.stream.Stop()
	m.stream = nil
}

// TouchStart forwards the start of a touch sequence to the gesture tracker.
func (m *Machine) TouchStart(ctx context.Context, points []gesture.Point) error {
	return m.call(ctx, func() {
		m.tracker.TouchStart(points, m.zoom.Current())
	})
}

// TouchMove forwards a touch move. A pinch turns into a zoom request and a
// downward swipe into a SwipeDownEvent.
func (m *Machine) TouchMove(ctx context.Context, points []gesture.Point) error {
	return m.call(ctx, func() {
		mv := m.tracker.TouchMove(points)
		if mv.SwipeDown {
			m.logger.Debug("Swipe down detected")
			m.publish(events.SwipeDownEvent{Timestamp: m.now()})
		}
		if mv.HasZoom {
			m.requestZoom(mv.Zoom)
		}
	})
}

// TouchEnd ends the touch sequence.
func (m *Machine) TouchEnd(ctx context.Context) error {
	return m.call(ctx, func() {
		m.tracker.TouchEnd()
	})
}

// SetZoom requests an absolute zoom value, clamped like a pinch.
func (m *Machine) SetZoom(ctx context.Context, value float64) error {
	return m.call(ctx, func() {
		m.requestZoom(value)
	})
}

// requestZoom clamps value and pushes it to the device. One push is in
// flight at a time; requests arriving meanwhile collapse into the latest.
func (m *Machine) requestZoom(value float64) {
	if m.stream == nil {
		return
	}
	req, ok := m.zoom.Prepare(value)
	if !ok {
		m.logger.Debug("Zoom unsupported by camera", "requested", value)
		return
	}
	if m.zoomBusy {
		m.zoomPending = &req
		return
	}
	m.pushZoom(req)
}

func (m *Machine) pushZoom(req zoom.Request) {
	m.zoomBusy = true
	gen, stream, ctx := m.gen, m.stream, m.ctx
	m.async(func() {
		err := m.dev.ApplyZoom(ctx, stream, req.Value)
		m.dispatch(func() { m.zoomSettled(gen, req, err) })
	})
}

func (m *Machine) zoomSettled(gen uint64, req zoom.Request, err error) {
	if gen != m.gen {
		return
	}
	m.zoomBusy = false

	if err != nil {
		m.zoom.Settle(req, err)
		m.publish(events.ZoomFailedEvent{Requested: req.Value, Error: err.Error(), Timestamp: m.now()})
	} else if m.zoom.Settle(req, nil) {
		m.publish(events.ZoomChangedEvent{Zoom: m.zoom.Current(), Timestamp: m.now()})
	}

	if next := m.zoomPending; next != nil {
		m.zoomPending = nil
		m.pushZoom(*next)
	}
}
